package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/projection"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

func NewInfoService(logger *logpkg.Logger, session *quiz.Session, styleSet *styling.StyleSet, layoutLimits projection.LayoutLimits) *InfoService {
	ws := &InfoService{logger, session, styleSet, layoutLimits, chi.NewRouter()}
	ws.Get("/", ws.handleGet)

	return ws
}

type InfoService struct {
	logger       *logpkg.Logger
	session      *quiz.Session
	styleSet     *styling.StyleSet
	layoutLimits projection.LayoutLimits
	chi.Router
}

type stylesType struct {
	DefaultStyleID string   `json:"defaultStyleId"`
	StyleIDs       []string `json:"styleIds"`
}

type infoType struct {
	Style  stylesType               `json:"style"`
	Status geoquizdal.DatasetStatus `json:"status"`
	// Raster and MapFrame are only set once the raster has loaded
	Raster   *quiz.RasterDimensions `json:"raster,omitempty"`
	MapFrame *geoquiz.DisplayFrame  `json:"mapFrame,omitempty"`
}

// handleGet never waits for the dataset to load; the UI polls it to show load progress.
// With availableWidth and availableHeight it also suggests a map size.
func (ws *InfoService) handleGet(w http.ResponseWriter, r *http.Request) {
	info := infoType{
		Style: stylesType{
			ws.styleSet.GetDefaultStyle().GetStyleID(),
			ws.styleSet.GetAllStyleIDs(),
		},
		Status: ws.session.Status(),
	}

	dimensions, ok := ws.session.LoadedRasterDimensions()
	if ok {
		info.Raster = dimensions

		availableWidth := r.URL.Query().Get("availableWidth")
		availableHeight := r.URL.Query().Get("availableHeight")
		if availableWidth != "" && availableHeight != "" {
			available, err := parseFrame(availableWidth, availableHeight)
			if err != nil {
				errorsx.HTTPJSONError(w, ws.logger, err, http.StatusBadRequest)
				return
			}

			mapFrame := projection.FitDisplayFrame(available, dimensions.AspectRatio, ws.layoutLimits)
			info.MapFrame = &mapFrame
		}
	}

	render.JSON(w, r, info)
}
