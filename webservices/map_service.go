package webservices

import (
	"image"
	"image/png"
	"math"
	"net"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquiz/maprenderer"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/semaphore"
	"github.com/pkg/profile"
)

const maxConcurrentRenders = 4

type MapService struct {
	logger        *logpkg.Logger
	session       *quiz.Session
	sema          *semaphore.Semaphore
	rasterer      maprenderer.MapRenderer
	styleSet      *styling.StyleSet
	shouldProfile bool
	chi.Router
}

func NewMapService(logger *logpkg.Logger, session *quiz.Session, rasterer maprenderer.MapRenderer, styleSet *styling.StyleSet, shouldProfile bool) *MapService {
	ms := &MapService{logger, session, semaphore.NewSemaphore(maxConcurrentRenders), rasterer, styleSet, shouldProfile, chi.NewRouter()}

	ms.Get("/", ms.handleGetMap)

	return ms
}

func (ms *MapService) getStyle(styleID string) (styling.Style, errorsx.Error) {
	if styleID == "" {
		return ms.styleSet.GetDefaultStyle(), nil
	}

	style := ms.styleSet.GetStyleByID(styleID)
	if style == nil {
		return nil, errorsx.Errorf("couldn't get requested style %q (style not loaded)", styleID)
	}

	return style, nil
}

// handleGetMap renders the base map with outlines at the requested size.
// While the dataset is loading, a text tile saying so is served instead.
func (ms *MapService) handleGetMap(w http.ResponseWriter, r *http.Request) {
	if ms.shouldProfile {
		defer profile.Start().Stop()
	}

	frame, err := parseFrame(r.URL.Query().Get("width"), r.URL.Query().Get("height"))
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, http.StatusBadRequest)
		return
	}

	err = checkFrameSize(frame, ms.session.LayoutLimits())
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, http.StatusBadRequest)
		return
	}

	if !frame.IsRenderable() {
		errorsx.HTTPError(w, ms.logger, errorsx.Wrap(geoquiz.ErrDegenerateFrame, "width", frame.Width, "height", frame.Height), http.StatusBadRequest)
		return
	}

	style, err := ms.getStyle(r.URL.Query().Get("styleId"))
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, http.StatusBadRequest)
		return
	}

	highlight := r.URL.Query().Get("highlight")

	ms.sema.Add()
	defer ms.sema.Done()

	if !ms.session.Status().IsLoaded() {
		img, err := ms.rasterer.RenderTextTile(frameRect(frame), "(loading map data)")
		if err != nil {
			errorsx.HTTPError(w, ms.logger, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusServiceUnavailable)
		ms.encodePNG(w, img)
		return
	}

	raster, err := ms.session.Raster(r.Context())
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, statusCodeForError(err))
		return
	}

	builtOverlay, err := ms.session.BuildOverlay(r.Context(), frame)
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, statusCodeForError(err))
		return
	}

	img, err := ms.rasterer.RenderMap(r.Context(), raster, builtOverlay.Polylines, frame, highlight, style)
	if err != nil {
		errorsx.HTTPError(w, ms.logger, err, statusCodeForError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	ms.encodePNG(w, img)
}

func (ms *MapService) encodePNG(w http.ResponseWriter, img image.Image) {
	err := png.Encode(w, img)
	if err != nil {
		switch err.(type) {
		case *net.OpError:
			// broken pipe (request cancelled). Do nothing
		default:
			ms.logger.Error("failed to encode map image. Error: %q", err)
		}
	}
}

func frameRect(frame geoquiz.DisplayFrame) image.Rectangle {
	return image.Rect(0, 0, int(math.Ceil(frame.Width)), int(math.Ceil(frame.Height)))
}
