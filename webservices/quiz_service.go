package webservices

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

type QuizService struct {
	logger  *logpkg.Logger
	session *quiz.Session
	game    *quiz.Game
	chi.Router
}

func NewQuizService(logger *logpkg.Logger, session *quiz.Session, game *quiz.Game) *QuizService {
	qs := &QuizService{logger, session, game, chi.NewRouter()}

	qs.Post("/click", qs.handlePostClick)
	qs.Post("/resize", qs.handlePostResize)
	qs.Get("/overlay", qs.handleGetOverlay)
	qs.Post("/rounds", qs.handlePostRound)
	qs.Post("/rounds/{roundID}/guesses", qs.handlePostGuess)

	return qs
}

type clickRequestType struct {
	PixelX        float64 `json:"pixelX"`
	PixelY        float64 `json:"pixelY"`
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
}

func (c clickRequestType) frame() geoquiz.DisplayFrame {
	return geoquiz.DisplayFrame{Width: c.DisplayWidth, Height: c.DisplayHeight}
}

// requireLoaded writes a 503 and returns false while the resources the handler needs are still loading
func (qs *QuizService) requireLoaded(w http.ResponseWriter, needRaster bool) bool {
	status := qs.session.Status()

	isLoaded := status.Features.Status == geoquizdal.LoadStatusDone
	if needRaster {
		isLoaded = status.IsLoaded()
	}

	if isLoaded {
		return true
	}

	err := errorsx.Wrap(
		geoquiz.ErrDatasetNotLoaded,
		"features", status.Features.Status.String(),
		"raster", status.Raster.Status.String(),
	)
	errorsx.HTTPJSONError(w, qs.logger, err, http.StatusServiceUnavailable)
	return false
}

func (qs *QuizService) handlePostClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	frameErr := validateFrame(req.frame())
	if frameErr != nil {
		errorsx.HTTPJSONError(w, qs.logger, frameErr, http.StatusBadRequest)
		return
	}

	if !qs.requireLoaded(w, false) {
		return
	}

	result, clickErr := qs.session.OnUserClick(r.Context(), req.PixelX, req.PixelY, req.frame())
	if clickErr != nil {
		errorsx.HTTPJSONError(w, qs.logger, clickErr, statusCodeForError(clickErr))
		return
	}

	render.JSON(w, r, result)
}

type resizeRequestType struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handlePostResize schedules a debounced overlay rebuild; the result is fetched from GET /overlay
func (qs *QuizService) handlePostResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	qs.session.OnDisplayResize(geoquiz.DisplayFrame{Width: req.Width, Height: req.Height})

	w.WriteHeader(http.StatusAccepted)
}

// handleGetOverlay builds the overlay for the width and height given in the query,
// or returns the last overlay built after a resize if they are omitted
func (qs *QuizService) handleGetOverlay(w http.ResponseWriter, r *http.Request) {
	widthStr := r.URL.Query().Get("width")
	heightStr := r.URL.Query().Get("height")

	if widthStr == "" && heightStr == "" {
		latest, ok := qs.session.Overlay()
		if !ok {
			errorsx.HTTPJSONError(w, qs.logger, errorsx.Errorf("no overlay built yet"), http.StatusNotFound)
			return
		}

		render.JSON(w, r, latest)
		return
	}

	frame, err := parseFrame(widthStr, heightStr)
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, err, http.StatusBadRequest)
		return
	}

	err = checkFrameSize(frame, qs.session.LayoutLimits())
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, err, http.StatusBadRequest)
		return
	}

	if !qs.requireLoaded(w, true) {
		return
	}

	built, err := qs.session.BuildOverlay(r.Context(), frame)
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, err, statusCodeForError(err))
		return
	}

	render.JSON(w, r, built)
}

func (qs *QuizService) handlePostRound(w http.ResponseWriter, r *http.Request) {
	if !qs.requireLoaded(w, false) {
		return
	}

	round, err := qs.game.NewRound(r.Context())
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, err, statusCodeForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, round)
}

func (qs *QuizService) handlePostGuess(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	var req clickRequestType
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		errorsx.HTTPJSONError(w, qs.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}

	frameErr := validateFrame(req.frame())
	if frameErr != nil {
		errorsx.HTTPJSONError(w, qs.logger, frameErr, http.StatusBadRequest)
		return
	}

	if !qs.requireLoaded(w, false) {
		return
	}

	result, guessErr := qs.game.Guess(r.Context(), roundID, req.PixelX, req.PixelY, req.frame())
	if guessErr != nil {
		errorsx.HTTPJSONError(w, qs.logger, guessErr, statusCodeForError(guessErr))
		return
	}

	render.JSON(w, r, result)
}
