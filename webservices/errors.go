package webservices

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/projection"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/goutil/errorsx"
)

// statusCodeForError maps error causes to HTTP statuses. Load failures are 503 so that the UI retries.
func statusCodeForError(err errorsx.Error) int {
	switch errorsx.Cause(err) {
	case geoquiz.ErrDegenerateFrame:
		return http.StatusBadRequest
	case quiz.ErrRoundNotFound:
		return http.StatusNotFound
	case quiz.ErrRoundFinished:
		return http.StatusConflict
	case geoquiz.ErrMissingResource,
		geoquiz.ErrUnreadableFormat,
		geoquiz.ErrUnreadableRaster,
		geoquiz.ErrDatasetNotLoaded,
		quiz.ErrNoCountriesToAsk,
		context.Canceled,
		context.DeadlineExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseFrame reads a display size from query parameters. Sizes that are not finite numbers are rejected.
func parseFrame(widthStr, heightStr string) (geoquiz.DisplayFrame, errorsx.Error) {
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return geoquiz.DisplayFrame{}, errorsx.Wrap(err, "width", widthStr)
	}

	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return geoquiz.DisplayFrame{}, errorsx.Wrap(err, "height", heightStr)
	}

	frame := geoquiz.DisplayFrame{Width: width, Height: height}

	validationErr := validateFrame(frame)
	if validationErr != nil {
		return geoquiz.DisplayFrame{}, validationErr
	}

	return frame, nil
}

func validateFrame(frame geoquiz.DisplayFrame) errorsx.Error {
	if !isFinite(frame.Width) || !isFinite(frame.Height) {
		return errorsx.Errorf("display size must be finite, got %vx%v", frame.Width, frame.Height)
	}

	return nil
}

// checkFrameSize rejects frames bigger than the largest map the layout would ever produce
func checkFrameSize(frame geoquiz.DisplayFrame, limits projection.LayoutLimits) errorsx.Error {
	if frame.Width > limits.MaxWidth || frame.Height > limits.MaxHeight {
		return errorsx.Errorf("display size %vx%v is bigger than the maximum of %vx%v", frame.Width, frame.Height, limits.MaxWidth, limits.MaxHeight)
	}

	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
