package webservices

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jamesrr39/geoquiz-app/fonts"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/datasources"
	"github.com/jamesrr39/geoquiz-app/overlay"
	"github.com/jamesrr39/geoquiz-app/projection"
	"github.com/jamesrr39/geoquiz-app/quiz"
	"github.com/jamesrr39/geoquiz-app/quizrenderer"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logpkg.Logger {
	return logpkg.NewLogger(new(bytes.Buffer), logpkg.LogLevelDebug)
}

func newTestSession(t *testing.T) *quiz.Session {
	features := []*geoquiz.Feature{{
		Name: "Testland",
		Geometry: orb.Polygon{orb.Ring{
			{-10, -10}, {10, -10}, {10, 10}, {-10, 10}, {-10, -10},
		}},
	}}

	cache := geoquizdal.NewDatasetCache(
		testLogger(),
		func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
			return features, nil
		},
		func(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error) {
			return geoquiz.NewRasterImage(image.NewRGBA(image.Rect(0, 0, 360, 180))), nil
		},
	)

	config := quiz.DefaultSessionConfig()
	config.Rebuild.DebounceWindow = 10 * time.Millisecond
	config.Rebuild.RetryDelay = 5 * time.Millisecond

	session := quiz.NewSession(testLogger(), cache, config, nil)
	t.Cleanup(session.Stop)

	return session
}

func loadSession(t *testing.T, session *quiz.Session) {
	_, err := session.Features(context.Background())
	require.NoError(t, err)
	_, err = session.Raster(context.Background())
	require.NoError(t, err)
}

func doRequest(handler http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reqBody bytes.Buffer
	if body != nil {
		json.NewEncoder(&reqBody).Encode(body)
	}

	req := httptest.NewRequest(method, target, &reqBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type decodedInfoType struct {
	Style    stylesType             `json:"style"`
	Raster   *quiz.RasterDimensions `json:"raster"`
	MapFrame *geoquiz.DisplayFrame  `json:"mapFrame"`
	Status   struct {
		Features struct {
			Status string `json:"status"`
		} `json:"features"`
		FeatureCount int `json:"featureCount"`
	} `json:"status"`
}

func TestInfoService(t *testing.T) {
	session := newTestSession(t)
	ws := NewInfoService(testLogger(), session, styling.NewBuiltinStyleSet(), projection.DefaultLayoutLimits())

	rec := doRequest(ws, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info decodedInfoType
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, styling.BUILTIN_STYLEID, info.Style.DefaultStyleID)
	assert.Equal(t, []string{styling.BUILTIN_STYLEID, styling.DarkStyleID}, info.Style.StyleIDs)
	assert.Equal(t, "Not Started", info.Status.Features.Status)
	assert.Nil(t, info.Raster)
	assert.Nil(t, info.MapFrame)

	loadSession(t, session)

	rec = doRequest(ws, http.MethodGet, "/?availableWidth=1200&availableHeight=800", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loadedInfo decodedInfoType
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&loadedInfo))
	assert.Equal(t, &quiz.RasterDimensions{Width: 360, Height: 180, AspectRatio: 2}, loadedInfo.Raster)
	assert.Equal(t, &geoquiz.DisplayFrame{Width: 1080, Height: 540}, loadedInfo.MapFrame)
	assert.Equal(t, "Done", loadedInfo.Status.Features.Status)
	assert.Equal(t, 1, loadedInfo.Status.FeatureCount)

	rec = doRequest(ws, http.MethodGet, "/?availableWidth=abc&availableHeight=800", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuizService_click(t *testing.T) {
	session := newTestSession(t)
	qs := NewQuizService(testLogger(), session, quiz.NewGame(session, rand.New(rand.NewSource(1))))

	centreClick := clickRequestType{PixelX: 360, PixelY: 180, DisplayWidth: 720, DisplayHeight: 360}

	rec := doRequest(qs, http.MethodPost, "/click", centreClick)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	loadSession(t, session)

	tests := []struct {
		Name           string
		Body           interface{}
		ExpectedStatus int
		ExpectedLabel  string
	}{
		{
			Name:           "inside Testland",
			Body:           centreClick,
			ExpectedStatus: http.StatusOK,
			ExpectedLabel:  "Clicked: Testland",
		}, {
			Name:           "ocean",
			Body:           clickRequestType{PixelX: 0, PixelY: 0, DisplayWidth: 720, DisplayHeight: 360},
			ExpectedStatus: http.StatusOK,
			ExpectedLabel:  "Clicked: Unknown",
		}, {
			Name:           "zero size display",
			Body:           clickRequestType{PixelX: 0, PixelY: 0, DisplayWidth: 0, DisplayHeight: 360},
			ExpectedStatus: http.StatusBadRequest,
		}, {
			Name:           "bad body",
			Body:           "not a click",
			ExpectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			rec := doRequest(qs, http.MethodPost, "/click", tt.Body)
			require.Equal(t, tt.ExpectedStatus, rec.Code)

			if tt.ExpectedStatus != http.StatusOK {
				return
			}

			var result quiz.ClickResult
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
			assert.Equal(t, tt.ExpectedLabel, result.Label)
		})
	}
}

func TestQuizService_overlay(t *testing.T) {
	session := newTestSession(t)
	qs := NewQuizService(testLogger(), session, quiz.NewGame(session, rand.New(rand.NewSource(1))))

	rec := doRequest(qs, http.MethodGet, "/overlay", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	loadSession(t, session)

	rec = doRequest(qs, http.MethodGet, "/overlay?width=720&height=360", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var built overlay.Overlay
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&built))
	require.Len(t, built.Polylines, 1)
	assert.Equal(t, "Testland", built.Polylines[0].FeatureName)

	for _, target := range []string{
		"/overlay?width=Inf&height=360",
		"/overlay?width=720&height=NaN",
		"/overlay?width=100000&height=100000",
	} {
		rec = doRequest(qs, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec = doRequest(qs, http.MethodPost, "/resize", resizeRequestType{Width: 360, Height: 180})
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := doRequest(qs, http.MethodGet, "/overlay", nil)
		if rec.Code != http.StatusOK {
			return false
		}

		var latest overlay.Overlay
		err := json.NewDecoder(rec.Body).Decode(&latest)
		return err == nil && latest.Frame.Width == 360 && len(latest.Polylines) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQuizService_rounds(t *testing.T) {
	session := newTestSession(t)
	qs := NewQuizService(testLogger(), session, quiz.NewGame(session, rand.New(rand.NewSource(1))))
	loadSession(t, session)

	rec := doRequest(qs, http.MethodPost, "/rounds", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var round quiz.Round
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&round))
	assert.Equal(t, "Testland", round.TargetName)

	guess := clickRequestType{PixelX: 360, PixelY: 180, DisplayWidth: 720, DisplayHeight: 360}

	rec = doRequest(qs, http.MethodPost, "/rounds/"+round.ID+"/guesses", guess)
	require.Equal(t, http.StatusOK, rec.Code)

	var result quiz.GuessResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, quiz.GuessOutcomeCorrect, result.Outcome)
	assert.Equal(t, quiz.PointsPerCorrectAnswer, result.TotalScore)

	rec = doRequest(qs, http.MethodPost, "/rounds/"+round.ID+"/guesses", guess)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(qs, http.MethodPost, "/rounds/nope/guesses", guess)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMapService(t *testing.T) {
	session := newTestSession(t)
	ms := NewMapService(testLogger(), session, quizrenderer.NewRasterRenderer(fonts.DefaultFont()), styling.NewBuiltinStyleSet(), false)

	rec := doRequest(ms, http.MethodGet, "/?width=200&height=100", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	loadSession(t, session)

	tests := []struct {
		Name           string
		Target         string
		ExpectedStatus int
	}{
		{"default style", "/?width=720&height=360", http.StatusOK},
		{"highlight and dark style", "/?width=720&height=360&highlight=Testland&styleId=dark", http.StatusOK},
		{"unknown style", "/?width=720&height=360&styleId=nope", http.StatusBadRequest},
		{"bad width", "/?width=abc&height=360", http.StatusBadRequest},
		{"degenerate frame", "/?width=1&height=360", http.StatusBadRequest},
		{"infinite width", "/?width=Inf&height=100", http.StatusBadRequest},
		{"NaN height", "/?width=720&height=NaN", http.StatusBadRequest},
		{"wider than the largest map", "/?width=100000&height=360", http.StatusBadRequest},
		{"taller than the largest map", "/?width=720&height=100000", http.StatusBadRequest},
		{"largest map", "/?width=4000&height=3000", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			rec := doRequest(ms, http.MethodGet, tt.Target, nil)
			require.Equal(t, tt.ExpectedStatus, rec.Code)

			if tt.ExpectedStatus != http.StatusOK {
				return
			}

			img, err := png.Decode(rec.Body)
			require.NoError(t, err)
			query := httptest.NewRequest(http.MethodGet, tt.Target, nil).URL.Query()
			assert.Equal(t, query.Get("width"), strconv.Itoa(img.Bounds().Dx()))
			assert.Equal(t, query.Get("height"), strconv.Itoa(img.Bounds().Dy()))
		})
	}
}

const testlandGeoJSON = `{"type": "FeatureCollection", "features": [
	{"type": "Feature", "properties": {"NAME": "Testland"}, "geometry": {"type": "Polygon", "coordinates": [[[-10, -10], [10, -10], [10, 10], [-10, 10], [-10, -10]]]}}
]}`

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name      string
		width     string
		height    string
		want      geoquiz.DisplayFrame
		expectErr bool
	}{
		{"valid", "720", "360", geoquiz.DisplayFrame{Width: 720, Height: 360}, false},
		{"not a number", "abc", "360", geoquiz.DisplayFrame{}, true},
		{"infinite", "Inf", "360", geoquiz.DisplayFrame{}, true},
		{"negative infinite", "720", "-Inf", geoquiz.DisplayFrame{}, true},
		{"NaN", "NaN", "360", geoquiz.DisplayFrame{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := parseFrame(tt.width, tt.height)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame)
		})
	}
}

func TestCheckFrameSize(t *testing.T) {
	limits := projection.DefaultLayoutLimits()

	assert.NoError(t, checkFrameSize(geoquiz.DisplayFrame{Width: 4000, Height: 3000}, limits))
	assert.Error(t, checkFrameSize(geoquiz.DisplayFrame{Width: 4001, Height: 300}, limits))
	assert.Error(t, checkFrameSize(geoquiz.DisplayFrame{Width: 400, Height: 3001}, limits))
}

func TestAdminService(t *testing.T) {
	fs := gofs.NewOsFs()
	pathsConfig := geoquizdal.NewPathsConfig(t.TempDir())
	require.NoError(t, pathsConfig.EnsurePaths(fs))

	session := newTestSession(t)
	loader := geoquizdal.NewFeatureLoader(testLogger(), fs, datasources.NewOpenSourceFunc(fs), geoquizdal.DefaultLoaderOptions())
	as := NewAdminService(testLogger(), fs, pathsConfig, session, loader, "admin")

	rec := doRequest(as, http.MethodPost, "/reload", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return session.Status().IsLoaded()
	}, 2*time.Second, 10*time.Millisecond)

	rec = doRequest(as, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Countries: Done (1 loaded")

	t.Run("upload a GeoJSON dataset", func(t *testing.T) {
		var body bytes.Buffer
		multipartWriter := multipart.NewWriter(&body)
		part, err := multipartWriter.CreateFormFile("datasetFile", "countries.geojson")
		require.NoError(t, err)
		_, err = part.Write([]byte(testlandGeoJSON))
		require.NoError(t, err)
		require.NoError(t, multipartWriter.Close())

		req := httptest.NewRequest(http.MethodPost, "/datasetFile", &body)
		req.Header.Set("Content-Type", multipartWriter.FormDataContentType())
		rec := httptest.NewRecorder()
		as.ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)

		require.Eventually(t, func() bool {
			items := as.importQueue.GetItems()
			return len(items) == 1 && items[0].Status == geoquizdal.ImportStatusDone
		}, 5*time.Second, 10*time.Millisecond)

		items := as.importQueue.GetItems()
		assert.Equal(t, 1, items[0].FeatureCount)

		_, err = fs.Stat(filepath.Join(pathsConfig.DataDir, "countries.parquet"))
		require.NoError(t, err)
	})

	t.Run("shapefiles can't be uploaded", func(t *testing.T) {
		var body bytes.Buffer
		multipartWriter := multipart.NewWriter(&body)
		part, err := multipartWriter.CreateFormFile("datasetFile", "countries.shp")
		require.NoError(t, err)
		_, err = part.Write([]byte("not really a shapefile"))
		require.NoError(t, err)
		require.NoError(t, multipartWriter.Close())

		req := httptest.NewRequest(http.MethodPost, "/datasetFile", &body)
		req.Header.Set("Content-Type", multipartWriter.FormDataContentType())
		rec := httptest.NewRecorder()
		as.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "unsupported upload type"))
	})
}

func TestClientService(t *testing.T) {
	cs := NewClientService(testLogger())

	rec := doRequest(cs, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/map.png")
}
