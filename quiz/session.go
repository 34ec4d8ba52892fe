package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/locator"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/geoquiz-app/overlay"
	"github.com/jamesrr39/geoquiz-app/projection"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

type LocatorKind string

const (
	LocatorKindLinear LocatorKind = "linear"
	LocatorKindRTree  LocatorKind = "rtree"
)

var LocatorKinds = []LocatorKind{LocatorKindLinear, LocatorKindRTree}

func ParseLocatorKind(name string) (LocatorKind, errorsx.Error) {
	for _, kind := range LocatorKinds {
		if string(kind) == name {
			return kind, nil
		}
	}

	return "", errorsx.Errorf("unknown locator kind: %q", name)
}

type SessionConfig struct {
	LocatorKind     LocatorKind
	ContainmentRule locator.ContainmentRule
	// ResultCache is optional. When set, lookups are cached by quantised coordinate.
	ResultCache locator.ResultCache
	Rebuild     overlay.RebuildConfig
	Layout      projection.LayoutLimits
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		LocatorKind:     LocatorKindLinear,
		ContainmentRule: locator.ExteriorRingOnly,
		Rebuild:         overlay.DefaultRebuildConfig(),
		Layout:          projection.DefaultLayoutLimits(),
	}
}

type ClickResult struct {
	Point geoquiz.GeoPoint `json:"point"`
	Found bool             `json:"found"`
	Name  string           `json:"name"`
	Label string           `json:"label"`
}

func newClickResult(point geoquiz.GeoPoint, feature *geoquiz.Feature, found bool) *ClickResult {
	name := geoquiz.UnknownName
	if found {
		name = feature.Name
	}

	return &ClickResult{
		Point: point,
		Found: found,
		Name:  name,
		Label: fmt.Sprintf("Clicked: %s", name),
	}
}

type RasterDimensions struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
}

// Session is what the UI talks to: it starts the dataset load, answers clicks and keeps the overlay in step with the display size
type Session struct {
	logger    *logpkg.Logger
	cache     *geoquizdal.DatasetCache
	config    SessionConfig
	rebuilder *overlay.Rebuilder

	locatorMu *sync.Mutex
	locator   locator.Locator
}

func NewSession(logger *logpkg.Logger, cache *geoquizdal.DatasetCache, config SessionConfig, onOverlayRebuilt overlay.OnRebuiltFunc) *Session {
	s := &Session{
		logger:    logger,
		cache:     cache,
		config:    config,
		locatorMu: new(sync.Mutex),
	}

	s.rebuilder = overlay.NewRebuilder(logger, cache, config.Rebuild, onOverlayRebuilt)
	cache.OnLoaded(s.rebuilder.Refresh)

	return s
}

// Preload starts loading the dataset and raster in the background. Calling it again retries failed loads.
func (s *Session) Preload() {
	s.cache.Preload()
}

func (s *Session) Status() geoquizdal.DatasetStatus {
	return s.cache.Status()
}

// Features blocks until the features are loaded
func (s *Session) Features(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
	return s.cache.Features(ctx)
}

// Raster blocks until the raster is loaded
func (s *Session) Raster(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error) {
	return s.cache.Raster(ctx)
}

func (s *Session) getLocator(ctx context.Context) (locator.Locator, errorsx.Error) {
	features, err := s.cache.Features(ctx)
	if err != nil {
		return nil, err
	}

	s.locatorMu.Lock()
	defer s.locatorMu.Unlock()

	if s.locator != nil {
		return s.locator, nil
	}

	var loc locator.Locator
	switch s.config.LocatorKind {
	case LocatorKindRTree:
		loc = locator.NewRTreeLocator(features, s.config.ContainmentRule)
	default:
		loc = locator.NewLinearLocator(features, s.config.ContainmentRule)
	}

	if s.config.ResultCache != nil {
		loc = locator.NewCachedLocator(s.logger, loc, features, s.config.ResultCache)
	}

	s.logger.Debug("built %s locator over %d features (rule: %s)", s.config.LocatorKind, len(features), s.config.ContainmentRule)

	s.locator = loc
	return loc, nil
}

// Locate finds the feature containing a geographic point, waiting for the dataset if needed
func (s *Session) Locate(ctx context.Context, point geoquiz.GeoPoint) (*ClickResult, errorsx.Error) {
	loc, err := s.getLocator(ctx)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	feature, found := loc.Locate(point)
	metrics.LookupDurationMs.Observe(float64(time.Since(startTime).Microseconds()) / 1000)

	if found {
		metrics.LookupsTotal.WithLabelValues("found").Inc()
	} else {
		metrics.LookupsTotal.WithLabelValues("not_found").Inc()
	}

	return newClickResult(point, feature, found), nil
}

// OnUserClick resolves a click on the displayed map to a country name
func (s *Session) OnUserClick(ctx context.Context, pixelX, pixelY float64, frame geoquiz.DisplayFrame) (*ClickResult, errorsx.Error) {
	point, err := projection.PixelToGeo(geoquiz.PixelPoint{X: pixelX, Y: pixelY}, frame)
	if err != nil {
		return nil, err
	}

	return s.Locate(ctx, point)
}

// OnDisplayResize schedules an overlay rebuild for the new display size
func (s *Session) OnDisplayResize(frame geoquiz.DisplayFrame) {
	s.rebuilder.Resize(frame)
}

// Overlay returns the latest overlay built by OnDisplayResize
func (s *Session) Overlay() (*overlay.Overlay, bool) {
	return s.rebuilder.Latest()
}

// BuildOverlay builds the overlay for a frame straight away, waiting for the dataset if needed
func (s *Session) BuildOverlay(ctx context.Context, frame geoquiz.DisplayFrame) (*overlay.Overlay, errorsx.Error) {
	features, err := s.cache.Features(ctx)
	if err != nil {
		return nil, err
	}

	raster, err := s.cache.Raster(ctx)
	if err != nil {
		return nil, err
	}

	return &overlay.Overlay{
		Frame:     frame,
		Polylines: overlay.Build(features, raster.Width, raster.Height, frame, s.config.Rebuild.Options),
	}, nil
}

func (s *Session) RasterDimensions(ctx context.Context) (*RasterDimensions, errorsx.Error) {
	raster, err := s.cache.Raster(ctx)
	if err != nil {
		return nil, err
	}

	return &RasterDimensions{
		Width:       raster.Width,
		Height:      raster.Height,
		AspectRatio: raster.AspectRatio(),
	}, nil
}

// LoadedRasterDimensions does not wait for the raster to load
func (s *Session) LoadedRasterDimensions() (*RasterDimensions, bool) {
	raster, ok := s.cache.LoadedRaster()
	if !ok {
		return nil, false
	}

	return &RasterDimensions{
		Width:       raster.Width,
		Height:      raster.Height,
		AspectRatio: raster.AspectRatio(),
	}, true
}

// LayoutLimits are the bounds on the map size, also the largest frame that is rendered
func (s *Session) LayoutLimits() projection.LayoutLimits {
	return s.config.Layout
}

// LayoutFrame sizes the map for the space available to it, keeping the raster's aspect ratio
func (s *Session) LayoutFrame(ctx context.Context, available geoquiz.DisplayFrame) (geoquiz.DisplayFrame, errorsx.Error) {
	dimensions, err := s.RasterDimensions(ctx)
	if err != nil {
		return geoquiz.DisplayFrame{}, err
	}

	return projection.FitDisplayFrame(available, dimensions.AspectRatio, s.config.Layout), nil
}

// Stop cancels pending overlay rebuilds
func (s *Session) Stop() {
	s.rebuilder.Stop()
}
