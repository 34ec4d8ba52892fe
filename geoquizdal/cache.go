package geoquizdal

import (
	"context"
	"sync"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

type LoadStatus int

const (
	LoadStatusNotStarted LoadStatus = iota
	LoadStatusInProgress
	LoadStatusDone
	LoadStatusFailed
)

var loadStatusNames = []string{
	"Not Started",
	"In Progress",
	"Done",
	"Failed",
}

func (s LoadStatus) String() string {
	if s < 0 || int(s) >= len(loadStatusNames) {
		return "Unknown"
	}
	return loadStatusNames[s]
}

func (s LoadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ResourceStatus struct {
	Status    LoadStatus    `json:"status"`
	LastError string        `json:"lastError,omitempty"`
	Attempts  int           `json:"attempts"`
	LoadedAt  time.Time     `json:"loadedAt,omitempty"`
	Duration  time.Duration `json:"durationNanos"`
}

type DatasetStatus struct {
	Features     ResourceStatus `json:"features"`
	Raster       ResourceStatus `json:"raster"`
	FeatureCount int            `json:"featureCount"`
}

// IsLoaded is true once both the features and the raster are available
func (s DatasetStatus) IsLoaded() bool {
	return s.Features.Status == LoadStatusDone && s.Raster.Status == LoadStatusDone
}

type FeaturesLoadFunc func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error)
type RasterLoadFunc func(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error)

// resourceState tracks one cached resource.
// loadMu serializes the check-then-populate sequence, mu guards the fields.
type resourceState struct {
	name   string
	loadMu *sync.Mutex
	mu     *sync.RWMutex
	status ResourceStatus
}

func newResourceState(name string) *resourceState {
	return &resourceState{name: name, loadMu: new(sync.Mutex), mu: new(sync.RWMutex)}
}

func (rs *resourceState) getStatus() ResourceStatus {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.status
}

// DatasetCache holds the features and the raster, loading each at most once.
// A failed load leaves nothing behind, so the next call tries again.
type DatasetCache struct {
	logger       *logpkg.Logger
	loadFeatures FeaturesLoadFunc
	loadRaster   RasterLoadFunc

	featuresState *resourceState
	rasterState   *resourceState

	mu       *sync.RWMutex
	features []*geoquiz.Feature
	raster   *geoquiz.RasterImage

	listenersMu *sync.Mutex
	onLoaded    []func()
}

func NewDatasetCache(logger *logpkg.Logger, loadFeatures FeaturesLoadFunc, loadRaster RasterLoadFunc) *DatasetCache {
	return &DatasetCache{
		logger:        logger,
		loadFeatures:  loadFeatures,
		loadRaster:    loadRaster,
		featuresState: newResourceState("features"),
		rasterState:   newResourceState("raster"),
		mu:            new(sync.RWMutex),
		listenersMu:   new(sync.Mutex),
	}
}

// Features returns the feature set, loading it first if needed.
// Concurrent first callers wait for a single load.
func (c *DatasetCache) Features(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
	features, ok := c.LoadedFeatures()
	if ok {
		return features, nil
	}

	err := c.populate(ctx, c.featuresState, func() bool {
		_, ok := c.LoadedFeatures()
		return ok
	}, func(ctx context.Context) errorsx.Error {
		features, err := c.loadFeatures(ctx)
		if err != nil {
			return err
		}
		if features == nil {
			features = []*geoquiz.Feature{}
		}

		c.mu.Lock()
		c.features = features
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	features, _ = c.LoadedFeatures()
	return features, nil
}

// Raster returns the base map, loading it first if needed
func (c *DatasetCache) Raster(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error) {
	raster, ok := c.LoadedRaster()
	if ok {
		return raster, nil
	}

	err := c.populate(ctx, c.rasterState, func() bool {
		_, ok := c.LoadedRaster()
		return ok
	}, func(ctx context.Context) errorsx.Error {
		raster, err := c.loadRaster(ctx)
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.raster = raster
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	raster, _ = c.LoadedRaster()
	return raster, nil
}

// LoadedFeatures never blocks on a load. ok is false until the features have been loaded.
func (c *DatasetCache) LoadedFeatures() ([]*geoquiz.Feature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.features, c.features != nil
}

// LoadedRaster never blocks on a load. ok is false until the raster has been loaded.
func (c *DatasetCache) LoadedRaster() (*geoquiz.RasterImage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raster, c.raster != nil
}

func (c *DatasetCache) populate(ctx context.Context, state *resourceState, isLoaded func() bool, load func(ctx context.Context) errorsx.Error) errorsx.Error {
	state.loadMu.Lock()
	defer state.loadMu.Unlock()

	// another caller may have finished the load while we were waiting
	if isLoaded() {
		return nil
	}

	state.mu.Lock()
	state.status.Status = LoadStatusInProgress
	state.status.Attempts++
	state.mu.Unlock()

	startTime := time.Now()
	err := load(ctx)
	duration := time.Since(startTime)

	metrics.DatasetLoadDurationMs.WithLabelValues(state.name).Observe(float64(duration.Milliseconds()))

	state.mu.Lock()
	state.status.Duration = duration
	if err != nil {
		state.status.Status = LoadStatusFailed
		state.status.LastError = err.Error()
	} else {
		state.status.Status = LoadStatusDone
		state.status.LastError = ""
		state.status.LoadedAt = time.Now()
	}
	state.mu.Unlock()

	if err != nil {
		metrics.DatasetLoadFailuresTotal.WithLabelValues(state.name).Inc()
		c.logger.Error("failed to load %s after %v. Error: %q", state.name, duration, err.Error())
		return err
	}

	c.logger.Info("loaded %s in %v", state.name, duration)
	c.notifyIfLoaded()
	return nil
}

// Preload starts loading both resources in the background. Failed resources are retried.
func (c *DatasetCache) Preload() {
	go func() {
		// errors are logged and kept in the status
		c.Features(context.Background())
	}()
	go func() {
		c.Raster(context.Background())
	}()
}

// OnLoaded registers a function to be called once both resources are loaded.
// If they are already loaded, onLoaded is called straight away.
func (c *DatasetCache) OnLoaded(onLoaded func()) {
	c.listenersMu.Lock()
	if !c.Status().IsLoaded() {
		c.onLoaded = append(c.onLoaded, onLoaded)
		c.listenersMu.Unlock()
		return
	}
	c.listenersMu.Unlock()

	onLoaded()
}

func (c *DatasetCache) notifyIfLoaded() {
	c.listenersMu.Lock()
	if !c.Status().IsLoaded() {
		c.listenersMu.Unlock()
		return
	}
	listeners := c.onLoaded
	c.onLoaded = nil
	c.listenersMu.Unlock()

	for _, listener := range listeners {
		listener()
	}
}

func (c *DatasetCache) Status() DatasetStatus {
	features, _ := c.LoadedFeatures()

	return DatasetStatus{
		Features:     c.featuresState.getStatus(),
		Raster:       c.rasterState.getStatus(),
		FeatureCount: len(features),
	}
}
