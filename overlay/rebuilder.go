package overlay

import (
	"sync"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/logpkg"
)

// DatasetProvider gives non-blocking access to the loaded dataset
type DatasetProvider interface {
	LoadedFeatures() ([]*geoquiz.Feature, bool)
	LoadedRaster() (*geoquiz.RasterImage, bool)
}

type RebuildConfig struct {
	// resize notifications closer together than this collapse into one rebuild
	DebounceWindow time.Duration
	// delay between attempts while the dataset is still loading
	RetryDelay time.Duration
	MaxRetries int
	Options    BuildOptions
}

func DefaultRebuildConfig() RebuildConfig {
	return RebuildConfig{
		DebounceWindow: 100 * time.Millisecond,
		RetryDelay:     500 * time.Millisecond,
		MaxRetries:     20,
		Options:        DefaultBuildOptions(),
	}
}

type Overlay struct {
	Frame     geoquiz.DisplayFrame      `json:"frame"`
	Polylines []geoquiz.OverlayPolyline `json:"polylines"`
}

type OnRebuiltFunc func(overlay *Overlay)

// Rebuilder regenerates the overlay when the display is resized.
// Rebuilds are deferred until the frame is renderable, and retried a bounded number of times while the dataset loads.
type Rebuilder struct {
	logger    *logpkg.Logger
	provider  DatasetProvider
	config    RebuildConfig
	onRebuilt OnRebuiltFunc

	mu         *sync.Mutex
	frame      geoquiz.DisplayFrame
	generation int
	timer      *time.Timer
	latest     *Overlay
}

func NewRebuilder(logger *logpkg.Logger, provider DatasetProvider, config RebuildConfig, onRebuilt OnRebuiltFunc) *Rebuilder {
	return &Rebuilder{
		logger:    logger,
		provider:  provider,
		config:    config,
		onRebuilt: onRebuilt,
		mu:        new(sync.Mutex),
	}
}

// Resize records the new frame and schedules a rebuild after the debounce window
func (r *Rebuilder) Resize(frame geoquiz.DisplayFrame) {
	r.schedule(frame, r.config.DebounceWindow)
}

// Refresh rebuilds for the current frame straight away, e.g. once the dataset has loaded
func (r *Rebuilder) Refresh() {
	r.mu.Lock()
	frame := r.frame
	r.mu.Unlock()

	r.schedule(frame, 0)
}

func (r *Rebuilder) schedule(frame geoquiz.DisplayFrame, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frame = frame
	r.generation++
	generation := r.generation

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(delay, func() {
		r.rebuild(generation, 1)
	})
}

func (r *Rebuilder) rebuild(generation, attempt int) {
	r.mu.Lock()
	if generation != r.generation {
		// superseded by a later resize
		r.mu.Unlock()
		return
	}
	frame := r.frame
	r.mu.Unlock()

	if !frame.IsRenderable() {
		r.logger.Debug("overlay rebuild deferred: frame %vx%v is not renderable yet", frame.Width, frame.Height)
		metrics.OverlayRebuildsTotal.WithLabelValues("deferred").Inc()
		return
	}

	features, featuresLoaded := r.provider.LoadedFeatures()
	raster, rasterLoaded := r.provider.LoadedRaster()
	if !featuresLoaded || !rasterLoaded {
		if attempt >= r.config.MaxRetries {
			r.logger.Warn("overlay rebuild gave up after %d attempts: dataset not loaded", attempt)
			metrics.OverlayRebuildsTotal.WithLabelValues("gave_up").Inc()
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if generation != r.generation {
			return
		}
		r.timer = time.AfterFunc(r.config.RetryDelay, func() {
			r.rebuild(generation, attempt+1)
		})
		return
	}

	overlay := &Overlay{
		Frame:     frame,
		Polylines: Build(features, raster.Width, raster.Height, frame, r.config.Options),
	}

	r.mu.Lock()
	if generation != r.generation {
		r.mu.Unlock()
		return
	}
	r.latest = overlay
	r.mu.Unlock()

	metrics.OverlayRebuildsTotal.WithLabelValues("built").Inc()
	r.logger.Debug("overlay rebuilt: %d polylines for frame %vx%v", len(overlay.Polylines), frame.Width, frame.Height)

	if r.onRebuilt != nil {
		r.onRebuilt(overlay)
	}
}

// Latest returns the most recently built overlay, if any
func (r *Rebuilder) Latest() (*Overlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest, r.latest != nil
}

// Stop cancels any pending rebuild
func (r *Rebuilder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	if r.timer != nil {
		r.timer.Stop()
	}
}
