package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_lookups_total",
		Help: "Total number of point lookups, by outcome (found/not_found)",
	}, []string{"outcome"})
	LookupDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoquiz_lookup_duration_ms",
		Help:    "Point lookup duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	ResultCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_result_cache_hits_total",
		Help: "Total lookup result cache hits, by cache kind",
	}, []string{"cache"})
	ResultCacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_result_cache_misses_total",
		Help: "Total lookup result cache misses, by cache kind",
	}, []string{"cache"})
	DatasetLoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoquiz_dataset_load_duration_ms",
		Help:    "Duration of dataset loads in milliseconds, by resource (features/raster)",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"resource"})
	DatasetLoadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_dataset_load_failures_total",
		Help: "Total failed dataset loads, by resource (features/raster)",
	}, []string{"resource"})
	GeometriesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_geometries_skipped_total",
		Help: "Total features skipped while loading (non-polygonal or undecodable)",
	})
	GeometriesSimplifiedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_geometries_simplified_total",
		Help: "Total feature geometries replaced by a simplified version while loading",
	})
	BoundsWarningsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_bounds_warnings_total",
		Help: "Total features whose envelope lies outside the world bounds",
	})
	OverlayRebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_overlay_rebuilds_total",
		Help: "Total overlay rebuild attempts, by outcome (built/deferred/gave_up)",
	}, []string{"outcome"})
	MapRendersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_map_renders_total",
		Help: "Total rendered map images",
	})
	GuessesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_guesses_total",
		Help: "Total quiz guesses, by outcome (correct/wrong/too_late)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(LookupDurationMs)
	prometheus.MustRegister(ResultCacheHitsTotal)
	prometheus.MustRegister(ResultCacheMissesTotal)
	prometheus.MustRegister(DatasetLoadDurationMs)
	prometheus.MustRegister(DatasetLoadFailuresTotal)
	prometheus.MustRegister(GeometriesSkippedTotal)
	prometheus.MustRegister(GeometriesSimplifiedTotal)
	prometheus.MustRegister(BoundsWarningsTotal)
	prometheus.MustRegister(OverlayRebuildsTotal)
	prometheus.MustRegister(MapRendersTotal)
	prometheus.MustRegister(GuessesTotal)
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
