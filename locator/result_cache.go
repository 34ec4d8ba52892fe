package locator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
)

const (
	// cache keys are coordinates rounded to this many degrees
	QuantizationStep = 0.001

	notFoundIndex = -1
)

// ResultCache stores lookup results by quantised coordinate. A stored index of -1 means "not found".
type ResultCache interface {
	Kind() string
	Get(ctx context.Context, key string) (featureIndex int, hit bool, err errorsx.Error)
	Set(ctx context.Context, key string, featureIndex int) errorsx.Error
}

// QuantizePoint snaps a point to the centre of its cache cell
func QuantizePoint(point geoquiz.GeoPoint) geoquiz.GeoPoint {
	return geoquiz.GeoPoint{
		Lon: math.Round(point.Lon/QuantizationStep) * QuantizationStep,
		Lat: math.Round(point.Lat/QuantizationStep) * QuantizationStep,
	}
}

func CacheKey(point geoquiz.GeoPoint) string {
	return fmt.Sprintf("%d:%d", int64(math.Round(point.Lon/QuantizationStep)), int64(math.Round(point.Lat/QuantizationStep)))
}

// CellBound is the box of points that share point's cache key
func CellBound(point geoquiz.GeoPoint) orb.Bound {
	centre := QuantizePoint(point)
	half := QuantizationStep / 2
	return orb.Bound{
		Min: orb.Point{centre.Lon - half, centre.Lat - half},
		Max: orb.Point{centre.Lon + half, centre.Lat + half},
	}
}

var _ Locator = &CachedLocator{}

// CachedLocator answers repeated lookups of the same cell from a ResultCache.
// The wrapped locator is always asked about the exact point. A result is only stored when no feature
// boundary crosses the point's cell, so every point of a stored cell has the same answer.
// Cache errors are logged and the lookup falls through to the wrapped locator.
type CachedLocator struct {
	logger       *logpkg.Logger
	locator      Locator
	features     []*geoquiz.Feature
	bounds       []orb.Bound
	indexes      map[*geoquiz.Feature]int
	cache        ResultCache
	cacheTimeout time.Duration
}

func NewCachedLocator(logger *logpkg.Logger, locator Locator, features []*geoquiz.Feature, cache ResultCache) *CachedLocator {
	indexes := make(map[*geoquiz.Feature]int, len(features))
	bounds := make([]orb.Bound, len(features))
	for i, feature := range features {
		indexes[feature] = i
		bounds[i] = feature.Bound()
	}

	return &CachedLocator{logger, locator, features, bounds, indexes, cache, time.Second}
}

func (l *CachedLocator) Locate(point geoquiz.GeoPoint) (*geoquiz.Feature, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cacheTimeout)
	defer cancel()

	key := CacheKey(point)

	featureIndex, hit, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("result cache %q get failed for key %q. Error: %q", l.cache.Kind(), key, err.Error())
	}

	if hit && featureIndex >= notFoundIndex && featureIndex < len(l.features) {
		metrics.ResultCacheHitsTotal.WithLabelValues(l.cache.Kind()).Inc()
		if featureIndex == notFoundIndex {
			return nil, false
		}
		return l.features[featureIndex], true
	}

	metrics.ResultCacheMissesTotal.WithLabelValues(l.cache.Kind()).Inc()

	feature, ok := l.locator.Locate(point)

	if l.isBorderCell(CellBound(point)) {
		return feature, ok
	}

	featureIndex = notFoundIndex
	if ok {
		featureIndex = l.indexes[feature]
	}

	err = l.cache.Set(ctx, key, featureIndex)
	if err != nil {
		l.logger.Warn("result cache %q set failed for key %q. Error: %q", l.cache.Kind(), key, err.Error())
	}

	return feature, ok
}

// isBorderCell reports whether any ring of any feature touches the cell
func (l *CachedLocator) isBorderCell(cell orb.Bound) bool {
	for i, feature := range l.features {
		if !l.bounds[i].Intersects(cell) {
			continue
		}

		for _, polygon := range feature.Polygons() {
			for _, ring := range polygon {
				for j := 0; j+1 < len(ring); j++ {
					if segmentTouchesBound(ring[j], ring[j+1], cell) {
						return true
					}
				}
			}
		}
	}

	return false
}

// segmentTouchesBound is a separating axis test between a segment and a box (edges included)
func segmentTouchesBound(a, b orb.Point, bound orb.Bound) bool {
	if math.Max(a.X(), b.X()) < bound.Min.X() || math.Min(a.X(), b.X()) > bound.Max.X() {
		return false
	}
	if math.Max(a.Y(), b.Y()) < bound.Min.Y() || math.Min(a.Y(), b.Y()) > bound.Max.Y() {
		return false
	}

	corners := []orb.Point{
		bound.Min,
		{bound.Max.X(), bound.Min.Y()},
		bound.Max,
		{bound.Min.X(), bound.Max.Y()},
	}

	var hasPositive, hasNegative bool
	for _, corner := range corners {
		side := (b.X()-a.X())*(corner.Y()-a.Y()) - (b.Y()-a.Y())*(corner.X()-a.X())
		switch {
		case side > 0:
			hasPositive = true
		case side < 0:
			hasNegative = true
		default:
			// corner on the segment's line
			return true
		}
	}

	return hasPositive && hasNegative
}
