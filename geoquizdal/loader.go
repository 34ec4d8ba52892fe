package geoquizdal

import (
	"context"
	"os"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
)

const (
	DefaultSimplifyVertexThreshold = 1000
	DefaultSimplifyTolerance       = 0.01
)

type LoaderOptions struct {
	// geometries with more vertices than this are simplified
	SimplifyVertexThreshold int
	// in source coordinate units (degrees)
	SimplifyTolerance float64
}

func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		SimplifyVertexThreshold: DefaultSimplifyVertexThreshold,
		SimplifyTolerance:       DefaultSimplifyTolerance,
	}
}

// FeatureLoader reads a boundary dataset into named polygonal features
type FeatureLoader struct {
	logger     *logpkg.Logger
	fs         gofs.Fs
	openSource OpenSourceFunc
	options    LoaderOptions
}

func NewFeatureLoader(logger *logpkg.Logger, fs gofs.Fs, openSource OpenSourceFunc, options LoaderOptions) *FeatureLoader {
	return &FeatureLoader{logger, fs, openSource, options}
}

// Load reads every polygonal feature of the dataset, in dataset order.
// Per-feature problems are logged and the feature skipped; only failing to open the dataset is an error.
func (l *FeatureLoader) Load(ctx context.Context, connURL DatasetConnectionURL) ([]*geoquiz.Feature, errorsx.Error) {
	startTime := time.Now()

	if connURL.IsFileBased() {
		_, err := l.fs.Stat(connURL.ConnectionPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errorsx.Wrap(geoquiz.ErrMissingResource, "path", connURL.ConnectionPath)
			}
			return nil, errorsx.Wrap(geoquiz.ErrUnreadableFormat, "path", connURL.ConnectionPath, "cause", err.Error())
		}
	}

	source, err := l.openSource(connURL)
	if err != nil {
		if errorsx.Cause(err) == geoquiz.ErrMissingResource {
			return nil, err
		}
		return nil, errorsx.Wrap(geoquiz.ErrUnreadableFormat, "dataset", connURL.String(), "cause", err.Error())
	}
	defer func() {
		closeErr := source.Close()
		if closeErr != nil {
			l.logger.Warn("failed to close dataset %q. Error: %q", source.Name(), closeErr.Error())
		}
	}()

	var features []*geoquiz.Feature
	err = source.Iterate(ctx, func(rawFeature *RawFeature) errorsx.Error {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return errorsx.Wrap(ctxErr)
		}

		feature := l.toFeature(source.Name(), rawFeature)
		if feature != nil {
			features = append(features, feature)
		}
		return nil
	})
	if err != nil {
		switch errorsx.Cause(err) {
		case context.Canceled, context.DeadlineExceeded, geoquiz.ErrUnreadableFormat:
			return nil, err
		default:
			return nil, errorsx.Wrap(geoquiz.ErrUnreadableFormat, "dataset", connURL.String(), "cause", err.Error())
		}
	}

	l.logger.Info("Loaded %d countries from %q in %v", len(features), source.Name(), time.Since(startTime))
	if len(features) > 0 {
		bound := features[0].Bound()
		l.logger.Info("sample geometry bounds (%s): lon [%f, %f], lat [%f, %f]", features[0].Name, bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
	}

	return features, nil
}

// toFeature validates, simplifies and names a raw feature. nil means the feature was skipped.
func (l *FeatureLoader) toFeature(sourceName string, rawFeature *RawFeature) *geoquiz.Feature {
	if rawFeature.Err != nil {
		l.logger.Warn("skipping feature %d of %q: could not be decoded. Error: %q", rawFeature.Index, sourceName, rawFeature.Err.Error())
		metrics.GeometriesSkippedTotal.Inc()
		return nil
	}

	geometry, ok := polygonalGeometry(rawFeature.Geometry)
	if !ok {
		l.logger.Debug("skipping feature %d of %q: geometry is not polygonal (%T)", rawFeature.Index, sourceName, rawFeature.Geometry)
		metrics.GeometriesSkippedTotal.Inc()
		return nil
	}

	bound := geometry.Bound()
	if !geoquiz.IsWithinWorldBounds(bound) {
		l.logger.Warn("feature %d of %q lies outside the world bounds: lon [%f, %f], lat [%f, %f]", rawFeature.Index, sourceName, bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
		metrics.BoundsWarningsTotal.Inc()
	}

	if geoquiz.CountPoints(geometry) > l.options.SimplifyVertexThreshold {
		geometry = SimplifyGeometry(geometry, l.options.SimplifyTolerance)
		metrics.GeometriesSimplifiedTotal.Inc()
	}

	return &geoquiz.Feature{
		Name:     geoquiz.ResolveFeatureName(rawFeature.Attributes),
		Geometry: geometry,
	}
}

// polygonalGeometry accepts non-empty polygons and multipolygons
func polygonalGeometry(geometry orb.Geometry) (orb.Geometry, bool) {
	switch g := geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return nil, false
		}
		return g, true
	case orb.MultiPolygon:
		var polygons orb.MultiPolygon
		for _, polygon := range g {
			if len(polygon) == 0 || len(polygon[0]) == 0 {
				continue
			}
			polygons = append(polygons, polygon)
		}
		if len(polygons) == 0 {
			return nil, false
		}
		return polygons, true
	default:
		return nil, false
	}
}
