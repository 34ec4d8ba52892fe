package geoquizdal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	rawFeatures []*RawFeature
	closed      bool
}

func (s *memorySource) Name() string {
	return "memory"
}

func (s *memorySource) Iterate(ctx context.Context, onFeature OnRawFeatureFunc) errorsx.Error {
	for _, rawFeature := range s.rawFeatures {
		err := onFeature(rawFeature)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *memorySource) Close() errorsx.Error {
	s.closed = true
	return nil
}

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat}}}
}

func newTestLoader(t *testing.T, source FeatureSource) *FeatureLoader {
	return newTestLoaderWithLog(t, source, new(bytes.Buffer))
}

func newTestLoaderWithLog(t *testing.T, source FeatureSource, logBuffer *bytes.Buffer) *FeatureLoader {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.MkdirAll("/data", 0755))
	require.NoError(t, fs.WriteFile("/data/countries.geojson", []byte("{}"), 0644))

	openSource := func(connURL DatasetConnectionURL) (FeatureSource, errorsx.Error) {
		if source == nil {
			return nil, errorsx.Errorf("corrupt header")
		}
		return source, nil
	}

	return NewFeatureLoader(logpkg.NewLogger(logBuffer, logpkg.LogLevelDebug), fs, openSource, DefaultLoaderOptions())
}

var testConnURL = DatasetConnectionURL{Type: DatasetTypeGeoJSON, ConnectionPath: "/data/countries.geojson"}

func TestFeatureLoader_Load(t *testing.T) {
	bigRing := circleRing(orb.Point{20, 20}, 5, 1200)
	smallRing := circleRing(orb.Point{-20, -20}, 5, 999)

	source := &memorySource{rawFeatures: []*RawFeature{
		{Index: 0, Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "Testland"}}, Geometry: square(-10, -10, 10, 10)},
		{Index: 1, Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "Line"}}, Geometry: orb.LineString{{0, 0}, {1, 1}}},
		{Index: 2, Err: errors.New("bad record")},
		{Index: 3, Attributes: []geoquiz.Attribute{{Key: "ADMIN", Value: "Bigland"}}, Geometry: orb.Polygon{bigRing}},
		{Index: 4, Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "Smallland"}}, Geometry: orb.MultiPolygon{{smallRing}}},
		{Index: 5, Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "Outland"}}, Geometry: square(170, 0, 185, 10)},
		{Index: 6, Geometry: square(0, 50, 1, 51)},
	}}

	logBuffer := new(bytes.Buffer)
	boundsWarningsBefore := testutil.ToFloat64(metrics.BoundsWarningsTotal)

	features, err := newTestLoaderWithLog(t, source, logBuffer).Load(context.Background(), testConnURL)
	require.NoError(t, err)
	assert.True(t, source.closed)

	var names []string
	for _, feature := range features {
		names = append(names, feature.Name)
	}
	assert.Equal(t, []string{"Testland", "Bigland", "Smallland", "Outland", geoquiz.UnknownName}, names)

	t.Run("over the threshold is simplified", func(t *testing.T) {
		bigland := features[1]
		assert.Less(t, geoquiz.CountPoints(bigland.Geometry), len(bigRing))
		assert.InDelta(t, 15, bigland.Bound().Min.Lon(), 0.02)
		assert.InDelta(t, 25, bigland.Bound().Max.Lon(), 0.02)
	})

	t.Run("under the threshold is unchanged", func(t *testing.T) {
		assert.Equal(t, orb.MultiPolygon{{smallRing}}, features[2].Geometry)
	})

	t.Run("outside world bounds is kept", func(t *testing.T) {
		assert.Equal(t, square(170, 0, 185, 10), features[3].Geometry)

		assert.Contains(t, logBuffer.String(), "feature 5 of")
		assert.Contains(t, logBuffer.String(), "lies outside the world bounds")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BoundsWarningsTotal)-boundsWarningsBefore)
	})
}

func TestFeatureLoader_Load_errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := newTestLoader(t, &memorySource{}).Load(context.Background(), DatasetConnectionURL{Type: DatasetTypeGeoJSON, ConnectionPath: "/data/missing.geojson"})
		require.Error(t, err)
		assert.Equal(t, geoquiz.ErrMissingResource, errorsx.Cause(err))
	})

	t.Run("cannot open", func(t *testing.T) {
		_, err := newTestLoader(t, nil).Load(context.Background(), testConnURL)
		require.Error(t, err)
		assert.Equal(t, geoquiz.ErrUnreadableFormat, errorsx.Cause(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		source := &memorySource{rawFeatures: []*RawFeature{{Geometry: square(0, 0, 1, 1)}}}
		_, err := newTestLoader(t, source).Load(ctx, testConnURL)
		require.Error(t, err)
		assert.Equal(t, context.Canceled, errorsx.Cause(err))
	})
}
