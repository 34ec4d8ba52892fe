package geoquizdal

import (
	"bytes"
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(featuresLoad FeaturesLoadFunc, rasterLoad RasterLoadFunc) *DatasetCache {
	return NewDatasetCache(logpkg.NewLogger(new(bytes.Buffer), logpkg.LogLevelDebug), featuresLoad, rasterLoad)
}

func staticRasterLoad(ctx context.Context) (*geoquiz.RasterImage, errorsx.Error) {
	return geoquiz.NewRasterImage(image.NewRGBA(image.Rect(0, 0, 360, 180))), nil
}

func TestDatasetCache_atMostOnceLoad(t *testing.T) {
	var loadCount int32
	cache := newTestCache(func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
		atomic.AddInt32(&loadCount, 1)
		time.Sleep(50 * time.Millisecond)
		return []*geoquiz.Feature{{Name: "Testland", Geometry: square(-10, -10, 10, 10)}}, nil
	}, staticRasterLoad)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			features, err := cache.Features(context.Background())
			assert.NoError(t, err)
			assert.Len(t, features, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCount))

	_, err := cache.Features(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loadCount))

	status := cache.Status()
	assert.Equal(t, LoadStatusDone, status.Features.Status)
	assert.Equal(t, LoadStatusNotStarted, status.Raster.Status)
	assert.Equal(t, 1, status.FeatureCount)
}

func TestDatasetCache_retryAfterFailure(t *testing.T) {
	var loadCount int32
	cache := newTestCache(func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
		if atomic.AddInt32(&loadCount, 1) == 1 {
			return nil, errorsx.Wrap(geoquiz.ErrUnreadableFormat)
		}
		return []*geoquiz.Feature{}, nil
	}, staticRasterLoad)

	_, err := cache.Features(context.Background())
	require.Error(t, err)
	assert.Equal(t, geoquiz.ErrUnreadableFormat, errorsx.Cause(err))

	status := cache.Status().Features
	assert.Equal(t, LoadStatusFailed, status.Status)
	assert.NotEmpty(t, status.LastError)

	_, ok := cache.LoadedFeatures()
	assert.False(t, ok)

	features, err := cache.Features(context.Background())
	require.NoError(t, err)
	assert.Empty(t, features)

	_, ok = cache.LoadedFeatures()
	assert.True(t, ok)

	status = cache.Status().Features
	assert.Equal(t, LoadStatusDone, status.Status)
	assert.Equal(t, 2, status.Attempts)
	assert.Empty(t, status.LastError)
}

func TestDatasetCache_PreloadAndOnLoaded(t *testing.T) {
	cache := newTestCache(func(ctx context.Context) ([]*geoquiz.Feature, errorsx.Error) {
		return []*geoquiz.Feature{{Name: "Testland", Geometry: square(-10, -10, 10, 10)}}, nil
	}, staticRasterLoad)

	loadedChan := make(chan struct{})
	cache.OnLoaded(func() {
		close(loadedChan)
	})

	cache.Preload()

	select {
	case <-loadedChan:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the dataset to load")
	}

	assert.True(t, cache.Status().IsLoaded())

	raster, ok := cache.LoadedRaster()
	require.True(t, ok)
	assert.Equal(t, 360, raster.Width)

	calledImmediately := false
	cache.OnLoaded(func() {
		calledImmediately = true
	})
	assert.True(t, calledImmediately)
}

func TestLoadStatus_String(t *testing.T) {
	tests := []struct {
		status LoadStatus
		want   string
	}{
		{LoadStatusNotStarted, "Not Started"},
		{LoadStatusFailed, "Failed"},
		{LoadStatus(-1), "Unknown"},
		{LoadStatus(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}
