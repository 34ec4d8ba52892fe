package geoquizdal

import (
	"bytes"
	"context"
	"testing"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	failOnName string
	features   []*geoquiz.Feature
	committed  bool
	rolledBack bool
}

func (s *memoryStorage) ImportFeature(feature *geoquiz.Feature) errorsx.Error {
	if feature.Name == s.failOnName {
		return errorsx.Errorf("disk full")
	}
	s.features = append(s.features, feature)
	return nil
}

func (s *memoryStorage) Commit() errorsx.Error {
	s.committed = true
	return nil
}

func (s *memoryStorage) Rollback() errorsx.Error {
	s.rolledBack = true
	return nil
}

func TestImport(t *testing.T) {
	logger := logpkg.NewLogger(new(bytes.Buffer), logpkg.LogLevelInfo)

	newSource := func() *memorySource {
		return &memorySource{rawFeatures: []*RawFeature{
			{Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "A"}}, Geometry: square(0, 0, 1, 1)},
			{Attributes: []geoquiz.Attribute{{Key: "NAME", Value: "B"}}, Geometry: square(5, 5, 6, 6)},
		}}
	}

	t.Run("success", func(t *testing.T) {
		storage := &memoryStorage{}
		count, err := Import(context.Background(), logger, newTestLoader(t, newSource()), testConnURL, storage)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, storage.features, 2)
		assert.True(t, storage.committed)
		assert.False(t, storage.rolledBack)
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		storage := &memoryStorage{failOnName: "B"}
		_, err := Import(context.Background(), logger, newTestLoader(t, newSource()), testConnURL, storage)
		require.Error(t, err)
		assert.False(t, storage.committed)
		assert.True(t, storage.rolledBack)
	})
}
