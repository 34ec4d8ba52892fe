package locator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisKeyPrefix(t *testing.T) {
	base := []string{"shapefile:///data/countries.shp", "1000", "0.01", ExteriorRingOnly.String()}

	prefix := RedisKeyPrefix("geoquiz:lookup:", base...)
	assert.True(t, strings.HasPrefix(prefix, "geoquiz:lookup:"))
	assert.True(t, strings.HasSuffix(prefix, ":"))
	assert.Equal(t, prefix, RedisKeyPrefix("geoquiz:lookup:", base...))

	tests := []struct {
		name     string
		identity []string
	}{
		{"other dataset", []string{"geojson:///data/countries.geojson", "1000", "0.01", ExteriorRingOnly.String()}},
		{"other simplify threshold", []string{"shapefile:///data/countries.shp", "500", "0.01", ExteriorRingOnly.String()}},
		{"other simplify tolerance", []string{"shapefile:///data/countries.shp", "1000", "0.05", ExteriorRingOnly.String()}},
		{"other containment rule", []string{"shapefile:///data/countries.shp", "1000", "0.01", RespectHoles.String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, prefix, RedisKeyPrefix("geoquiz:lookup:", tt.identity...))
		})
	}

	t.Run("parts are not simply concatenated", func(t *testing.T) {
		assert.NotEqual(t, RedisKeyPrefix("p:", "ab", "c"), RedisKeyPrefix("p:", "a", "bc"))
	})
}
