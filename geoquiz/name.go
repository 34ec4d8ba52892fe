package geoquiz

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Attribute is one non-spatial field of a source feature.
// Attributes are kept as an ordered list (not a map) so that the fallback name is deterministic.
type Attribute struct {
	Key   string
	Value interface{}
}

// NameAttributeKeys are tried in order when naming a feature
var NameAttributeKeys = []string{"NAME", "NAME_LONG", "ADMIN", "SOVEREIGNT", "NAME_EN", "name", "admin"}

// ResolveFeatureName picks a display name for a feature. The result is never empty.
func ResolveFeatureName(attributes []Attribute) string {
	for _, key := range NameAttributeKeys {
		for _, attribute := range attributes {
			if attribute.Key != key {
				continue
			}

			value := attributeValueString(attribute.Value)
			if value != "" {
				return value
			}
		}
	}

	for _, attribute := range attributes {
		if _, isGeometry := attribute.Value.(orb.Geometry); isGeometry {
			continue
		}

		value := attributeValueString(attribute.Value)
		if value != "" {
			return value
		}
	}

	return UnknownName
}

func attributeValueString(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
