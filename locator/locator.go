package locator

import (
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Locator finds the feature containing a point. ok is false when no feature contains it (e.g. the sea).
type Locator interface {
	Locate(point geoquiz.GeoPoint) (feature *geoquiz.Feature, ok bool)
}

type ContainmentRule int

const (
	// ExteriorRingOnly tests only the outer ring of each polygon. Enclaves count as part of the surrounding feature.
	ExteriorRingOnly ContainmentRule = iota
	// RespectHoles excludes points that fall inside a polygon's inner rings
	RespectHoles
)

var containmentRuleNames = []string{
	"exterior-ring-only",
	"respect-holes",
}

func (r ContainmentRule) String() string {
	if r < 0 || int(r) >= len(containmentRuleNames) {
		return "Unknown"
	}
	return containmentRuleNames[r]
}

// ParseContainmentRule is the inverse of ContainmentRule.String
func ParseContainmentRule(name string) (ContainmentRule, bool) {
	for i, ruleName := range containmentRuleNames {
		if ruleName == name {
			return ContainmentRule(i), true
		}
	}
	return ExteriorRingOnly, false
}

// Contains tests a point against every polygon of the feature
func Contains(feature *geoquiz.Feature, point orb.Point, rule ContainmentRule) bool {
	if !feature.Bound().Contains(point) {
		return false
	}

	for _, polygon := range feature.Polygons() {
		if len(polygon) == 0 {
			continue
		}

		var contains bool
		switch rule {
		case RespectHoles:
			contains = planar.PolygonContains(polygon, point)
		default:
			contains = planar.RingContains(polygon[0], point)
		}

		if contains {
			return true
		}
	}

	return false
}

var _ Locator = &LinearLocator{}

// LinearLocator scans the features in dataset order and returns the first match
type LinearLocator struct {
	features []*geoquiz.Feature
	rule     ContainmentRule
}

func NewLinearLocator(features []*geoquiz.Feature, rule ContainmentRule) *LinearLocator {
	return &LinearLocator{features, rule}
}

func (l *LinearLocator) Locate(point geoquiz.GeoPoint) (*geoquiz.Feature, bool) {
	return Locate(point, l.features, l.rule)
}

// Locate is a linear scan, returning the first feature (in the given order) containing the point
func Locate(point geoquiz.GeoPoint, features []*geoquiz.Feature, rule ContainmentRule) (*geoquiz.Feature, bool) {
	orbPoint := point.OrbPoint()
	for _, feature := range features {
		if Contains(feature, orbPoint, rule) {
			return feature, true
		}
	}

	return nil, false
}
