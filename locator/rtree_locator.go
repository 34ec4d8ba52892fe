package locator

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
)

// minRectSide pads zero-width envelopes, since rtreego rejects them
const minRectSide = 1e-9

type featureEntry struct {
	index   int
	feature *geoquiz.Feature
	bbox    rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (e *featureEntry) Bounds() rtreego.Rect {
	return e.bbox
}

var _ Locator = &RTreeLocator{}

// RTreeLocator pre-filters features by envelope with an R-tree.
// Candidates are tested in dataset order, so it returns the same feature as LinearLocator.
type RTreeLocator struct {
	tree *rtreego.Rtree
	rule ContainmentRule
}

func NewRTreeLocator(features []*geoquiz.Feature, rule ContainmentRule) *RTreeLocator {
	var entries []rtreego.Spatial
	for i, feature := range features {
		bound := feature.Bound()

		bbox, err := rtreego.NewRect(
			rtreego.Point{bound.Min.Lon(), bound.Min.Lat()},
			[]float64{
				max(bound.Max.Lon()-bound.Min.Lon(), minRectSide),
				max(bound.Max.Lat()-bound.Min.Lat(), minRectSide),
			},
		)
		if err != nil {
			// unreachable with padded sides
			continue
		}

		entries = append(entries, &featureEntry{i, feature, bbox})
	}

	return &RTreeLocator{
		tree: rtreego.NewTree(2, 25, 50, entries...),
		rule: rule,
	}
}

func (l *RTreeLocator) Locate(point geoquiz.GeoPoint) (*geoquiz.Feature, bool) {
	queryPoint := rtreego.Point{point.Lon, point.Lat}

	results := l.tree.SearchIntersect(queryPoint.ToRect(minRectSide))
	if len(results) == 0 {
		return nil, false
	}

	candidates := make([]*featureEntry, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, result.(*featureEntry))
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].index < candidates[j].index
	})

	orbPoint := point.OrbPoint()
	for _, candidate := range candidates {
		if Contains(candidate.feature, orbPoint, l.rule) {
			return candidate.feature, true
		}
	}

	return nil, false
}
