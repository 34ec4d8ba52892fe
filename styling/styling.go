package styling

import (
	"image/color"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
)

const BUILTIN_STYLEID = "__geoquiz_builtin"

// LineStyle describes how a feature outline is drawn.
// A nil FillColor means the outline is not filled.
type LineStyle struct {
	FillColor color.Color
	LineColor color.Color
	// LineWidth is in pixels; 0 means "use the overlay stroke width"
	LineWidth float64
}

type LabelStyle struct {
	TextSize   int
	TextColor  color.Color
	Background color.Color
}

type Style interface {
	GetBackground() color.Color
	GetStyleID() string
	GetOutlineStyle() *LineStyle
	GetHighlightStyle() *LineStyle
	GetLabelStyle() *LabelStyle
}

type StyleSet struct {
	stylesMap      map[string]Style // map[Style ID]Style
	defaultStyleID string
}

func NewStyleSet(styles []Style, defaultStyleID string) (*StyleSet, errorsx.Error) {
	styleSet := &StyleSet{
		stylesMap:      make(map[string]Style),
		defaultStyleID: defaultStyleID,
	}

	defaultIDFound := false

	for _, style := range styles {
		styleID := style.GetStyleID()
		_, ok := styleSet.stylesMap[styleID]
		if ok {
			return nil, errorsx.Errorf("duplicate style ID found: %q", styleID)
		}

		styleSet.stylesMap[styleID] = style

		if defaultStyleID == styleID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied styles", defaultStyleID)
	}

	return styleSet, nil
}

// NewBuiltinStyleSet returns the styles that ship with the app, with the light style as default
func NewBuiltinStyleSet() *StyleSet {
	styleSet, err := NewStyleSet([]Style{&CustomBasicStyle{}, &DarkStyle{}}, BUILTIN_STYLEID)
	if err != nil {
		// the builtin styles are fixed, so this is a programming error
		panic(err)
	}

	return styleSet
}

func (s *StyleSet) GetStyleByID(id string) Style {
	return s.stylesMap[id]
}

func (s *StyleSet) GetDefaultStyle() Style {
	return s.stylesMap[s.defaultStyleID]
}

// GetStyleByIDOrDefault falls back to the default style for an empty or unknown ID
func (s *StyleSet) GetStyleByIDOrDefault(id string) Style {
	style, ok := s.stylesMap[id]
	if !ok {
		return s.GetDefaultStyle()
	}

	return style
}

// GetAllStyleIDs returns the style IDs, sorted
func (s *StyleSet) GetAllStyleIDs() []string {
	var styleIDs []string

	for id := range s.stylesMap {
		styleIDs = append(styleIDs, id)
	}

	sort.Strings(styleIDs)

	return styleIDs
}
