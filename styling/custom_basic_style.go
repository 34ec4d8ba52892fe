package styling

import (
	"image/color"
)

// OutlineColor is black at 60% opacity
var OutlineColor = color.NRGBA{R: 0, G: 0, B: 0, A: 153}

// CustomBasicStyle draws dark outlines over the base map
type CustomBasicStyle struct{}

func (_ *CustomBasicStyle) GetBackground() color.Color {
	return color.White
}

func (_ *CustomBasicStyle) GetStyleID() string {
	return BUILTIN_STYLEID
}

func (_ *CustomBasicStyle) GetOutlineStyle() *LineStyle {
	return &LineStyle{
		LineColor: OutlineColor,
	}
}

func (_ *CustomBasicStyle) GetHighlightStyle() *LineStyle {
	return &LineStyle{
		FillColor: color.NRGBA{R: 255, G: 200, B: 0, A: 128},
		LineColor: color.NRGBA{R: 200, G: 0, B: 0, A: 255},
		LineWidth: 2,
	}
}

func (_ *CustomBasicStyle) GetLabelStyle() *LabelStyle {
	return &LabelStyle{
		TextSize:   16,
		TextColor:  color.Black,
		Background: color.White,
	}
}

const DarkStyleID = "dark"

// DarkStyle is for dark base maps, such as night-time imagery
type DarkStyle struct{}

func (_ *DarkStyle) GetBackground() color.Color {
	return color.Black
}

func (_ *DarkStyle) GetStyleID() string {
	return DarkStyleID
}

func (_ *DarkStyle) GetOutlineStyle() *LineStyle {
	return &LineStyle{
		LineColor: color.NRGBA{R: 255, G: 255, B: 255, A: 153},
	}
}

func (_ *DarkStyle) GetHighlightStyle() *LineStyle {
	return &LineStyle{
		FillColor: color.NRGBA{R: 0, G: 160, B: 255, A: 128},
		LineColor: color.NRGBA{R: 0, G: 220, B: 255, A: 255},
		LineWidth: 2,
	}
}

func (_ *DarkStyle) GetLabelStyle() *LabelStyle {
	return &LabelStyle{
		TextSize:   16,
		TextColor:  color.White,
		Background: color.Black,
	}
}
