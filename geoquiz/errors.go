package geoquiz

import "errors"

// Error causes. Wrap with errorsx and test with errorsx.Cause(err) == ErrX.
var (
	ErrMissingResource  = errors.New("missing resource")
	ErrUnreadableFormat = errors.New("unreadable dataset format")
	ErrUnreadableRaster = errors.New("unreadable raster")
	ErrDegenerateFrame  = errors.New("display frame has no area")
	ErrDatasetNotLoaded = errors.New("dataset not loaded yet")
)

// UnknownName is used when a feature has no usable name, and as the label for clicks outside every feature
const UnknownName = "Unknown"
