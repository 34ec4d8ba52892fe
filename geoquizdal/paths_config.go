package geoquizdal

import (
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

const (
	DefaultDatasetFileName = "ne_50m_admin_0_countries.shp"
	DefaultRasterFileName  = "NE1_50M_SR_W.tif"
)

type PathsConfig struct {
	DataDir   string
	TempDir   string
	TracesDir string
}

func NewPathsConfig(baseDir string) *PathsConfig {
	return &PathsConfig{
		DataDir:   filepath.Join(baseDir, "data"),
		TempDir:   filepath.Join(baseDir, "tmp"),
		TracesDir: filepath.Join(baseDir, "traces"),
	}
}

func (pc *PathsConfig) EnsurePaths(fs gofs.Fs) errorsx.Error {
	for _, dirPath := range []string{pc.DataDir, pc.TempDir, pc.TracesDir} {
		err := fs.MkdirAll(dirPath, 0755)
		if err != nil {
			return errorsx.Wrap(err, "path", dirPath)
		}
	}

	return nil
}

// DefaultDatasetPath is the Natural Earth countries shapefile inside the data dir
func (pc *PathsConfig) DefaultDatasetPath() string {
	return filepath.Join(pc.DataDir, DefaultDatasetFileName)
}

// DefaultRasterPath is the Natural Earth shaded relief raster inside the data dir
func (pc *PathsConfig) DefaultRasterPath() string {
	return filepath.Join(pc.DataDir, DefaultRasterFileName)
}
