// Package config loads the cardforge configuration file.
//
// Configuration lives at ~/.config/cardforge/config.toml and provides
// defaults for the sheet geometry and the storage backend; every value can
// be overridden by a CLI flag. A missing file yields the defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cardforge/cardforge/pkg/errors"
	"github.com/cardforge/cardforge/pkg/storage"
)

// Sheet holds the default print geometry.
type Sheet struct {
	WidthMm  float64 `toml:"width_mm"`
	HeightMm float64 `toml:"height_mm"`
	PxPerMm  float64 `toml:"px_per_mm"`
}

// Grid holds the default N-up layout parameters.
type Grid struct {
	Cols     int     `toml:"cols"`
	Rows     int     `toml:"rows"`
	GapMm    float64 `toml:"gap_mm"`
	MarginMm float64 `toml:"margin_mm"`
}

// Config is the full configuration.
type Config struct {
	Sheet   Sheet          `toml:"sheet"`
	Grid    Grid           `toml:"grid"`
	Storage storage.Config `toml:"storage"`
}

// Default returns the built-in configuration: an A4 sheet at 10 px/mm with
// a 2x4 card grid and file storage under the user config directory.
func Default() Config {
	return Config{
		Sheet: Sheet{WidthMm: 210, HeightMm: 297, PxPerMm: 10},
		Grid:  Grid{Cols: 2, Rows: 4, GapMm: 2, MarginMm: 10},
		Storage: storage.Config{
			Backend: "file",
			Dir:     filepath.Join(Dir(), "templates"),
		},
	}
}

// Dir returns the cardforge configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "cardforge")
}

// Path returns the default configuration file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the configuration at path, falling back to Default when the
// file does not exist. An empty path means the default location.
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInternal, err, "read config")
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeParseFailure, err, "parse config %s", path)
	}
	return cfg, nil
}
