// Package config loads the optional crosssection configuration file.
//
// The file is TOML and holds defaults for the CLI flags:
//
//	[render]
//	width = 600
//	height = 600
//	style = "sunburst"
//	formats = ["svg", "png"]
//
//	[render.colors]
//	Europe = "#4c78a8"
//
//	[serve]
//	addr = ":8080"
//	redis = "redis://localhost:6379/0"
//
// Flags given on the command line always win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/crosssection/pkg/errors"
)

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// Config is the decoded config file.
type Config struct {
	Render Render `toml:"render"`
	Serve  Serve  `toml:"serve"`
	Cache  Cache  `toml:"cache"`
}

// Render holds defaults for the render, layout, tree and watch commands.
type Render struct {
	Width        float64           `toml:"width" validate:"gte=0"`
	Height       float64           `toml:"height" validate:"gte=0"`
	Donut        bool              `toml:"donut"`
	DonutHole    float64           `toml:"donut_hole" validate:"gte=0,lt=1"`
	MarginFactor float64           `toml:"margin_factor" validate:"gte=0,lte=1"`
	ZeroPolicy   string            `toml:"zero_policy" validate:"omitempty,oneof=zero-width skip error"`
	Style        string            `toml:"style" validate:"omitempty,oneof=disk sunburst"`
	Formats      []string          `toml:"formats" validate:"dive,oneof=svg png pdf json x3d stl mesh dot"`
	Columns      int               `toml:"columns" validate:"gte=0,lte=64"`
	Scale        float64           `toml:"scale" validate:"gte=0,lte=8"`
	Colors       map[string]string `toml:"colors" validate:"dive,keys,required,endkeys,hexcolor"`
}

// Serve holds defaults for the serve command.
type Serve struct {
	Addr         string `toml:"addr" validate:"omitempty,hostname_port"`
	Redis        string `toml:"redis" validate:"omitempty,url"`
	RedisPrefix  string `toml:"redis_prefix"`
	MaxBodyBytes int64  `toml:"max_body_bytes" validate:"gte=0"`
}

// Cache holds local cache settings.
type Cache struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Dir returns the config directory, $XDG_CONFIG_HOME/<app> or
// ~/.config/<app>.
func Dir(app string) (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, app), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", app), nil
}

// DefaultPath returns the path of the config file for app.
func DefaultPath(app string) (string, error) {
	dir, err := Dir(app)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config at path. A missing file is not an error unless
// required is set; it yields the zero Config.
func Load(path string, required bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML data into cfg and validates it. Unknown keys are
// rejected.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown config key: %s", undecoded[0])
	}
	if err := structValidator.Struct(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid config")
	}
	return nil
}
