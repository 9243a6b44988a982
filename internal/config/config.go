// Package config loads the LocalSketch TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"LocalSketch/internal/state"
)

// Config is the whole configuration file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Sync    SyncConfig    `toml:"sync"`
	Sketch  SketchConfig  `toml:"sketch"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig locates the local persistence file. An empty path keeps
// the board in memory only.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SyncConfig controls the shared remote store.
type SyncConfig struct {
	// HubListen is the address a host serves the hub on.
	HubListen string `toml:"hub_listen"`
	// HubURL joins an existing hub instead of hosting one.
	HubURL         string `toml:"hub_url"`
	RemotePath     string `toml:"remote_path"`
	DedupOnReceive bool   `toml:"dedup_on_receive"`
	// Discover looks for a hub over mDNS when HubURL is empty.
	Discover bool `toml:"discover"`
}

// SketchConfig tunes stroke handling.
type SketchConfig struct {
	CircleTolerance float64 `toml:"circle_tolerance"`
	CirclePoints    int     `toml:"circle_points"`
	Background      string  `toml:"background"`
}

// CanvasConfig sizes the drawing surface in pixels.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{Path: "${XDG_DATA_HOME:-~/.local/share}/localsketch/board.json"},
		Sync: SyncConfig{
			HubListen:  ":8888",
			RemotePath: "strokes/current",
		},
		Sketch: SketchConfig{
			CircleTolerance: state.DefaultCircleTolerance,
			CirclePoints:    state.DefaultCirclePoints,
			Background:      state.DefaultBackground,
		},
		Canvas: CanvasConfig{Width: 1200, Height: 800},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultPath is where the config file is looked for when none is named.
func DefaultPath() string {
	return expandHome(ExpandEnv("${XDG_CONFIG_HOME:-~/.config}/localsketch/config.toml"))
}

// Load reads the file at path over the defaults, expands environment
// references and validates the result. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		state.Logger().Info("no config file, using defaults", "component", "config", "path", path)
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if cfg, err = Parse(data); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	ExpandEnvConfig(&cfg)
	res := Validate(cfg)
	for _, w := range res.Warnings {
		state.Logger().Warn("config warning", "component", "config", "field", w.Field, "msg", w.Message)
	}
	return cfg, res.Error()
}

// Parse decodes TOML over the defaults. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("parse config: unknown keys %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// SlogLevel maps the configured level to slog. Unknown levels are info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Classifier returns the circle classifier for the configured tolerance.
func (c SketchConfig) Classifier() *state.Classifier {
	cl := state.NewClassifier(c.CircleTolerance)
	return &cl
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands ${VAR}, ${VAR:-default} and $VAR references. Unset
// variables without a default expand to the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// ExpandEnvConfig expands environment references in the string fields that
// name places: the storage path and the hub addresses. A leading ~ in the
// storage path becomes the home directory.
func ExpandEnvConfig(cfg *Config) {
	cfg.Storage.Path = expandHome(ExpandEnv(cfg.Storage.Path))
	cfg.Sync.HubListen = ExpandEnv(cfg.Sync.HubListen)
	cfg.Sync.HubURL = ExpandEnv(cfg.Sync.HubURL)
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
