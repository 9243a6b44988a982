package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"LocalSketch/internal/state"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	ExpandEnvConfig(&cfg)
	if res := Validate(cfg); !res.IsValid() {
		t.Errorf("default config invalid: %v", res.Error())
	}
	if cfg.Sketch.CircleTolerance != state.DefaultCircleTolerance {
		t.Errorf("circle_tolerance = %f", cfg.Sketch.CircleTolerance)
	}
	if strings.Contains(cfg.Storage.Path, "$") || strings.HasPrefix(cfg.Storage.Path, "~") {
		t.Errorf("storage path not expanded: %s", cfg.Storage.Path)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[sync]
hub_url = "ws://10.0.0.5:8888/"
dedup_on_receive = true

[sketch]
circle_tolerance = 0.25
background = "#1a1a1a"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.HubURL != "ws://10.0.0.5:8888/" || !cfg.Sync.DedupOnReceive {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Sketch.CircleTolerance != 0.25 || cfg.Sketch.Background != "#1a1a1a" {
		t.Errorf("sketch = %+v", cfg.Sketch)
	}
	if cfg.Sync.RemotePath != "strokes/current" || cfg.Canvas.Width != 1200 {
		t.Error("unset fields should keep their defaults")
	}
	if c := cfg.Sketch.Classifier(); c.Tolerance != 0.25 {
		t.Errorf("classifier tolerance = %f", c.Tolerance)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax", "[sync\nhub_url = 1"},
		{"unknown key", "[sketch]\ncircle_tolerence = 2"},
		{"wrong type", "[canvas]\nwidth = \"wide\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		warnOnly bool
	}{
		{"bad listen", func(c *Config) { c.Sync.HubListen = "8888" }, "sync.hub_listen", false},
		{"http hub", func(c *Config) { c.Sync.HubURL = "http://x:1/" }, "sync.hub_url", false},
		{"empty path", func(c *Config) { c.Sync.RemotePath = "" }, "sync.remote_path", false},
		{"zero tolerance", func(c *Config) { c.Sketch.CircleTolerance = 0 }, "sketch.circle_tolerance", false},
		{"tight tolerance", func(c *Config) { c.Sketch.CircleTolerance = 0.05 }, "sketch.circle_tolerance", true},
		{"few circle points", func(c *Config) { c.Sketch.CirclePoints = 3 }, "sketch.circle_points", false},
		{"bad color", func(c *Config) { c.Sketch.Background = "white" }, "sketch.background", false},
		{"zero canvas", func(c *Config) { c.Canvas.Height = 0 }, "canvas", false},
		{"odd level", func(c *Config) { c.Log.Level = "loud" }, "log.level", true},
		{"discover with url", func(c *Config) {
			c.Sync.HubURL = "ws://x:1/"
			c.Sync.Discover = true
		}, "sync.discover", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			res := Validate(cfg)

			list := res.Errors
			if tt.warnOnly {
				list = res.Warnings
				if !res.IsValid() {
					t.Errorf("expected only a warning, got errors %v", res.Errors)
				}
			}
			found := false
			for _, e := range list {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no entry for %s in %+v", tt.field, res)
			}
		})
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SKETCH_HOST", "10.1.1.1")
	t.Setenv("SKETCH_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"ws://${SKETCH_HOST}:8888/", "ws://10.1.1.1:8888/"},
		{"ws://$SKETCH_HOST/", "ws://10.1.1.1/"},
		{"${SKETCH_EMPTY:-fallback}", "fallback"},
		{"${SKETCH_UNSET_VAR}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	if got := (LogConfig{Level: "debug"}).SlogLevel(); got != slog.LevelDebug {
		t.Errorf("debug = %v", got)
	}
	if got := (LogConfig{Level: "nonsense"}).SlogLevel(); got != slog.LevelInfo {
		t.Errorf("nonsense = %v, want info", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Canvas.Width != DefaultConfig().Canvas.Width {
		t.Error("missing file should give defaults")
	}

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[canvas]\nwidth = -1\n"), 0o644)
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "canvas") {
		t.Errorf("Load(bad) = %v, want canvas validation error", err)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localsketch.toml")
	if err := os.WriteFile(path, []byte("[sketch]\ncircle_tolerance = 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan Config, 4)
	w, err := Watch(path, 20*time.Millisecond, func(c Config) { reloaded <- c }, func(err error) {
		t.Logf("watch error: %v", err)
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[sketch]\ncircle_tolerance = 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-reloaded:
		if c.Sketch.CircleTolerance != 0.5 {
			t.Errorf("reloaded tolerance = %f, want 0.5", c.Sketch.CircleTolerance)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}
