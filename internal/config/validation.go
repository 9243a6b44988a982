package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError is one problem with one field.
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult collects every problem found, so a user can fix a file
// in one pass.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns the combined errors, or nil.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks cfg for values the app cannot run with (errors) and values
// that are legal but probably unintended (warnings).
func Validate(cfg Config) *ValidationResult {
	vr := &ValidationResult{}

	if cfg.Sync.HubListen != "" {
		if _, _, err := net.SplitHostPort(cfg.Sync.HubListen); err != nil {
			vr.AddError("sync.hub_listen", err.Error())
		}
	}
	if cfg.Sync.HubURL != "" {
		u, err := url.Parse(cfg.Sync.HubURL)
		switch {
		case err != nil:
			vr.AddError("sync.hub_url", err.Error())
		case u.Scheme != "ws" && u.Scheme != "wss":
			vr.AddError("sync.hub_url", fmt.Sprintf("scheme %q, want ws or wss", u.Scheme))
		}
		if cfg.Sync.Discover {
			vr.AddWarning("sync.discover", "ignored because hub_url is set")
		}
	}
	if cfg.Sync.RemotePath == "" {
		vr.AddError("sync.remote_path", "must not be empty")
	}

	if cfg.Sketch.CircleTolerance <= 0 {
		vr.AddError("sketch.circle_tolerance", "must be positive")
	} else if cfg.Sketch.CircleTolerance < 0.1 {
		vr.AddWarning("sketch.circle_tolerance", "very tight; hand-drawn circles will rarely be recognized")
	}
	if cfg.Sketch.CirclePoints < 8 {
		vr.AddError("sketch.circle_points", "must be at least 8")
	}
	if !hexColorPattern.MatchString(cfg.Sketch.Background) {
		vr.AddError("sketch.background", fmt.Sprintf("%q is not a #rgb or #rrggbb color", cfg.Sketch.Background))
	}

	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		vr.AddError("canvas", fmt.Sprintf("size %dx%d must be positive", cfg.Canvas.Width, cfg.Canvas.Height))
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		vr.AddWarning("log.level", fmt.Sprintf("unknown level %q, using info", cfg.Log.Level))
	}
	return vr
}
