package config

import (
	"errors"

	"github.com/dshills/tessera/internal/logging"
)

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	r := c.Renderer
	if r.TabSize < 1 || r.TabSize > 16 {
		fail("renderer.tab_size", "must be between 1 and 16", r.TabSize)
	}
	if r.Transparency <= 0 || r.Transparency > 1 {
		fail("renderer.transparency", "must be in (0, 1]", r.Transparency)
	}
	if r.DamageThreshold < 0 || r.DamageThreshold > 1 {
		fail("renderer.damage_threshold", "must be in [0, 1]", r.DamageThreshold)
	}
	if r.FrameIntervalMS < 0 || r.FrameIntervalMS > 1000 {
		fail("renderer.frame_interval_ms", "must be between 0 and 1000", r.FrameIntervalMS)
	}

	switch c.Terminal.Backend {
	case BackendTerm, BackendTcell:
	default:
		fail("terminal.backend", `must be "term" or "tcell"`, c.Terminal.Backend)
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		fail("logging.level", "unknown level", c.Logging.Level)
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}
