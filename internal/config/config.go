// Package config loads tessera settings.
//
// Settings come from three places, later ones overriding earlier ones:
// built-in defaults, a TOML or YAML file chosen by extension, and
// TESSERA_* environment variables. The result is validated before use and
// can be reloaded when the file changes (see Watch).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendTerm  = "term"
	BackendTcell = "tcell"
)

// Config holds every tessera setting.
type Config struct {
	Renderer RendererConfig `toml:"renderer" yaml:"renderer"`
	Terminal TerminalConfig `toml:"terminal" yaml:"terminal"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// RendererConfig controls compositing and output.
type RendererConfig struct {
	DockBorders        bool    `toml:"dock_borders" yaml:"dock_borders"`
	IgnoreDockContrast bool    `toml:"ignore_dock_contrast" yaml:"ignore_dock_contrast"`
	FullUnicode        bool    `toml:"full_unicode" yaml:"full_unicode"`
	TabSize            int     `toml:"tab_size" yaml:"tab_size"`
	Transparency       float64 `toml:"transparency" yaml:"transparency"`
	DisableScroll      bool    `toml:"disable_scroll" yaml:"disable_scroll"`
	DamageThreshold    float64 `toml:"damage_threshold" yaml:"damage_threshold"`
	// FrameIntervalMS is the delay used to coalesce render requests.
	FrameIntervalMS int `toml:"frame_interval_ms" yaml:"frame_interval_ms"`
}

// TerminalConfig selects the output backend.
type TerminalConfig struct {
	// Backend is "term" for direct escape-sequence output or "tcell".
	Backend string `toml:"backend" yaml:"backend"`
	// Term overrides $TERM for capability lookup.
	Term string `toml:"term" yaml:"term"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	// File receives log output; empty means stderr.
	File string `toml:"file" yaml:"file"`
	JSON bool   `toml:"json" yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Renderer: RendererConfig{
			DockBorders:     true,
			FullUnicode:     true,
			TabSize:         8,
			Transparency:    0.5,
			DamageThreshold: 0.5,
			FrameIntervalMS: 16,
		},
		Terminal: TerminalConfig{
			Backend: BackendTerm,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := Decode(cfg, path, data); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data over cfg. The format follows the extension of name:
// .toml, .yaml or .yml. Unknown keys are errors.
func Decode(cfg *Config, name string, data []byte) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return tomlError(name, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults alone.
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return yamlError(name, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(name))
	}
	return nil
}

func tomlError(name string, err error) error {
	pe := &ParseError{Path: name, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}

func yamlError(name string, err error) error {
	pe := &ParseError{Path: name, Message: err.Error(), Err: err}
	var terr *yaml.TypeError
	if errors.As(err, &terr) && len(terr.Errors) > 0 {
		pe.Message = strings.Join(terr.Errors, "; ")
	}
	return pe
}
