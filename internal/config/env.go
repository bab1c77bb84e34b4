package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "TESSERA_"

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// envSetter applies one override.
type envSetter func(cfg *Config, value string) error

// envMapping maps environment variables, without the prefix, to settings.
var envMapping = map[string]envSetter{
	"BACKEND":              setString(func(c *Config) *string { return &c.Terminal.Backend }),
	"TERM":                 setString(func(c *Config) *string { return &c.Terminal.Term }),
	"LOG_LEVEL":            setString(func(c *Config) *string { return &c.Logging.Level }),
	"LOG_FILE":             setString(func(c *Config) *string { return &c.Logging.File }),
	"LOG_JSON":             setBool(func(c *Config) *bool { return &c.Logging.JSON }),
	"DOCK_BORDERS":         setBool(func(c *Config) *bool { return &c.Renderer.DockBorders }),
	"IGNORE_DOCK_CONTRAST": setBool(func(c *Config) *bool { return &c.Renderer.IgnoreDockContrast }),
	"FULL_UNICODE":         setBool(func(c *Config) *bool { return &c.Renderer.FullUnicode }),
	"DISABLE_SCROLL":       setBool(func(c *Config) *bool { return &c.Renderer.DisableScroll }),
	"TAB_SIZE":             setInt(func(c *Config) *int { return &c.Renderer.TabSize }),
	"FRAME_INTERVAL_MS":    setInt(func(c *Config) *int { return &c.Renderer.FrameIntervalMS }),
	"TRANSPARENCY":         setFloat(func(c *Config) *float64 { return &c.Renderer.Transparency }),
	"DAMAGE_THRESHOLD":     setFloat(func(c *Config) *float64 { return &c.Renderer.DamageThreshold }),
}

// EnvKeys returns the recognised environment variable names.
func EnvKeys() []string {
	keys := make([]string, 0, len(envMapping))
	for k := range envMapping {
		keys = append(keys, EnvPrefix+k)
	}
	return keys
}

// ApplyEnv applies TESSERA_* overrides found through lookup.
// Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for name, set := range envMapping {
		val, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, val); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrBadEnv, EnvPrefix, name, val, err)
		}
	}
	return nil
}

func setString(field func(*Config) *string) envSetter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(c *Config, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(c *Config, v string) error {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = i
		return nil
	}
}

func setFloat(field func(*Config) *float64) envSetter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

// parseBool accepts the usual spellings of yes and no.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0", "":
		return false, nil
	}
	return false, errors.New("not a boolean")
}
