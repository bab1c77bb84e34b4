package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDecodeTOML(t *testing.T) {
	cfg := Default()
	data := []byte(`
[renderer]
tab_size = 4
dock_borders = false

[terminal]
backend = "tcell"
`)
	if err := Decode(cfg, "tessera.toml", data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if cfg.Renderer.TabSize != 4 || cfg.Renderer.DockBorders {
		t.Errorf("renderer settings not applied: %+v", cfg.Renderer)
	}
	if cfg.Terminal.Backend != BackendTcell {
		t.Errorf("expected tcell backend, got %q", cfg.Terminal.Backend)
	}
	if !cfg.Renderer.FullUnicode {
		t.Error("unset keys should keep their defaults")
	}
}

func TestDecodeYAML(t *testing.T) {
	cfg := Default()
	data := []byte("renderer:\n  transparency: 0.25\nlogging:\n  level: debug\n  json: true\n")
	if err := Decode(cfg, "tessera.yml", data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if cfg.Renderer.Transparency != 0.25 || cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("settings not applied: %+v", cfg)
	}

	if err := Decode(Default(), "empty.yaml", nil); err != nil {
		t.Errorf("an empty document should be accepted: %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	var pe *ParseError
	err := Decode(Default(), "bad.toml", []byte("[renderer]\ntab_size = \"x\"\n"))
	if !errors.As(err, &pe) || pe.Path != "bad.toml" {
		t.Errorf("expected ParseError, got %v", err)
	}
	if err := Decode(Default(), "bad.toml", []byte("[renderer]\nbogus = 1\n")); !errors.As(err, &pe) {
		t.Errorf("unknown TOML keys should fail, got %v", err)
	}
	if err := Decode(Default(), "bad.yaml", []byte("renderer:\n  bogus: 1\n")); !errors.As(err, &pe) {
		t.Errorf("unknown YAML keys should fail, got %v", err)
	}
	if err := Decode(Default(), "tessera.json", []byte("{}")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TESSERA_BACKEND":        "tcell",
		"TESSERA_TAB_SIZE":       "2",
		"TESSERA_FULL_UNICODE":   "off",
		"TESSERA_TRANSPARENCY":   "0.75",
		"TESSERA_LOG_LEVEL":      "warn",
		"TESSERA_DISABLE_SCROLL": "yes",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Terminal.Backend != "tcell" || cfg.Renderer.TabSize != 2 || cfg.Renderer.FullUnicode {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Renderer.Transparency != 0.75 || !cfg.Renderer.DisableScroll || cfg.Logging.Level != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	env = map[string]string{"TESSERA_TAB_SIZE": "wide"}
	if err := ApplyEnv(Default(), lookup); !errors.Is(err, ErrBadEnv) {
		t.Errorf("expected ErrBadEnv, got %v", err)
	}
	if err := ApplyEnv(Default(), noEnv); err != nil {
		t.Errorf("no overrides should succeed, got %v", err)
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Renderer.TabSize = 0
	cfg.Terminal.Backend = "curses"
	cfg.Logging.Level = "chatty"

	err := cfg.Validate()
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	for _, path := range []string{"renderer.tab_size", "terminal.backend", "logging.level"} {
		if !strings.Contains(err.Error(), path) {
			t.Errorf("expected %s in %v", path, err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tessera.toml", "[renderer]\ntab_size = 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Renderer.TabSize != 3 {
		t.Errorf("expected tab size 3, got %d", cfg.Renderer.TabSize)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}

	bad := writeFile(t, dir, "bad.toml", "[renderer]\ntab_size = 99\n")
	if _, err := Load(bad); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected validation failure, got %v", err)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tessera.yaml", "renderer:\n  tab_size: 4\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err == nil {
				reloaded <- cfg
			}
		}, WithDebounce(10*time.Millisecond), WithReady(ready))
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not start")
	}
	writeFile(t, dir, "tessera.yaml", "renderer:\n  tab_size: 6\n")

	select {
	case cfg := <-reloaded:
		if cfg.Renderer.TabSize != 6 {
			t.Errorf("expected reloaded tab size 6, got %d", cfg.Renderer.TabSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
