// Package app wires configuration, logging, an output backend and a
// compositing session together and runs the event loop of the tessera
// command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// statusInterval is how often the status line refreshes.
const statusInterval = time.Second

// Options configures the application. Non-empty fields override the
// configuration file.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// Backend selects "term" or "tcell".
	Backend string
	// LogLevel sets the logging verbosity.
	LogLevel string
	// Interactive discards log output unless a log file is configured, so
	// logs do not draw over the screen.
	Interactive bool
}

// Application is the central coordinator of a tessera session.
type Application struct {
	mu sync.Mutex

	opts    Options
	cfg     *config.Config
	log     *logging.Logger
	logFile io.Closer

	writer backend.Writer
	input  backend.EventSource
	screen *renderer.Screen
	scene  *Scene

	running   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// New loads configuration and sets up logging.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.Backend != "" {
		cfg.Terminal.Backend = opts.Backend
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app := &Application{
		opts: opts,
		cfg:  cfg,
		done: make(chan struct{}),
	}
	if err := app.setupLogging(); err != nil {
		return nil, &InitError{Component: "logging", Err: err}
	}
	return app, nil
}

func (app *Application) setupLogging() error {
	lc := logging.Config{
		Level:  app.cfg.LogLevel(),
		Output: os.Stderr,
		Prefix: "tessera",
		JSON:   app.cfg.Logging.JSON,
	}
	switch {
	case app.cfg.Logging.File != "":
		f, err := os.OpenFile(app.cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		lc.Output = f
		app.logFile = f
	case app.opts.Interactive:
		app.log = logging.Nop()
		return nil
	}
	app.log = logging.New(lc)
	return nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Screen returns the compositing session, or nil before SetWriter.
func (app *Application) Screen() *renderer.Screen {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.screen
}

// ScreenOptions converts configuration into session options.
func ScreenOptions(cfg *config.Config, log *logging.Logger) renderer.Options {
	return renderer.Options{
		Compositor:      CompositorOptions(cfg),
		DisableScroll:   cfg.Renderer.DisableScroll,
		DamageThreshold: cfg.Renderer.DamageThreshold,
		Logger:          log,
	}
}

// CompositorOptions converts configuration into painting options.
func CompositorOptions(cfg *config.Config) compositor.Options {
	return compositor.Options{
		DockBorders:        cfg.Renderer.DockBorders,
		IgnoreDockContrast: cfg.Renderer.IgnoreDockContrast,
		FullUnicode:        cfg.Renderer.FullUnicode,
		TabSize:            cfg.Renderer.TabSize,
		Transparency:       cfg.Renderer.Transparency,
	}
}

// SetWriter creates the session on w and builds the demo scene. input may
// be nil when the backend delivers no events.
func (app *Application) SetWriter(w backend.Writer, input backend.EventSource) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.screen != nil {
		return fmt.Errorf("set writer: %w", ErrAlreadyRunning)
	}
	screen, err := renderer.New(w, ScreenOptions(app.cfg, app.log))
	if err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	var scene *Scene
	err = screen.Update(func(tree *widget.Tree) error {
		var err error
		scene, err = BuildScene(tree)
		return err
	})
	if err != nil {
		screen.Close()
		return &InitError{Component: "scene", Err: err}
	}

	app.writer = w
	app.input = input
	app.screen = screen
	app.scene = scene
	return nil
}

// Resize forwards a terminal size change to the session.
func (app *Application) Resize(width, height int) {
	if s := app.Screen(); s != nil {
		s.Resize(width, height)
		app.render()
	}
}

// Run renders the first frame and processes events until ctx ends, Shutdown
// is called or a quit key arrives. A quit returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	screen := app.Screen()
	if screen == nil {
		return ErrNoWriter
	}
	app.log.Info("session %s started with %s backend", screen.ID(), app.cfg.Terminal.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.updateStatus()
	if err := screen.Render(); err != nil {
		return err
	}

	events := make(chan backend.Event, 16)
	if app.input != nil {
		go app.pollEvents(events)
	}
	if app.opts.ConfigPath != "" {
		go app.watchConfig(ctx)
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.done:
			return nil
		case ev := <-events:
			if err := app.HandleEvent(ev); err != nil {
				return err
			}
		case <-ticker.C:
			app.updateStatus()
			app.render()
		}
	}
}

func (app *Application) pollEvents(events chan<- backend.Event) {
	for {
		ev := app.input.PollEvent()
		if ev.Type == backend.EventNone {
			return
		}
		select {
		case events <- ev:
		case <-app.done:
			return
		}
	}
}

func (app *Application) watchConfig(ctx context.Context) {
	err := config.Watch(ctx, app.opts.ConfigPath, func(cfg *config.Config, err error) {
		if err != nil {
			app.log.Warn("config reload: %v", err)
			return
		}
		app.ApplyConfig(cfg)
	})
	if err != nil {
		app.log.Error("config watch: %v", err)
	}
}

// ApplyConfig switches to cfg and repaints. Renderer options and the log
// level apply at once; the backend, terminal name, log file and log format
// need a restart.
func (app *Application) ApplyConfig(cfg *config.Config) {
	app.mu.Lock()
	if app.opts.Backend != "" {
		cfg.Terminal.Backend = app.opts.Backend
	}
	app.cfg = cfg
	screen := app.screen
	app.mu.Unlock()

	app.log.SetLevel(cfg.LogLevel())
	if screen == nil {
		return
	}
	screen.SetOptions(ScreenOptions(cfg, app.log))
	delay := time.Duration(cfg.Renderer.FrameIntervalMS) * time.Millisecond
	screen.ScheduleRender(context.Background(), delay)
	app.log.Info("configuration reloaded")
}

// HandleEvent applies one input event and repaints. It returns ErrQuit for
// quit keys.
func (app *Application) HandleEvent(ev backend.Event) error {
	screen := app.Screen()
	if screen == nil {
		return ErrNoWriter
	}

	switch ev.Type {
	case backend.EventKey:
		if err := app.handleKey(screen, ev); err != nil {
			return err
		}
	case backend.EventResize, backend.EventInterrupt:
	default:
		return nil
	}
	app.render()
	return nil
}

func (app *Application) handleKey(screen *renderer.Screen, ev backend.Event) error {
	scroll := func(delta int) error {
		return screen.Update(func(tree *widget.Tree) error {
			err := tree.Scroll(app.scene.Log, delta)
			if errors.Is(err, widget.ErrNotScrollable) {
				return nil
			}
			return err
		})
	}

	switch ev.Key {
	case backend.KeyCtrlC, backend.KeyEscape:
		return ErrQuit
	case backend.KeyCtrlL:
		screen.Redraw()
	case backend.KeyUp:
		return scroll(-1)
	case backend.KeyDown:
		return scroll(1)
	case backend.KeyPageUp:
		return scroll(-10)
	case backend.KeyPageDown:
		return scroll(10)
	case backend.KeyHome:
		return scroll(-logLines)
	case backend.KeyEnd:
		return scroll(logLines)
	case backend.KeyRune:
		switch ev.Rune {
		case 'q':
			return ErrQuit
		case 'j':
			return scroll(1)
		case 'k':
			return scroll(-1)
		case 'o':
			return screen.Update(app.scene.ToggleOverlay)
		}
	}
	return nil
}

func (app *Application) updateStatus() {
	screen := app.Screen()
	if screen == nil {
		return
	}
	st := screen.Stats()
	err := screen.Update(func(tree *widget.Tree) error {
		return app.scene.SetStatus(tree, st, time.Now())
	})
	if err != nil && !errors.Is(err, renderer.ErrClosed) {
		app.log.Warn("status: %v", err)
	}
}

func (app *Application) render() {
	if err := app.Screen().Render(); err != nil && !errors.Is(err, renderer.ErrClosed) {
		app.log.Error("render: %v", err)
	}
}

// Shutdown stops the event loop and restores the terminal.
func (app *Application) Shutdown() {
	app.closeOnce.Do(func() {
		close(app.done)
		if s := app.Screen(); s != nil {
			if err := s.Close(); err != nil {
				app.log.Error("close screen: %v", err)
			}
		}
		_ = app.log.Sync()
		if app.logFile != nil {
			app.logFile.Close()
		}
	})
}
