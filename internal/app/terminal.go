package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/vt"
)

// fallbackTerm is used when neither the configuration nor $TERM names a
// terminal.
const fallbackTerm = "xterm-256color"

// termName picks the terminal description for the term backend.
func termName(cfg *config.Config) string {
	if cfg.Terminal.Term != "" {
		return cfg.Terminal.Term
	}
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return fallbackTerm
}

func (app *Application) caps() (*backend.Caps, error) {
	name := termName(app.Config())
	caps, err := backend.LookupCaps(name)
	if caps == nil {
		return nil, err
	}
	if err != nil {
		app.log.Warn("%v", err)
	}
	return caps, nil
}

// OpenTerminal starts the configured backend on the controlling terminal
// and attaches it. The term backend reads keys from stdin.
func (app *Application) OpenTerminal() error {
	switch app.Config().Terminal.Backend {
	case config.BackendTcell:
		w, err := backend.OpenTcell()
		if err != nil {
			return &InitError{Component: "tcell", Err: err}
		}
		if err := app.SetWriter(w, w); err != nil {
			w.Close()
			return err
		}
		return nil

	default:
		caps, err := app.caps()
		if err != nil {
			return &InitError{Component: "terminfo", Err: err}
		}
		w, err := backend.OpenTerminal(os.Stdout, caps)
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		if err := app.SetWriter(w, NewKeyReader(os.Stdin)); err != nil {
			w.Close()
			return err
		}
		return nil
	}
}

// Snapshot renders the demo scene once into an in-memory terminal of the
// given size and writes the resulting screen text to out.
func (app *Application) Snapshot(width, height int, out io.Writer) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("snapshot: invalid size %dx%d", width, height)
	}
	caps, err := app.caps()
	if err != nil {
		return &InitError{Component: "terminfo", Err: err}
	}

	term := vt.New(width, height)
	if err := app.SetWriter(backend.NewTermWriter(term, caps, width, height), nil); err != nil {
		return err
	}
	defer app.Shutdown()

	app.updateStatus()
	if err := app.Screen().Render(); err != nil {
		return err
	}
	// Read before Shutdown leaves the alternate screen.
	if _, err := fmt.Fprintln(out, term.String()); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
