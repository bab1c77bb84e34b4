//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/dshills/tessera/internal/app"
)

// watchResize forwards SIGWINCH to the application. The tcell backend
// reports resizes itself, so the extra notification only repaints.
func watchResize(ctx context.Context, application *app.Application) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGWINCH)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigs:
				w, h, err := term.GetSize(int(os.Stdout.Fd()))
				if err != nil {
					application.Logger().Warn("resize: %v", err)
					continue
				}
				application.Resize(w, h)
			}
		}
	}()
	return func() { signal.Stop(sigs) }
}
