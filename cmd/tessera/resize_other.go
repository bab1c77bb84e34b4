//go:build !unix

package main

import (
	"context"

	"github.com/dshills/tessera/internal/app"
)

func watchResize(context.Context, *app.Application) func() {
	return func() {}
}
