package app

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/tessera/internal/config"
	"github.com/dshills/tessera/internal/renderer"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/widget"
)

func newTestApp(t *testing.T, input backend.EventSource) (*Application, *backend.Recorder) {
	t.Helper()
	app, err := New(Options{Interactive: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := backend.NewRecorder(80, 24)
	if err := app.SetWriter(rec, input); err != nil {
		t.Fatalf("SetWriter failed: %v", err)
	}
	t.Cleanup(app.Shutdown)
	if err := app.Screen().Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return app, rec
}

func keyRune(r rune) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r}
}

func logBase(app *Application) int {
	return app.Screen().Tree().Node(app.scene.Log).Scroll.ChildBase
}

func TestNewRejectsBadOverrides(t *testing.T) {
	_, err := New(Options{Backend: "curses", Interactive: true})
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("expected ErrInitialization, got %v", err)
	}
	if !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("expected wrapped validation error, got %v", err)
	}
}

func TestSceneRenders(t *testing.T) {
	_, rec := newTestApp(t, nil)
	out := rec.String()
	for _, want := range []string{"tessera compositor demo", "keys", "frame event"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q on screen:\n%s", want, out)
		}
	}
	if strings.Contains(out, "transparent overlay") {
		t.Error("overlay should start hidden")
	}
}

func TestQuitKeys(t *testing.T) {
	app, _ := newTestApp(t, nil)
	for _, ev := range []backend.Event{
		keyRune('q'),
		key(backend.KeyEscape),
		key(backend.KeyCtrlC),
	} {
		if err := app.HandleEvent(ev); !errors.Is(err, ErrQuit) {
			t.Errorf("event %+v: expected ErrQuit, got %v", ev, err)
		}
	}
}

func TestScrollKeys(t *testing.T) {
	app, rec := newTestApp(t, nil)

	if err := app.HandleEvent(keyRune('j')); err != nil {
		t.Fatal(err)
	}
	if got := logBase(app); got != 1 {
		t.Errorf("expected base 1 after j, got %d", got)
	}
	if strings.Contains(rec.String(), "   1 ") {
		t.Error("line 1 should have scrolled out of view")
	}

	app.HandleEvent(key(backend.KeyPageDown))
	if got := logBase(app); got != 11 {
		t.Errorf("expected base 11 after page down, got %d", got)
	}
	app.HandleEvent(key(backend.KeyEnd))
	limit := app.Screen().Tree().Node(app.scene.Log).MaxScroll()
	if got := logBase(app); got != limit {
		t.Errorf("expected base %d after end, got %d", limit, got)
	}
	app.HandleEvent(key(backend.KeyHome))
	if got := logBase(app); got != 0 {
		t.Errorf("expected base 0 after home, got %d", got)
	}
}

func TestToggleOverlay(t *testing.T) {
	app, rec := newTestApp(t, nil)

	if err := app.HandleEvent(keyRune('o')); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.String(), "transparent overlay") {
		t.Errorf("overlay should be visible:\n%s", rec.String())
	}
	app.HandleEvent(keyRune('o'))
	if strings.Contains(rec.String(), "transparent overlay") {
		t.Error("overlay should be hidden again")
	}
}

func TestRedrawKey(t *testing.T) {
	app, rec := newTestApp(t, nil)
	before := len(rec.Batches())
	app.HandleEvent(key(backend.KeyCtrlL))
	if len(rec.Batches()) != before+1 {
		t.Fatalf("expected one new batch, got %d", len(rec.Batches())-before)
	}
	if !strings.Contains(rec.String(), "tessera compositor demo") {
		t.Error("screen should be repainted after redraw")
	}
}

func TestRunWithoutWriter(t *testing.T) {
	app, err := New(Options{Interactive: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Run(context.Background()); !errors.Is(err, ErrNoWriter) {
		t.Errorf("expected ErrNoWriter, got %v", err)
	}
}

func TestRunQuitsOnInput(t *testing.T) {
	app, _ := newTestApp(t, NewKeyReader(strings.NewReader("jjq")))

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Errorf("expected ErrQuit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	if got := logBase(app); got != 2 {
		t.Errorf("expected base 2, got %d", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestApplyConfig(t *testing.T) {
	app, _ := newTestApp(t, nil)
	cfg := config.Default()
	cfg.Renderer.TabSize = 2
	cfg.Renderer.DisableScroll = true
	cfg.Renderer.DamageThreshold = 0.75
	app.ApplyConfig(cfg)
	if app.Config().Renderer.TabSize != 2 {
		t.Errorf("configuration not swapped")
	}
	opts := app.Screen().Options()
	if opts.Compositor.TabSize != 2 || !opts.DisableScroll || opts.DamageThreshold != 0.75 {
		t.Errorf("renderer options not applied: %+v", opts)
	}
}

func TestSnapshot(t *testing.T) {
	app, err := New(Options{Interactive: true})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := app.Snapshot(60, 12, &out); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "tessera compositor demo") {
		t.Errorf("header missing: %q", lines[0])
	}
	if !strings.Contains(lines[11], "frames") {
		t.Errorf("status missing: %q", lines[11])
	}

	if err := app.Snapshot(0, 5, &out); err == nil {
		t.Error("expected an error for an empty size")
	}
}

func TestSceneStatusShortSession(t *testing.T) {
	tree := widget.NewTree()
	scene, err := BuildScene(tree)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	st := renderer.Stats{}
	st.Session = "ab"
	st.Frames = 7
	if err := scene.SetStatus(tree, st, now); err != nil {
		t.Fatal(err)
	}
	got := tree.Node(scene.Status).Content
	if !strings.HasPrefix(got, " 03:04:05  ab  frames 7") {
		t.Errorf("unexpected status %q", got)
	}
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		in   string
		want backend.Event
	}{
		{"q", keyRune('q')},
		{"中", keyRune('中')},
		{"\x03", key(backend.KeyCtrlC)},
		{"\x0c", key(backend.KeyCtrlL)},
		{"\x1b", key(backend.KeyEscape)},
		{"\x1b[A", key(backend.KeyUp)},
		{"\x1bOB", key(backend.KeyDown)},
		{"\x1b[5~", key(backend.KeyPageUp)},
		{"\x1b[6~", key(backend.KeyPageDown)},
		{"\x1b[H", key(backend.KeyHome)},
		{"\x1b[4~", key(backend.KeyEnd)},
		{"\x1bx", backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'x', Mod: backend.ModAlt}},
		{"\x1b[Z", backend.Event{}},
		{"\x01", backend.Event{}},
	}
	for _, tt := range tests {
		got, err := decodeKey(bufio.NewReader(strings.NewReader(tt.in)))
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestKeyReaderEOF(t *testing.T) {
	k := NewKeyReader(strings.NewReader("k"))
	if ev := k.PollEvent(); ev != keyRune('k') {
		t.Errorf("expected k, got %+v", ev)
	}
	if ev := k.PollEvent(); ev.Type != backend.EventNone {
		t.Errorf("expected EventNone at end of input, got %+v", ev)
	}
	k.Close()
	if ev := k.PollEvent(); ev.Type != backend.EventNone {
		t.Errorf("expected EventNone after Close, got %+v", ev)
	}
}
