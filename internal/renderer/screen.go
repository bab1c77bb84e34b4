package renderer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/tessera/internal/logging"
	"github.com/dshills/tessera/internal/renderer/backend"
	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/compositor"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
	"github.com/dshills/tessera/internal/renderer/dirty"
	"github.com/dshills/tessera/internal/renderer/format"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// Options configures a Screen.
type Options struct {
	// Compositor controls painting.
	Compositor compositor.Options
	// DisableScroll turns off scroll-region output even when the writer
	// supports it.
	DisableScroll bool
	// DamageThreshold is the share of the screen, 0-1, past which damage
	// is treated as a full redraw. Zero keeps the tracker default.
	DamageThreshold float64
	// Logger receives render diagnostics. Nil means no logging.
	Logger *logging.Logger
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		Compositor: compositor.DefaultOptions(),
	}
}

// Stats describes the work a Screen has done.
type Stats struct {
	Session string
	// Frames counts completed render passes.
	Frames int64
	// Ops, Writes and Scrolls count emitted diff operations.
	Ops     int64
	Writes  int64
	Scrolls int64
	// Bytes counts output bytes when the writer reports them.
	Bytes int64
	// Painted and Skipped describe the latest paint pass.
	Painted int
	Skipped int
	// Cache reports the widget content cache.
	Cache format.CacheStats
	// Colors is the number of memoised RGB matches.
	Colors int
}

// Screen is one compositing session. It owns the widget tree, the color
// codec and both screen buffers, and pushes the difference between the
// last committed frame and each new one to its writer.
//
// Tree mutation must go through Update or happen on the goroutine that
// renders. Event handlers run while the session lock is held and must not
// call Update, Resize or Close; calling Render from a handler schedules a
// follow-up pass.
type Screen struct {
	mu sync.Mutex

	id   string
	opts Options
	log  *logging.Logger

	tree   *widget.Tree
	codec  *color.Codec
	comp   *compositor.Compositor
	engine *diff.Engine
	damage *dirty.Tracker

	// front is what the terminal shows; back is painted each pass.
	front *core.ScreenBuffer
	back  *core.ScreenBuffer

	writer backend.Writer
	clear  bool
	closed bool

	rendering atomic.Bool
	pending   atomic.Bool

	frames      atomic.Int64
	lastPainted int
	lastSkipped int
}

// New creates a screen sized to w. The first Render paints every row.
func New(w backend.Writer, opts Options) (*Screen, error) {
	if w == nil {
		return nil, ErrNoWriter
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	id := uuid.NewString()
	cols, rows := w.Size()
	codec := color.NewCodec()

	s := &Screen{
		id:     id,
		opts:   opts,
		log:    log.WithComponent("screen").WithField("session", id),
		tree:   widget.NewTree(),
		codec:  codec,
		comp:   compositor.New(codec, opts.Compositor),
		engine: diff.NewEngine(),
		damage: dirty.NewTracker(cols, rows),
		front:  core.NewScreenBuffer(cols, rows),
		back:   core.NewScreenBuffer(cols, rows),
		writer: w,
	}
	if opts.DamageThreshold > 0 {
		s.damage.SetThreshold(opts.DamageThreshold)
	}
	s.engine.DisableScroll = opts.DisableScroll || !backend.CanScroll(w)
	s.front.Invalidate()
	s.damage.MarkFullRedraw()

	if r, ok := w.(backend.Resizer); ok {
		r.OnResize(s.Resize)
	}

	s.log.Debug("screen created %dx%d scroll=%v", cols, rows, !s.engine.DisableScroll)
	return s, nil
}

// ID returns the session identifier.
func (s *Screen) ID() string {
	return s.id
}

// Tree returns the widget tree. See Update for concurrent use.
func (s *Screen) Tree() *widget.Tree {
	return s.tree
}

// Codec returns the color codec shared by every pass of this session.
func (s *Screen) Codec() *color.Codec {
	return s.codec
}

// Size returns the screen dimensions.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back.Size()
}

// Update runs fn with exclusive access to the widget tree.
func (s *Screen) Update(fn func(*widget.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.tree)
}

// Remove detaches id and its subtree and drops their cached content.
func (s *Screen) Remove(id widget.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []widget.NodeID
	var collect func(widget.NodeID)
	collect = func(cur widget.NodeID) {
		n := s.tree.Node(cur)
		if n == nil {
			return
		}
		ids = append(ids, cur)
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(id)

	if err := s.tree.Remove(id); err != nil {
		return NewOperationError("remove", s.id, err)
	}
	for _, cur := range ids {
		s.comp.Forget(cur)
	}
	return nil
}

// Options returns the current session options.
func (s *Screen) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetOptions replaces the painting, scroll and damage options and forces
// a repaint. The logger of a running session is kept.
func (s *Screen) SetOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts.Logger = s.opts.Logger
	s.opts = opts
	s.comp.SetOptions(opts.Compositor)
	s.engine.DisableScroll = opts.DisableScroll || !backend.CanScroll(s.writer)
	threshold := opts.DamageThreshold
	if threshold <= 0 {
		threshold = dirty.DefaultThreshold
	}
	s.damage.SetThreshold(threshold)
	s.damage.MarkFullRedraw()
}

// Damage reports rows that changed outside the widget tree.
func (s *Screen) Damage(change dirty.Change) {
	s.damage.MarkChange(change)
}

// Redraw clears the terminal and repaints everything on the next pass.
func (s *Screen) Redraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear = true
	s.front.Invalidate()
	s.damage.MarkFullRedraw()
}

// Resize changes the screen size. The next pass repaints every row.
func (s *Screen) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	width, height = max(width, 0), max(height, 0)

	s.back.Resize(width, height)
	s.front.Resize(width, height)
	s.front.Invalidate()
	s.damage.SetScreenSize(width, height)
	s.tree.InvalidateScroll()
	if sz, ok := s.writer.(interface{ SetSize(int, int) }); ok {
		sz.SetSize(width, height)
	}
	s.tree.Emit(&widget.Event{Type: widget.EventResize, Target: widget.Root, Width: width, Height: height})
	s.log.Debug("resized to %dx%d", width, height)
}

// Render paints the tree and writes the difference to the terminal.
// A call made while another pass is running returns at once and the
// running pass performs one more pass before it returns.
func (s *Screen) Render() error {
	for {
		if !s.rendering.CompareAndSwap(false, true) {
			s.pending.Store(true)
			return nil
		}
		var err error
		for {
			s.pending.Store(false)
			if err = s.pass(); err != nil {
				break
			}
			if !s.pending.Load() {
				break
			}
		}
		s.rendering.Store(false)
		if err != nil {
			return err
		}
		// A request may have arrived after the last check but before the
		// guard was released.
		if !s.pending.Load() {
			return nil
		}
	}
}

func (s *Screen) pass() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	cols, rows := s.back.Size()
	if cols == 0 || rows == 0 {
		return nil
	}

	s.back.Reset()
	res := s.comp.Paint(s.tree, s.back)
	painted := s.back.DirtyRows()

	// Rows painted last frame, or damaged since, may now be blank.
	for _, y := range s.damage.Rows() {
		if y < rows {
			s.back.MarkDirty(y)
		}
	}

	if err := s.back.Check(); err != nil {
		return NewOperationError("render", s.id, err)
	}
	if err := s.front.Check(); err != nil {
		return NewOperationError("render", s.id, err)
	}
	if fc, fr := s.front.Size(); fc != cols || fr != rows {
		return NewOperationError("render", s.id, core.ErrDimensionMismatch).
			WithContext("front and back buffers differ")
	}

	ops := s.engine.Diff(s.front, s.back)
	if s.clear {
		ops = append([]diff.Op{{Kind: diff.OpClear}}, ops...)
	}
	if len(ops) > 0 {
		if err := s.writer.Apply(ops); err != nil {
			// The terminal state is unknown now.
			s.front.Invalidate()
			s.damage.MarkFullRedraw()
			s.log.Warn("apply failed: %v", err)
			return NewOperationError("render", s.id, err).WithContext("apply")
		}
	}
	s.clear = false

	s.front.CopyFrom(s.back)
	s.front.ClearDirty()
	s.back.ClearDirty()
	s.damage.Clear()
	for _, r := range dirty.Runs(painted) {
		s.damage.MarkRegion(r)
	}

	s.lastPainted, s.lastSkipped = res.Painted, res.Skipped
	frame := s.frames.Add(1)
	if s.log.Enabled(logging.LevelDebug) {
		s.log.Debug("frame %d: %d ops, %d widgets painted, %d skipped", frame, len(ops), res.Painted, res.Skipped)
	}
	s.tree.Emit(&widget.Event{Type: widget.EventRender, Target: widget.Root, Width: cols, Height: rows})
	return nil
}

// ScheduleRender renders once after delay unless ctx ends or the returned
// cancel function is called first. Render errors are logged.
func (s *Screen) ScheduleRender(ctx context.Context, delay time.Duration) (cancel func()) {
	timer := time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.Render(); err != nil {
			s.log.Error("scheduled render: %v", err)
		}
	})
	stop := context.AfterFunc(ctx, func() { timer.Stop() })
	return func() {
		timer.Stop()
		stop()
	}
}

// Snapshot returns a copy of the last committed frame.
func (s *Screen) Snapshot() *core.ScreenBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, rows := s.front.Size()
	out := core.NewScreenBuffer(cols, rows)
	out.CopyFrom(s.front)
	out.ClearDirty()
	return out
}

// Stats returns session statistics.
func (s *Screen) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	es := s.engine.Stats()
	st := Stats{
		Session: s.id,
		Frames:  s.frames.Load(),
		Ops:     es.Ops,
		Writes:  es.Writes,
		Scrolls: es.Scrolls,
		Painted: s.lastPainted,
		Skipped: s.lastSkipped,
		Cache:   s.comp.CacheStats(),
		Colors:  s.codec.CacheSize(),
	}
	if bw, ok := s.writer.(interface{ BytesWritten() int64 }); ok {
		st.Bytes = bw.BytesWritten()
	}
	return st
}

// Close closes the writer. Further renders return ErrClosed.
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.writer.Close(); err != nil {
		return NewOperationError("close", s.id, err)
	}
	s.log.Debug("screen closed after %d frames", s.frames.Load())
	return nil
}
