package backend

import (
	"fmt"
	"sync"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
)

// Recorder is an in-memory writer for testing. It keeps every applied batch
// and a model of the screen the ops would produce.
type Recorder struct {
	mu            sync.Mutex
	width, height int
	screen        *core.ScreenBuffer
	batches       [][]diff.Op
	row, col      int
	closed        bool
	noScroll      bool
	resizeHandler func(width, height int)
	failNext      error
}

// NewRecorder creates a recorder with the given dimensions.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:  width,
		height: height,
		screen: core.NewScreenBuffer(width, height),
	}
}

// Size returns the recorder dimensions.
func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Apply records ops and replays them onto the model screen.
func (r *Recorder) Apply(ops []diff.Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}

	batch := make([]diff.Op, len(ops))
	copy(batch, ops)
	r.batches = append(r.batches, batch)

	for _, op := range ops {
		if err := r.apply(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) apply(op diff.Op) error {
	switch op.Kind {
	case diff.OpMove:
		if op.Row < 0 || op.Row >= r.height || op.Col < 0 || op.Col >= r.width {
			return fmt.Errorf("move to (%d,%d): %w", op.Row, op.Col, ErrOutOfBounds)
		}
		r.row, r.col = op.Row, op.Col
	case diff.OpWrite:
		if r.col+len(op.Cells) > r.width {
			return fmt.Errorf("write %d cells at col %d: %w", len(op.Cells), r.col, ErrOutOfBounds)
		}
		line := r.screen.Row(r.row)
		copy(line[r.col:], op.Cells)
		r.screen.MarkDirty(r.row)
		r.col += len(op.Cells)
	case diff.OpInsertLines, diff.OpDeleteLines:
		if r.noScroll {
			return ErrNoScroll
		}
		r.scroll(op)
	case diff.OpClear:
		r.screen.Reset()
	}
	return nil
}

func (r *Recorder) scroll(op diff.Op) {
	n := op.Bottom - op.Top + 1
	saved := make([][]core.Cell, n)
	for i := range saved {
		saved[i] = append([]core.Cell(nil), r.screen.Row(op.Top+i)...)
	}
	for i := 0; i < n; i++ {
		src := i + op.N
		if op.Kind == diff.OpInsertLines {
			src = i - op.N
		}
		dst := r.screen.Row(op.Top + i)
		if src < 0 || src >= n {
			for x := range dst {
				dst[x] = core.EmptyCell()
			}
		} else {
			copy(dst, saved[src])
		}
		r.screen.MarkDirty(op.Top + i)
	}
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// CanScroll reports whether scroll ops are accepted.
func (r *Recorder) CanScroll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.noScroll
}

// SetScroll enables or disables scroll op support.
func (r *Recorder) SetScroll(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noScroll = !enabled
}

// FailNext makes the next Apply return err without applying anything.
func (r *Recorder) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

// OnResize registers a callback invoked by Resize.
func (r *Recorder) OnResize(callback func(width, height int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resizeHandler = callback
}

// Resize simulates a display resize. The model screen keeps what fits.
func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	r.width = width
	r.height = height
	r.screen.Resize(width, height)
	handler := r.resizeHandler
	r.mu.Unlock()

	if handler != nil {
		handler(width, height)
	}
}

// Batches returns every recorded batch in order.
func (r *Recorder) Batches() [][]diff.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]diff.Op, len(r.batches))
	copy(out, r.batches)
	return out
}

// Last returns the most recent batch, or nil.
func (r *Recorder) Last() []diff.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

// Reset forgets recorded batches. The model screen is kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// Screen returns a copy of the model screen.
func (r *Recorder) Screen() *core.ScreenBuffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := core.NewScreenBuffer(r.width, r.height)
	out.CopyFrom(r.screen)
	return out
}

// String returns the model screen as text.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.screen.String()
}
