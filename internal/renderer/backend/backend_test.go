package backend

import (
	"errors"
	"testing"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
)

func textCells(s string, attr core.Attr) []core.Cell {
	var cells []core.Cell
	for _, r := range s {
		cells = append(cells, core.Cell{Attr: attr, Grapheme: string(r), Width: 1})
	}
	return cells
}

func TestRecorderApply(t *testing.T) {
	r := NewRecorder(5, 2)
	err := r.Apply([]diff.Op{
		diff.Move(1, 1),
		diff.Write(textCells("abc", core.DefaultAttr)),
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := r.String(); got != "     \n abc " {
		t.Errorf("unexpected screen %q", got)
	}
	if len(r.Batches()) != 1 || len(r.Last()) != 2 {
		t.Errorf("expected one batch of two ops, got %v", r.Batches())
	}
}

func TestRecorderOutOfBounds(t *testing.T) {
	r := NewRecorder(3, 1)
	err := r.Apply([]diff.Op{diff.Move(0, 1), diff.Write(textCells("abc", core.DefaultAttr))})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := r.Apply([]diff.Op{diff.Move(1, 0)}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds for bad move, got %v", err)
	}
}

func TestRecorderScroll(t *testing.T) {
	r := NewRecorder(2, 3)
	for y, s := range []string{"a", "b", "c"} {
		r.Apply([]diff.Op{diff.Move(y, 0), diff.Write(textCells(s, core.DefaultAttr))})
	}
	r.Apply([]diff.Op{{Kind: diff.OpDeleteLines, N: 1, Top: 0, Bottom: 2}})
	if got := r.String(); got != "b \nc \n  " {
		t.Errorf("unexpected screen after delete-lines %q", got)
	}

	r.SetScroll(false)
	if r.CanScroll() {
		t.Error("CanScroll should follow SetScroll")
	}
	err := r.Apply([]diff.Op{{Kind: diff.OpInsertLines, N: 1, Top: 0, Bottom: 2}})
	if !errors.Is(err, ErrNoScroll) {
		t.Errorf("expected ErrNoScroll, got %v", err)
	}
}

func TestRecorderFailNextAndClose(t *testing.T) {
	r := NewRecorder(2, 1)
	boom := errors.New("boom")
	r.FailNext(boom)
	if err := r.Apply(nil); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if err := r.Apply(nil); err != nil {
		t.Errorf("failure should apply once, got %v", err)
	}
	r.Close()
	if err := r.Apply(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestRecorderResizeCallback(t *testing.T) {
	r := NewRecorder(2, 1)
	var gotW, gotH int
	r.OnResize(func(w, h int) { gotW, gotH = w, h })
	r.Resize(4, 3)
	if gotW != 4 || gotH != 3 {
		t.Errorf("expected callback with 4x3, got %dx%d", gotW, gotH)
	}
	if w, h := r.Size(); w != 4 || h != 3 {
		t.Errorf("expected size 4x3, got %dx%d", w, h)
	}
}

func TestCanScrollDefault(t *testing.T) {
	var w Writer = NewRecorder(1, 1)
	if !CanScroll(w) {
		t.Error("recorder scrolls by default")
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModShift | ModCtrl
	if !m.Has(ModShift) || !m.Has(ModCtrl) {
		t.Error("mask should contain shift and ctrl")
	}
	if m.Has(ModAlt) {
		t.Error("mask should not contain alt")
	}
}
