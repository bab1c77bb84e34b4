package dirty

import "testing"

func TestNewRowRegionOrdersRows(t *testing.T) {
	r := NewRowRegion(7, 3)
	if r.StartRow != 3 || r.EndRow != 7 || !r.FullWidth {
		t.Errorf("unexpected region %+v", r)
	}
	if r.RowCount() != 5 {
		t.Errorf("RowCount = %d, want 5", r.RowCount())
	}
}

func TestRegionIsEmpty(t *testing.T) {
	if !NewCellRegion(2, 2, 4, 4).IsEmpty() {
		t.Error("zero-width cell region should be empty")
	}
	if NewRowRegion(0, 0).IsEmpty() {
		t.Error("single row should not be empty")
	}
	if !(Region{StartRow: 1, EndRow: 0, FullWidth: true}).IsEmpty() {
		t.Error("inverted rows should be empty")
	}
}

func TestRegionContains(t *testing.T) {
	r := NewCellRegion(1, 2, 5, 10)
	if !r.Contains(1, 5) || !r.Contains(2, 9) {
		t.Error("expected corner cells inside")
	}
	if r.Contains(2, 10) || r.Contains(3, 5) || r.Contains(0, 6) {
		t.Error("cells outside should not be contained")
	}
}

func TestRegionOverlaps(t *testing.T) {
	a := NewCellRegion(0, 2, 0, 5)
	if !a.Overlaps(NewCellRegion(2, 4, 4, 8)) {
		t.Error("expected overlap at (2,4)")
	}
	if a.Overlaps(NewCellRegion(0, 2, 5, 8)) {
		t.Error("half-open columns should not overlap")
	}
	if !a.Overlaps(NewRowRegion(1, 1)) {
		t.Error("full-width region overlaps on shared rows")
	}
}

func TestRegionMerge(t *testing.T) {
	m, ok := NewRowRegion(0, 2).Merge(NewRowRegion(3, 5))
	if !ok || m.StartRow != 0 || m.EndRow != 5 {
		t.Errorf("adjacent rows should merge, got %+v %v", m, ok)
	}
	if _, ok := NewRowRegion(0, 2).Merge(NewRowRegion(4, 5)); ok {
		t.Error("rows with a gap should not merge")
	}
	m, ok = NewCellRegion(1, 1, 0, 3).Merge(NewCellRegion(1, 1, 3, 6))
	if !ok || m.StartCol != 0 || m.EndCol != 6 {
		t.Errorf("touching columns should merge, got %+v %v", m, ok)
	}
	if _, ok := NewCellRegion(1, 1, 0, 3).Merge(NewCellRegion(2, 2, 4, 6)); ok {
		t.Error("diagonal neighbours should not merge")
	}
}

func TestRuns(t *testing.T) {
	runs := Runs([]int{0, 1, 2, 5, 7, 8})
	want := [][2]int{{0, 2}, {5, 5}, {7, 8}}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %+v", len(want), runs)
	}
	for i, w := range want {
		if runs[i].StartRow != w[0] || runs[i].EndRow != w[1] {
			t.Errorf("run %d = %d..%d, want %d..%d", i, runs[i].StartRow, runs[i].EndRow, w[0], w[1])
		}
	}
	if Runs(nil) != nil {
		t.Error("no rows should give no runs")
	}
}
