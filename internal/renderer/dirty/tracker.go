package dirty

import (
	"slices"
	"sync"
)

// ChangeType classifies screen damage.
type ChangeType uint8

const (
	// ChangeContent indicates widget text changed.
	ChangeContent ChangeType = iota
	// ChangeStyle indicates only attributes changed.
	ChangeStyle
	// ChangeMove indicates a widget moved, resized, appeared or vanished.
	ChangeMove
	// ChangeScroll indicates a widget scrolled its content.
	ChangeScroll
	// ChangeResize indicates the screen was resized.
	ChangeResize
)

// String returns the change type name.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeContent:
		return "content"
	case ChangeStyle:
		return "style"
	case ChangeMove:
		return "move"
	case ChangeScroll:
		return "scroll"
	case ChangeResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Change is one damage report.
type Change struct {
	Type   ChangeType
	Region Region
}

// Tracker accumulates damage between render passes and coalesces it. Past
// a configurable share of the screen it gives up and requests a full
// redraw. A Tracker is safe for concurrent use.
type Tracker struct {
	mu sync.RWMutex

	regions    []Region
	fullRedraw bool
	maxRegions int
	width      int
	height     int
	threshold  float64
}

// DefaultThreshold is the dirty share past which a new tracker requests a
// full redraw.
const DefaultThreshold = 0.5

// NewTracker creates a tracker for a screen of the given size.
// Negative dimensions are treated as zero.
func NewTracker(width, height int) *Tracker {
	return &Tracker{
		regions:    make([]Region, 0, 16),
		maxRegions: 32,
		width:      max(width, 0),
		height:     max(height, 0),
		threshold:  DefaultThreshold,
	}
}

// SetScreenSize updates the screen size and requests a full redraw.
func (t *Tracker) SetScreenSize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.width = max(width, 0)
	t.height = max(height, 0)
	t.fullRedraw = true
	t.regions = t.regions[:0]
}

// MarkFullRedraw requests that the whole screen be repainted.
func (t *Tracker) MarkFullRedraw() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fullRedraw = true
	t.regions = t.regions[:0]
}

// MarkRow marks one row dirty.
func (t *Tracker) MarkRow(row int) {
	t.MarkRegion(NewRowRegion(row, row))
}

// MarkRows marks rows start..end (inclusive) dirty.
func (t *Tracker) MarkRows(start, end int) {
	t.MarkRegion(NewRowRegion(start, end))
}

// MarkRegion marks a region dirty.
func (t *Tracker) MarkRegion(region Region) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fullRedraw {
		return
	}
	t.addRegion(region)
}

// MarkChange records a damage report. Screen resizes force a full redraw.
func (t *Tracker) MarkChange(change Change) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fullRedraw {
		return
	}
	if change.Type == ChangeResize {
		t.fullRedraw = true
		t.regions = t.regions[:0]
		return
	}
	t.addRegion(change.Region)
}

// addRegion clamps, merges and stores a region. Must be called with the
// lock held.
func (t *Tracker) addRegion(region Region) {
	if t.height == 0 || region.IsEmpty() {
		return
	}
	region.StartRow = max(region.StartRow, 0)
	region.EndRow = min(region.EndRow, t.height-1)
	if !region.FullWidth {
		region.StartCol = max(region.StartCol, 0)
		region.EndCol = min(region.EndCol, t.width)
	}
	if region.IsEmpty() {
		return
	}

	for i := range t.regions {
		if merged, ok := t.regions[i].Merge(region); ok {
			t.regions[i] = merged
			t.coalesce()
			return
		}
	}
	t.regions = append(t.regions, region)
	if len(t.regions) > t.maxRegions {
		t.coalesce()
	}
	if len(t.regions) > t.maxRegions || t.dirtyRatio() > t.threshold {
		t.fullRedraw = true
		t.regions = t.regions[:0]
	}
}

// coalesce merges overlapping or touching regions until none remain.
func (t *Tracker) coalesce() {
	for changed := true; changed; {
		changed = false
	scan:
		for i := 0; i < len(t.regions); i++ {
			for j := i + 1; j < len(t.regions); j++ {
				if merged, ok := t.regions[i].Merge(t.regions[j]); ok {
					t.regions[i] = merged
					t.regions = append(t.regions[:j], t.regions[j+1:]...)
					changed = true
					break scan
				}
			}
		}
	}
}

func (t *Tracker) dirtyRatio() float64 {
	if t.width == 0 || t.height == 0 {
		return 0
	}
	total := float64(t.width) * float64(t.height)
	var dirty float64
	for _, r := range t.regions {
		cols := t.width
		if !r.FullWidth {
			cols = r.EndCol - r.StartCol
		}
		dirty += float64(r.RowCount()) * float64(cols)
	}
	return dirty / total
}

// IsDirty returns true if anything was marked since the last Clear.
func (t *Tracker) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw || len(t.regions) > 0
}

// NeedsFullRedraw returns true if the whole screen must be repainted.
func (t *Tracker) NeedsFullRedraw() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw
}

// Regions returns a copy of the dirty regions, or one region covering the
// screen when a full redraw is pending.
func (t *Tracker) Regions() []Region {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fullRedraw {
		if t.height == 0 {
			return nil
		}
		return []Region{NewRowRegion(0, t.height-1)}
	}
	return slices.Clone(t.regions)
}

// Rows returns the dirty row indices in ascending order.
func (t *Tracker) Rows() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fullRedraw {
		rows := make([]int, t.height)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	seen := make(map[int]struct{})
	for _, r := range t.regions {
		for row := r.StartRow; row <= r.EndRow; row++ {
			seen[row] = struct{}{}
		}
	}
	rows := make([]int, 0, len(seen))
	for row := range seen {
		rows = append(rows, row)
	}
	slices.Sort(rows)
	return rows
}

// IsRowDirty returns true if row needs repainting.
func (t *Tracker) IsRowDirty(row int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fullRedraw {
		return row >= 0 && row < t.height
	}
	for _, r := range t.regions {
		if r.ContainsRow(row) {
			return true
		}
	}
	return false
}

// Clear forgets all damage.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.regions = t.regions[:0]
	t.fullRedraw = false
}

// SetThreshold sets the dirty share of the screen, 0-1, past which a full
// redraw is requested.
func (t *Tracker) SetThreshold(threshold float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = min(max(threshold, 0), 1)
}

// Threshold returns the full-redraw threshold.
func (t *Tracker) Threshold() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threshold
}

// SetMaxRegions sets how many separate regions are kept before a full
// redraw is requested. Values below 1 are clamped to 1.
func (t *Tracker) SetMaxRegions(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxRegions = max(n, 1)
}

// TrackerStats describes the tracker state.
type TrackerStats struct {
	RegionCount int
	FullRedraw  bool
	DirtyRatio  float64
}

// Stats returns the tracker state.
func (t *Tracker) Stats() TrackerStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TrackerStats{
		RegionCount: len(t.regions),
		FullRedraw:  t.fullRedraw,
		DirtyRatio:  t.dirtyRatio(),
	}
}
