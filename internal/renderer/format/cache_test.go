package format

import "testing"

func TestCacheHitAndMiss(t *testing.T) {
	cache := NewCache(NewFormatter(nil), 10)
	opts := Options{Width: 5}

	first := cache.Get(1, "Hello", opts)
	second := cache.Get(1, "Hello", opts)
	if first != second {
		t.Error("second Get should return the cached content")
	}
	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %+v", stats)
	}

	if cache.Get(1, "World", opts) == first {
		t.Error("changed text must not reuse the cached content")
	}
	if cache.Get(1, "World", Options{Width: 6}).Width != 6 {
		t.Error("changed width must re-format")
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(NewFormatter(nil), 0)
	cache.Get(1, "a", Options{Width: 1})
	cache.Get(2, "b", Options{Width: 1})
	cache.Invalidate(1)
	if cache.Size() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Size())
	}
	cache.InvalidateAll()
	if cache.Size() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Size())
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(NewFormatter(nil), 2)
	cache.Get(1, "a", Options{Width: 1})
	cache.Get(2, "b", Options{Width: 1})
	cache.Get(3, "c", Options{Width: 1})

	if cache.Size() != 2 {
		t.Errorf("expected 2 entries after eviction, got %d", cache.Size())
	}
	if cache.Stats().Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", cache.Stats().Evictions)
	}
}
