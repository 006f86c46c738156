package cache

import (
	"testing"
	"time"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("snapshot", "v1")
	c.Set("table:2024", "t")
	now = now.Add(30 * time.Second)
	c.Set("table:2023", "t")

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("snapshot"); ok {
		t.Error("snapshot should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if v, ok := c.Get("table:2023"); !ok || v != "t" {
		t.Errorf("Get(table:2023) = %q, %v", v, ok)
	}
}

func TestLRUCache_OverwriteDeleteClear(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 || c.Size() != 1 {
		t.Fatalf("overwrite failed: v=%d size=%d", v, c.Size())
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be gone after Delete")
	}

	c.Set("x", 1)
	c.Set("y", 2)
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d", c.Size())
	}
	c.Set("z", 3)
	if v, ok := c.Get("z"); !ok || v != 3 {
		t.Error("cache should be usable after Clear")
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.Stop() // not started

	now = now.Add(2 * time.Second)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
}
