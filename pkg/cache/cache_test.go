package cache

import (
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("valid size", func(t *testing.T) {
		c := New(100)
		if c.maxSize != 100 {
			t.Errorf("maxSize = %d, want 100", c.maxSize)
		}
		if !c.enabled {
			t.Error("cache should be enabled by default")
		}
	})

	t.Run("zero size uses default", func(t *testing.T) {
		c := New(0)
		if c.maxSize != 10000 {
			t.Errorf("maxSize = %d, want 10000 (default)", c.maxSize)
		}
	})

	t.Run("negative size uses default", func(t *testing.T) {
		c := New(-5)
		if c.maxSize != 10000 {
			t.Errorf("maxSize = %d, want 10000 (default)", c.maxSize)
		}
	})
}

func TestCache_GetPut(t *testing.T) {
	c := New(10)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put("a", 1)
	v, ok := c.Get("a")
	if !ok || v.(int) != 1 {
		t.Errorf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	c.Put("a", 2)
	v, ok = c.Get("a")
	if !ok || v.(int) != 2 {
		t.Errorf("Get(a) after update = %v, %v; want 2, true", v, ok)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3) // evicts "a" (least recently used)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to still be cached")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to still be cached")
	}
}

func TestCache_LRUTouchOnGet(t *testing.T) {
	c := New(2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")        // touch a, making b the least recently used
	c.Put("c", 3)      // should evict b, not a

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted after a was touched")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive eviction")
	}
}

func TestCache_BumpInvalidatesEntries(t *testing.T) {
	c := New(10)
	c.Put("a", 1)

	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before bump")
	}

	c.Bump()

	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after epoch bump")
	}

	// Re-populating after the bump stamps the new epoch.
	c.Put("a", 2)
	if v, ok := c.Get("a"); !ok || v.(int) != 2 {
		t.Errorf("Get(a) after repopulate = %v, %v; want 2, true", v, ok)
	}
}

func TestCache_RemoveAndClear(t *testing.T) {
	c := New(10)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a removed")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCache_Stats(t *testing.T) {
	c := New(10)
	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
}

func TestCache_SetEnabledFalseClears(t *testing.T) {
	c := New(10)
	c.Put("a", 1)
	c.SetEnabled(false)

	if _, ok := c.Get("a"); ok {
		t.Error("expected miss while disabled")
	}
	c.Put("b", 2)
	if _, ok := c.Get("b"); ok {
		t.Error("expected Put to be a no-op while disabled")
	}

	c.SetEnabled(true)
	c.Put("c", 3)
	if _, ok := c.Get("c"); !ok {
		t.Error("expected hit after re-enabling")
	}
}
