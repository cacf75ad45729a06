// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package cache

import (
	"fmt"
	"testing"
)

func TestFIFOCache_GetSet(t *testing.T) {
	c := NewFIFO(10)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	c.Set("a", []string{"x", "y"})
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get after Set missed")
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Get = %v, want [x y]", got)
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, size 1", stats)
	}
}

func TestFIFOCache_Eviction(t *testing.T) {
	t.Run("oldest inserted evicted first", func(t *testing.T) {
		c := NewFIFO(3)
		for i := 0; i < 3; i++ {
			c.Set(fmt.Sprintf("k%d", i), []string{"v"})
		}
		c.Set("k3", []string{"v"})

		if _, ok := c.Get("k0"); ok {
			t.Error("oldest entry k0 survived eviction")
		}
		for _, key := range []string{"k1", "k2", "k3"} {
			if _, ok := c.Get(key); !ok {
				t.Errorf("entry %s missing after eviction", key)
			}
		}
		if got := c.GetStats().Evictions; got != 1 {
			t.Errorf("evictions = %d, want 1", got)
		}
	})

	t.Run("size never exceeds capacity", func(t *testing.T) {
		c := NewFIFO(5)
		for i := 0; i < 50; i++ {
			c.Set(fmt.Sprintf("k%d", i), []string{"v"})
			if c.Len() > 5 {
				t.Fatalf("Len() = %d after insert %d, want <= 5", c.Len(), i)
			}
		}
	})

	t.Run("re-set does not refresh eviction position", func(t *testing.T) {
		c := NewFIFO(2)
		c.Set("a", []string{"1"})
		c.Set("b", []string{"1"})
		c.Set("a", []string{"2"}) // update in place, a stays oldest
		c.Set("c", []string{"1"}) // evicts a

		if _, ok := c.Get("a"); ok {
			t.Error("re-set entry a survived eviction out of insertion order")
		}
		if _, ok := c.Get("b"); !ok {
			t.Error("entry b missing")
		}
	})
}

func TestFIFOCache_Clear(t *testing.T) {
	c := NewFIFO(10)
	c.Set("a", []string{"x"})
	c.Get("a")
	c.Get("missing")

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Clear reset counters: %+v", stats)
	}

	// Cache keeps working after Clear.
	c.Set("b", []string{"y"})
	if _, ok := c.Get("b"); !ok {
		t.Error("Set/Get after Clear failed")
	}
}

func TestFIFOCache_ZeroCapacity(t *testing.T) {
	c := NewFIFO(0)
	c.Set("a", []string{"x"})
	if _, ok := c.Get("a"); !ok {
		t.Error("cache with defaulted capacity rejected entry")
	}
}

func TestFIFOCache_SnapshotRestore(t *testing.T) {
	c := NewFIFO(10)
	c.Set("a", []string{"1", "2"})
	c.Set("b", []string{"3"})

	items, _ := c.Snapshot()

	// Snapshot is detached from the live cache.
	items["a"][0] = "mutated"
	c2 := NewFIFO(10)
	itemsAgain, orderAgain := c.Snapshot()
	if itemsAgain["a"][0] != "1" {
		t.Error("snapshot mutation leaked into cache")
	}
	c2.Restore(itemsAgain, orderAgain)

	got, ok := c2.Get("a")
	if !ok || got[0] != "1" || got[1] != "2" {
		t.Errorf("restored entry a = %v, want [1 2]", got)
	}
	if c2.Len() != 2 {
		t.Errorf("restored Len() = %d, want 2", c2.Len())
	}

	t.Run("restore trims to capacity keeping oldest order prefix", func(t *testing.T) {
		big := NewFIFO(10)
		for i := 0; i < 5; i++ {
			big.Set(fmt.Sprintf("k%d", i), []string{"v"})
		}
		items, order := big.Snapshot()

		small := NewFIFO(2)
		small.Restore(items, order)
		if small.Len() != 2 {
			t.Errorf("Len() = %d, want 2", small.Len())
		}
		if _, ok := small.Get(order[0]); !ok {
			t.Errorf("entry %s missing after trimmed restore", order[0])
		}
	})
}
