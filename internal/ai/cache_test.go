package ai

import (
	"testing"
	"time"
)

func TestResponseCache_MissThenHit(t *testing.T) {
	c := NewResponseCache(time.Hour)

	if _, ok := c.Get("fp1"); ok {
		t.Fatal("Get() on empty cache should miss")
	}

	want := RouteResult{Task: TaskNavigator, Source: SourceRules, Confidence: 0.9}
	c.Set("fp1", want, time.Minute)

	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("Get() after Set should hit")
	}
	if got.Confidence != want.Confidence || got.Source != want.Source {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestResponseCache_LazyExpiry(t *testing.T) {
	c := NewResponseCache(time.Hour)

	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set("fp1", RouteResult{Source: SourceRules}, time.Minute)

	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}

	// Expired entries are counted by Size until a read sweeps them.
	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1 (expired but unswept)", c.Size())
	}

	if _, ok := c.Get("fp1"); ok {
		t.Error("Get() should treat an expired entry as absent")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after lazy eviction", c.Size())
	}
}

func TestResponseCache_Overwrite(t *testing.T) {
	c := NewResponseCache(time.Hour)

	c.Set("fp1", RouteResult{Source: SourceRules}, time.Minute)
	c.Set("fp1", RouteResult{Source: SourceCheap}, time.Minute)

	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("Get() should hit")
	}
	if got.Source != SourceCheap {
		t.Errorf("Source = %q, want %q (Set must overwrite unconditionally)", got.Source, SourceCheap)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestResponseCache_DefaultTTL(t *testing.T) {
	c := NewResponseCache(time.Minute)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("fp1", RouteResult{Source: SourceRules}, 0)

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	if _, ok := c.Get("fp1"); !ok {
		t.Error("entry should still be live within the default TTL")
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("fp1"); ok {
		t.Error("entry should expire after the default TTL")
	}
}

func TestResponseCache_HitRate(t *testing.T) {
	c := NewResponseCache(time.Hour)

	if got := c.HitRate(); got != 0 {
		t.Errorf("HitRate() = %v, want 0 before any reads", got)
	}

	c.Set("fp1", RouteResult{}, time.Minute)
	c.Get("fp1")    // hit
	c.Get("absent") // miss

	if got := c.HitRate(); got != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", got)
	}
}
