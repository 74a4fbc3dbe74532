package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v (%v)", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestLRUSetReplaces(t *testing.T) {
	c := NewLRU[string, int](0)
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 || c.Len() != 1 {
		t.Fatalf("expected a single entry a=2, got %d entries, a=%d", c.Len(), v)
	}
	c.Delete("a")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}

func TestViewsLookupCachesPerVersion(t *testing.T) {
	v := NewViews(8)
	calls := 0
	compute := func() (string, error) {
		calls++
		return "sheet", nil
	}

	key := ViewKey{Version: 1, View: "daily", Year: 2025, Month: 1}
	for i := 0; i < 3; i++ {
		got, err := Lookup(v, key, compute)
		if err != nil || got != "sheet" {
			t.Fatalf("unexpected result %q (%v)", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}

	key.Version = 2
	if _, err := Lookup(v, key, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a new version to recompute, got %d calls", calls)
	}

	if removed := v.Forget(2); removed != 1 || v.Len() != 1 {
		t.Fatalf("expected one stale view removed, got %d (len %d)", removed, v.Len())
	}
	hits, misses := v.Stats()
	if hits != 2 || misses != 2 {
		t.Fatalf("unexpected stats hits=%d misses=%d", hits, misses)
	}
}

func TestViewsLookupDoesNotCacheErrors(t *testing.T) {
	v := NewViews(8)
	key := ViewKey{Version: 1, View: "monthly", Year: 2025}
	boom := errors.New("boom")

	if _, err := Lookup(v, key, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, err := Lookup(v, key, func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("expected recomputation after error, got %d (%v)", got, err)
	}
}

func TestViewsLookupCoalescesConcurrentCalls(t *testing.T) {
	v := NewViews(8)
	key := ViewKey{Version: 3, View: "daily", Year: 2025, Month: 5}
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Lookup(v, key, func() (int, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected a single computation, got %d", calls.Load())
	}
}
