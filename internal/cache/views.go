package cache

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ViewKey identifies one derived view of one ledger version. A new ledger
// version never matches an older key, so entries are never stale.
type ViewKey struct {
	Version uint64
	View    string
	Year    int
	Month   int
}

func (k ViewKey) String() string {
	return fmt.Sprintf("%d/%s/%04d-%02d", k.Version, k.View, k.Year, k.Month)
}

// Views memoizes derived views and coalesces concurrent computations of the
// same key.
type Views struct {
	lru    *LRU[ViewKey, any]
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewViews creates a view cache holding at most size entries.
func NewViews(size int) *Views {
	return &Views{lru: NewLRU[ViewKey, any](size)}
}

// Stats returns the hit and miss counts since creation.
func (v *Views) Stats() (hits, misses uint64) {
	return v.hits.Load(), v.misses.Load()
}

// Len returns the number of cached views.
func (v *Views) Len() int {
	return v.lru.Len()
}

// Forget drops every view computed for a version older than version.
func (v *Views) Forget(version uint64) int {
	return v.lru.DeleteFunc(func(k ViewKey) bool { return k.Version < version })
}

// Lookup returns the cached view for key, computing it at most once across
// concurrent callers. Errors are not cached.
func Lookup[T any](v *Views, key ViewKey, compute func() (T, error)) (T, error) {
	if cached, ok := v.lru.Get(key); ok {
		if view, ok := cached.(T); ok {
			v.hits.Add(1)
			return view, nil
		}
	}
	v.misses.Add(1)

	res, err, _ := v.group.Do(key.String(), func() (any, error) {
		view, err := compute()
		if err != nil {
			return nil, err
		}
		v.lru.Set(key, view)
		return view, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
