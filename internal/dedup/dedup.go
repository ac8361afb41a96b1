// Package dedup suppresses rapid repeats of the same search query.
// Browser search UIs fire the same query several times in quick succession
// (keystroke debounce, retries, page reloads); a small FIFO window absorbs
// that without persistent state or timestamps.
package dedup

import "sync"

// DefaultCapacity is the window size used when none is given.
const DefaultCapacity = 3

// Window is a capacity-bounded FIFO of recently seen query strings.
// It is safe for concurrent use. Matching is exact and case-sensitive:
// "Cats" and "cats" are different queries.
type Window struct {
	mu       sync.Mutex
	capacity int
	entries  []string
}

// New creates a Window holding up to capacity queries.
// A capacity below 1 falls back to DefaultCapacity.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Window{capacity: capacity}
}

// Contains reports whether query is currently in the window.
func (w *Window) Contains(query string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, q := range w.entries {
		if q == query {
			return true
		}
	}
	return false
}

// Record adds query to the window, evicting the oldest entry when full.
// Callers only record queries that were not already present.
func (w *Window) Record(query string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, query)
	if len(w.entries) > w.capacity {
		w.entries = w.entries[1:]
	}
}

// Len returns the number of queries currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
