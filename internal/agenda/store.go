package agenda

import (
	"sync"
	"time"

	"upnext/internal/model"
)

// Store is the bounded, ordered item collection one aggregation pass
// produces. A Store is immutable after construction; refreshes build a new
// one and swap it into a Holder.
type Store struct {
	items []model.Item

	// followingEventStart is the start of the first known event after the
	// look-ahead window, zero when none is known. The scheduler uses it to
	// wake up when that event enters the window.
	followingEventStart time.Time
}

func newStore(items []model.Item, followingEventStart time.Time) *Store {
	return &Store{items: items, followingEventStart: followingEventStart}
}

// EmptyStore returns a store with no items.
func EmptyStore() *Store {
	return &Store{}
}

// Items returns the ordered items. Callers must not mutate the slice.
func (s *Store) Items() []model.Item {
	return s.items
}

func (s *Store) Len() int {
	return len(s.items)
}

// At returns the item at position i.
func (s *Store) At(i int) model.Item {
	return s.items[i]
}

func (s *Store) Empty() bool {
	return len(s.items) == 0
}

// FollowingEventStart returns the start of the first known event beyond
// the look-ahead window, or the zero time when none is known.
func (s *Store) FollowingEventStart() time.Time {
	return s.followingEventStart
}

// Holder hands a current Store to concurrent readers and lets the refresh
// worker replace it atomically. Readers holding a snapshot are unaffected
// by a swap.
type Holder struct {
	mu  sync.RWMutex
	cur *Store
}

// Load returns the current store, never nil.
func (h *Holder) Load() *Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.cur == nil {
		return EmptyStore()
	}
	return h.cur
}

// Swap replaces the current store.
func (h *Holder) Swap(s *Store) {
	h.mu.Lock()
	h.cur = s
	h.mu.Unlock()
}

// Clear drops the current store. Used on teardown.
func (h *Holder) Clear() {
	h.Swap(EmptyStore())
}
