// Package recent tracks the most recently viewed article ids per user.
//
// The tracker is deliberately process-local: it is rebuilt empty on every
// restart and is never persisted or shared between users.
package recent

import "sync"

// DefaultCapacity is the per-user bound when no capacity is configured.
const DefaultCapacity = 10

// Tracker keeps a bounded, most-recent-first list of article ids for each
// user. All mutations for a user are serialized under one lock so concurrent
// views cannot corrupt the order.
type Tracker struct {
	capacity int

	mu     sync.Mutex
	byUser map[string][]string
}

// NewTracker constructs a Tracker with the given per-user capacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		byUser:   make(map[string][]string),
	}
}

// RecordView moves articleID to the front of the user's list. An id already
// present is moved, never duplicated; the tail beyond capacity is dropped.
func (t *Tracker) RecordView(userID, articleID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.byUser[userID]
	for i, id := range ids {
		if id == articleID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	ids = append([]string{articleID}, ids...)
	if len(ids) > t.capacity {
		ids = ids[:t.capacity]
	}
	t.byUser[userID] = ids
}

// RecentIDs returns a copy of the user's list, most recent first. Users with
// no recorded views get an empty slice.
func (t *Tracker) RecentIDs(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.byUser[userID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
