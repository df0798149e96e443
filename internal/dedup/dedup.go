// Package dedup tracks which record ids have already been delivered to each
// consumer context (a dashboard stream, the notification channel), so an
// at-least-once broker upstream never becomes more-than-once downstream.
package dedup

import "sync"

// Tracker holds independent seen-id sets per context. Clearing one context
// never affects another.
type Tracker struct {
	mu       sync.Mutex
	contexts map[string]map[string]struct{}
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{contexts: make(map[string]map[string]struct{})}
}

// IsNew returns true and marks the id as seen in one atomic step the first
// time it is asked for a given context; every subsequent ask for the same
// (context, id) pair returns false.
func (t *Tracker) IsNew(contextID, recordID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.contexts[contextID]
	if seen == nil {
		seen = make(map[string]struct{})
		t.contexts[contextID] = seen
	}
	if _, ok := seen[recordID]; ok {
		return false
	}
	seen[recordID] = struct{}{}
	return true
}

// MarkBatch marks every id as seen for the context under a single lock
// acquisition, returning how many were not previously seen.
func (t *Tracker) MarkBatch(contextID string, recordIDs []string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := t.contexts[contextID]
	if seen == nil {
		seen = make(map[string]struct{}, len(recordIDs))
		t.contexts[contextID] = seen
	}
	added := 0
	for _, id := range recordIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			added++
		}
	}
	return added
}

// Seen reports whether the id was already marked for the context, without
// marking it.
func (t *Tracker) Seen(contextID, recordID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.contexts[contextID][recordID]
	return ok
}

// Count returns the number of ids marked for the context.
func (t *Tracker) Count(contextID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.contexts[contextID])
}

// Clear drops the context's state entirely. A later IsNew for the same
// context starts from empty.
func (t *Tracker) Clear(contextID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.contexts, contextID)
}
