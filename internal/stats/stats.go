// Package stats maintains running counts per classification.
package stats

import (
	"sync"

	"logsift/internal/models"
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Normal       int64 `json:"normal"`
	Anomaly      int64 `json:"anomaly"`
	Unidentified int64 `json:"unidentified"`
}

// Total returns the number of records classified since the last reset.
func (s Snapshot) Total() int64 {
	return s.Normal + s.Anomaly + s.Unidentified
}

// Aggregator accumulates classification counts. Record calls are serialized
// under a mutex; Snapshot may be called concurrently by many readers and
// never observes a partially-updated counter.
type Aggregator struct {
	mu     sync.RWMutex
	counts Snapshot
}

// NewAggregator creates an Aggregator with zeroed counters.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record increments the counter matching the classification.
func (a *Aggregator) Record(class models.Classification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch class {
	case models.ClassNormal:
		a.counts.Normal++
	case models.ClassAnomaly:
		a.counts.Anomaly++
	case models.ClassUnidentified:
		a.counts.Unidentified++
	}
}

// Snapshot returns an immutable copy of the current counts.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counts
}

// Reset zeroes all counters.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts = Snapshot{}
}
