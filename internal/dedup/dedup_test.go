package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestIsNewExactlyOnce(t *testing.T) {
	tr := NewTracker()

	if !tr.IsNew("tab-1", "r1") {
		t.Fatal("first IsNew returned false")
	}
	for i := 0; i < 10; i++ {
		if tr.IsNew("tab-1", "r1") {
			t.Fatalf("repeat %d: IsNew returned true for already-seen id", i)
		}
	}
}

func TestContextsAreIndependent(t *testing.T) {
	tr := NewTracker()

	tr.IsNew("tab-1", "r1")
	if !tr.IsNew("notifications", "r1") {
		t.Fatal("same id in a different context should be new")
	}

	tr.Clear("tab-1")
	if !tr.IsNew("tab-1", "r1") {
		t.Fatal("cleared context should start from empty")
	}
	if tr.IsNew("notifications", "r1") {
		t.Fatal("clearing tab-1 must not affect the notification context")
	}
}

func TestMarkBatch(t *testing.T) {
	tr := NewTracker()
	tr.IsNew("notifications", "r2")

	added := tr.MarkBatch("notifications", []string{"r1", "r2", "r3"})
	if added != 2 {
		t.Fatalf("MarkBatch added = %d, want 2", added)
	}
	if tr.Count("notifications") != 3 {
		t.Fatalf("Count = %d, want 3", tr.Count("notifications"))
	}
	if tr.IsNew("notifications", "r3") {
		t.Fatal("batch-marked id reported as new")
	}
}

// IsNew must return true exactly once per (ctx, id) pair regardless of
// concurrency.
func TestIsNewConcurrent(t *testing.T) {
	tr := NewTracker()
	const ids = 50
	const callers = 8

	var wins int64
	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ids; i++ {
				if tr.IsNew("ctx", fmt.Sprintf("r%d", i)) {
					atomic.AddInt64(&wins, 1)
				}
			}
		}()
	}
	wg.Wait()

	if wins != ids {
		t.Fatalf("IsNew returned true %d times, want exactly %d", wins, ids)
	}
}
