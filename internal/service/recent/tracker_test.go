package recent

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRecordViewMovesToFrontWithoutDuplicate(t *testing.T) {
	tr := NewTracker(10)

	tr.RecordView("alice", "a1")
	tr.RecordView("alice", "a2")
	tr.RecordView("alice", "a3")
	tr.RecordView("alice", "a1")

	got := tr.RecentIDs("alice")
	want := []string{"a1", "a3", "a2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestRecordViewSameIDTwiceKeepsLengthStable(t *testing.T) {
	tr := NewTracker(10)

	tr.RecordView("alice", "a1")
	tr.RecordView("alice", "a2")
	tr.RecordView("alice", "a2")

	got := tr.RecentIDs("alice")
	if len(got) != 2 {
		t.Fatalf("expected 2 ids, got %v", got)
	}
	if got[0] != "a2" {
		t.Fatalf("expected a2 at front, got %v", got)
	}
}

func TestRecordViewDropsTailBeyondCapacity(t *testing.T) {
	tr := NewTracker(10)

	for i := 1; i <= 15; i++ {
		tr.RecordView("alice", fmt.Sprintf("a%d", i))
	}

	got := tr.RecentIDs("alice")
	if len(got) != 10 {
		t.Fatalf("expected 10 ids, got %d", len(got))
	}
	// most recent first: a15 down to a6
	for i := 0; i < 10; i++ {
		want := fmt.Sprintf("a%d", 15-i)
		if got[i] != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i])
		}
	}
}

func TestRecentIDsEmptyForUnknownUser(t *testing.T) {
	tr := NewTracker(10)
	if got := tr.RecentIDs("nobody"); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestRecentIDsReturnsCopy(t *testing.T) {
	tr := NewTracker(10)
	tr.RecordView("alice", "a1")
	tr.RecordView("alice", "a2")

	got := tr.RecentIDs("alice")
	got[0] = "mutated"

	if again := tr.RecentIDs("alice"); again[0] != "a2" {
		t.Fatalf("internal state mutated through returned slice: %v", again)
	}
}

func TestTrackersAreIndependentPerUser(t *testing.T) {
	tr := NewTracker(10)
	tr.RecordView("alice", "a1")
	tr.RecordView("bob", "b1")

	if got := tr.RecentIDs("alice"); len(got) != 1 || got[0] != "a1" {
		t.Fatalf("unexpected alice list: %v", got)
	}
	if got := tr.RecentIDs("bob"); len(got) != 1 || got[0] != "b1" {
		t.Fatalf("unexpected bob list: %v", got)
	}
}

func TestConcurrentRecordViewKeepsInvariants(t *testing.T) {
	tr := NewTracker(10)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tr.RecordView("alice", fmt.Sprintf("a%d", i%20))
			}
		}(g)
	}
	wg.Wait()

	got := tr.RecentIDs("alice")
	if len(got) > 10 {
		t.Fatalf("capacity exceeded: %d ids", len(got))
	}
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate id %s in %v", id, got)
		}
		seen[id] = true
	}
}
