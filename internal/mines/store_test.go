package mines

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStorePatchAndObserverOrder(t *testing.T) {
	s := NewStore()
	var seen []int
	cancel := s.Subscribe(func(sess Session, ok bool) {
		if !ok {
			seen = append(seen, -1)
			return
		}
		seen = append(seen, sess.Revealed.Len())
	})

	s.Patch(Patch{Revealed: NewCellSet(1)})
	if _, ok := s.Snapshot(); ok {
		t.Fatal("Patch on empty store created a session")
	}

	s.Replace(Session{Active: true, HazardCount: 3, Multiplier: decimal.NewFromInt(1)})
	s.Patch(Patch{Revealed: NewCellSet(1, 2)})
	m := dec("1.5")
	s.Patch(Patch{Multiplier: &m})
	s.Reset()

	want := []int{-1, 0, 2, 2, -1}
	if len(seen) != len(want) {
		t.Fatalf("observer calls = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observer calls = %v, want %v", seen, want)
		}
	}

	cancel()
	s.Replace(Session{})
	if len(seen) != len(want) {
		t.Fatalf("observer ran after cancel: %v", seen)
	}
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Replace(Session{Active: true, Revealed: NewCellSet(0)})

	snap, _ := s.Snapshot()
	snap.Revealed[7] = struct{}{}

	again, _ := s.Snapshot()
	if again.Revealed.Has(7) {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}
