package entry

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegister_Idempotent(t *testing.T) {
	r := NewRegistry()
	r.OpenRound()

	if got := r.Register("alice"); got != Registered {
		t.Fatalf("unexpected result: got=%v want=%v", got, Registered)
	}
	if got := r.Register("alice"); got != AlreadyRegistered {
		t.Fatalf("unexpected result: got=%v want=%v", got, AlreadyRegistered)
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("unexpected entrant count: got=%d want=1", got)
	}
}

func TestRegister_ClosedRound(t *testing.T) {
	r := NewRegistry()

	if got := r.Register("alice"); got != RoundClosed {
		t.Fatalf("register before open: got=%v want=%v", got, RoundClosed)
	}

	r.OpenRound()
	r.Register("alice")
	snapshot := r.CloseRound()

	if got := r.Register("bob"); got != RoundClosed {
		t.Fatalf("register after close: got=%v want=%v", got, RoundClosed)
	}
	if len(snapshot) != 1 || snapshot[0] != "alice" {
		t.Fatalf("unexpected snapshot: got=%v want=[alice]", snapshot)
	}
}

func TestOpenRound_ClearsResidualEntrants(t *testing.T) {
	r := NewRegistry()
	r.OpenRound()
	r.Register("alice")
	r.Register("bob")
	r.CloseRound()

	r.OpenRound()
	if got := r.Count(); got != 0 {
		t.Fatalf("residual entrants after reopen: got=%d want=0", got)
	}
	if got := r.Register("alice"); got != Registered {
		t.Fatalf("re-register in new round: got=%v want=%v", got, Registered)
	}
}

func TestExcludeWinner_PersistsAcrossRounds(t *testing.T) {
	r := NewRegistry()
	r.OpenRound()
	r.Register("alice")
	r.CloseRound()
	r.ExcludeWinner("alice")

	r.OpenRound()
	if got := r.Register("alice"); got != NotEligible {
		t.Fatalf("excluded winner re-registered: got=%v want=%v", got, NotEligible)
	}
	if got := r.Register("bob"); got != Registered {
		t.Fatalf("unexpected result for fresh entrant: got=%v want=%v", got, Registered)
	}
}

func TestRegister_ConcurrentEntrantsAllCounted(t *testing.T) {
	r := NewRegistry()
	r.OpenRound()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each name registered twice; duplicates must collapse.
			name := fmt.Sprintf("user_%03d", i%50)
			r.Register(name)
		}(i)
	}
	wg.Wait()

	snapshot := r.CloseRound()
	if len(snapshot) != 50 {
		t.Fatalf("unexpected snapshot size: got=%d want=50", len(snapshot))
	}

	seen := make(map[string]bool)
	for _, name := range snapshot {
		if seen[name] {
			t.Fatalf("duplicate entrant in snapshot: %s", name)
		}
		seen[name] = true
	}
}

func TestCloseRound_SnapshotIsStable(t *testing.T) {
	r := NewRegistry()
	r.OpenRound()
	r.Register("alice")

	snapshot := r.CloseRound()

	// A later round must not mutate the returned snapshot.
	r.OpenRound()
	r.Register("bob")

	if len(snapshot) != 1 || snapshot[0] != "alice" {
		t.Fatalf("snapshot mutated: got=%v want=[alice]", snapshot)
	}
}
