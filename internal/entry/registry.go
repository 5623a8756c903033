// Package entry holds the per-round entrant registry. One registry exists per
// drawing run; chat handlers register into it concurrently while the drawing
// cycle opens and closes rounds.
package entry

import "sync"

// RegisterResult tells a chat handler what happened to a registration attempt.
type RegisterResult int

const (
	// Registered means the entrant was added to the open round.
	Registered RegisterResult = iota
	// AlreadyRegistered means the entrant was in the round already. Not an
	// error, but the caller is told so it can acknowledge differently.
	AlreadyRegistered
	// RoundClosed means no round is accepting entrants right now.
	RoundClosed
	// NotEligible means the entrant already won an item in this run.
	NotEligible
)

// Registry is a mutex-guarded, append-once set of entrant names for the
// currently open entry window. Registration, round close and the winner
// snapshot are mutually exclusive, so every registration that completes
// before CloseRound is in the snapshot and none after it are.
type Registry struct {
	mu       sync.Mutex
	open     bool
	order    []string
	seen     map[string]bool
	excluded map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		seen:     make(map[string]bool),
		excluded: make(map[string]bool),
	}
}

// OpenRound starts a fresh entry window. Residual registrations from the
// previous round are discarded; the winner-exclusion set persists for the
// whole run.
func (r *Registry) OpenRound() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.open = true
	r.order = r.order[:0]
	r.seen = make(map[string]bool)
}

// Register adds an entrant to the open round. Registering twice is a no-op
// reported as AlreadyRegistered.
func (r *Registry) Register(name string) RegisterResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return RoundClosed
	}
	if r.excluded[name] {
		return NotEligible
	}
	if r.seen[name] {
		return AlreadyRegistered
	}

	r.seen[name] = true
	r.order = append(r.order, name)
	return Registered
}

// CloseRound ends the entry window and returns a consistent snapshot of the
// entrants, in registration order. Registrations attempted after CloseRound
// returns observe a closed round.
func (r *Registry) CloseRound() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.open = false
	snapshot := make([]string, len(r.order))
	copy(snapshot, r.order)
	return snapshot
}

// ExcludeWinner removes a winner from eligibility for the rest of the run.
func (r *Registry) ExcludeWinner(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.excluded[name] = true
}

// Count returns the number of entrants currently registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.order)
}

// IsOpen reports whether an entry window is accepting registrations.
func (r *Registry) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.open
}
