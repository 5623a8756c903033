package drawing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nantokaworks/twitch-giveaway/internal/entry"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/runlock"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// State is the lifecycle state of a drawing run.
type State int

const (
	StateConfigured State = iota
	StateDrawing
	StateConcluded
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateDrawing:
		return "drawing"
	case StateConcluded:
		return "concluded"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyRunning means a drawing is in progress for this process.
	ErrAlreadyRunning = errors.New("a drawing is already in progress")
	// ErrNotRunning means stop was requested with nothing running.
	ErrNotRunning = errors.New("no drawing is running")
)

// Manager owns the at-most-one drawing run per process. It holds the
// single-instance marker while a run is live and tears it down on any exit
// path (conclusion, stop, fault).
type Manager struct {
	mu        sync.Mutex
	announcer Announcer
	lockPath  string

	running   bool
	giveaway  types.Giveaway
	registry  *entry.Registry
	cancel    context.CancelFunc
	done      chan struct{}
	lastState State
}

func NewManager(announcer Announcer, lockPath string) *Manager {
	return &Manager{
		announcer: announcer,
		lockPath:  lockPath,
		lastState: StateConfigured,
	}
}

// Start begins drawing the given giveaway. Fails with localdb.ErrNotFound if
// the giveaway does not exist and ErrAlreadyRunning if this process (or a
// live marker holder) is already drawing. A stale marker is reclaimed.
func (m *Manager) Start(giveawayID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	giveaway, err := localdb.GetGiveaway(giveawayID)
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(m.lockPath, giveawayID)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			return fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
		}
		return fmt.Errorf("failed to acquire drawing marker: %w", err)
	}

	registry := entry.NewRegistry()
	cycle := &Cycle{
		Giveaway:  *giveaway,
		Registry:  registry,
		Announcer: m.announcer,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.running = true
	m.giveaway = *giveaway
	m.registry = registry
	m.cancel = cancel
	m.done = done
	m.lastState = StateDrawing

	logger.Info("Drawing started",
		zap.Int64("giveaway_id", giveaway.ID),
		zap.String("title", giveaway.Title))

	go m.run(ctx, cycle, lock, done)

	return nil
}

// run supervises one cycle to completion and releases the marker on every
// exit path.
func (m *Manager) run(ctx context.Context, cycle *Cycle, lock *runlock.Lock, done chan struct{}) {
	err := cycle.Run(ctx)

	final := StateConcluded
	switch {
	case errors.Is(err, context.Canceled):
		final = StateAborted
		cycle.announce(fmt.Sprintf("The giveaway '%s' has been stopped. Thank you for participating!", cycle.Giveaway.Title))
		logger.Info("Drawing stopped", zap.Int64("giveaway_id", cycle.Giveaway.ID))
	case err != nil:
		final = StateAborted
		logger.Error("Drawing aborted on fault",
			zap.Int64("giveaway_id", cycle.Giveaway.ID),
			zap.Error(err))
	}

	if err := lock.Release(); err != nil {
		logger.Error("Failed to release drawing marker", zap.Error(err))
	}

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.registry = nil
	m.lastState = final
	m.mu.Unlock()

	close(done)
}

// Stop cancels an in-progress run, even one suspended in its entry-window
// wait, and blocks until teardown finishes. Returns ErrNotRunning when
// nothing was running (or a different giveaway was).
func (m *Manager) Stop(giveawayID int64) error {
	m.mu.Lock()
	if !m.running || m.giveaway.ID != giveawayID {
		m.mu.Unlock()
		return ErrNotRunning
	}
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	cancel()
	<-done

	return nil
}

// Current returns the giveaway being drawn and its registry.
func (m *Manager) Current() (types.Giveaway, *entry.Registry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return types.Giveaway{}, nil, false
	}
	return m.giveaway, m.registry, true
}

// State returns the lifecycle state of the latest run.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastState
}

// Wait blocks until the current run finishes. Returns immediately when
// nothing is running. Intended for tests and shutdown.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	running := m.running
	m.mu.Unlock()

	if running && done != nil {
		<-done
	}
}
