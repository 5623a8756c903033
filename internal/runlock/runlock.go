// Package runlock implements the single-instance drawing marker: a small
// JSON file recording which process is drawing which giveaway. A marker whose
// process is no longer alive is stale and gets reclaimed on the next Acquire.
package runlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

// ErrHeld is returned when a live process already holds the marker.
var ErrHeld = errors.New("a drawing is already running")

// Info is the marker file contents.
type Info struct {
	PID        int       `json:"pid"`
	GiveawayID int64     `json:"giveaway_id"`
	StartedAt  time.Time `json:"started_at"`
}

// Lock is an acquired marker.
type Lock struct {
	path string
}

// processAlive is injectable for tests.
var processAlive = defaultProcessAlive

func defaultProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Read returns the current marker, or nil if none exists.
func Read(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drawing marker: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse drawing marker: %w", err)
	}
	return &info, nil
}

// Acquire takes the marker for this process. A marker held by a live process
// fails with ErrHeld; a stale marker (referenced process is gone) is removed
// and acquisition proceeds.
func Acquire(path string, giveawayID int64) (*Lock, error) {
	existing, err := Read(path)
	if err != nil {
		// An unreadable marker blocks nothing; replace it.
		logger.Warn("Unreadable drawing marker, replacing", zap.String("path", path), zap.Error(err))
	} else if existing != nil {
		if processAlive(existing.PID) {
			return nil, fmt.Errorf("%w (pid=%d, giveaway=%d)", ErrHeld, existing.PID, existing.GiveawayID)
		}
		logger.Info("Stale drawing marker found, reclaiming",
			zap.Int("pid", existing.PID),
			zap.Int64("giveaway_id", existing.GiveawayID))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale marker: %w", err)
		}
	}

	info := Info{
		PID:        os.Getpid(),
		GiveawayID: giveawayID,
		StartedAt:  time.Now(),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drawing marker: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write drawing marker: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the marker. Safe to call on an already-released lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to remove drawing marker", zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("failed to remove drawing marker: %w", err)
	}
	return nil
}
