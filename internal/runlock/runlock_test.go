package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.lock")

	lock, err := Acquire(path, 42)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if info == nil {
		t.Fatalf("marker missing after acquire")
	}
	if info.GiveawayID != 42 {
		t.Fatalf("unexpected giveaway id: got=%d want=42", info.GiveawayID)
	}
	if info.PID != os.Getpid() {
		t.Fatalf("unexpected pid: got=%d want=%d", info.PID, os.Getpid())
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	info, err = Read(path)
	if err != nil {
		t.Fatalf("Read after release failed: %v", err)
	}
	if info != nil {
		t.Fatalf("marker still present after release")
	}
}

func TestAcquire_HeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.lock")

	original := processAlive
	processAlive = func(pid int) bool { return true }
	defer func() { processAlive = original }()

	lock, err := Acquire(path, 1)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer lock.Release()

	if _, err := Acquire(path, 2); !errors.Is(err, ErrHeld) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrHeld)
	}
}

func TestAcquire_ReclaimsStaleMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.lock")

	original := processAlive
	processAlive = func(pid int) bool { return false }
	defer func() { processAlive = original }()

	// Leave a marker behind as if a previous process crashed mid-run.
	first, err := Acquire(path, 7)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	_ = first

	lock, err := Acquire(path, 8)
	if err != nil {
		t.Fatalf("Acquire over stale marker failed: %v", err)
	}
	defer lock.Release()

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if info.GiveawayID != 8 {
		t.Fatalf("stale marker not replaced: got giveaway=%d want=8", info.GiveawayID)
	}
}

func TestAcquire_ReplacesCorruptMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.lock")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt marker: %v", err)
	}

	lock, err := Acquire(path, 3)
	if err != nil {
		t.Fatalf("Acquire over corrupt marker failed: %v", err)
	}
	defer lock.Release()

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if info.GiveawayID != 3 {
		t.Fatalf("unexpected giveaway id: got=%d want=3", info.GiveawayID)
	}
}
