package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/use-agent/seoscope/models"
)

func TestAcquireLockAndRelease(t *testing.T) {
	dir := t.TempDir()

	lock, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}

	if _, err := acquireLock(dir); err == nil {
		t.Fatal("expected second acquireLock to fail while first process is alive")
	} else if pe, ok := err.(*models.PipelineError); !ok || pe.Kind != models.ErrKindLockHeld {
		t.Errorf("expected ErrKindLockHeld, got %v", err)
	}

	if err := lock.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed after release")
	}
}

func TestAcquireLockReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()

	// A PID that is extremely unlikely to be alive.
	if err := os.WriteFile(filepath.Join(dir, lockFileName), []byte("999999"), 0o644); err != nil {
		t.Fatalf("writing stale lock: %v", err)
	}

	lock, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("expected stale lock to be reclaimed, got error: %v", err)
	}
	defer lock.release()
}
