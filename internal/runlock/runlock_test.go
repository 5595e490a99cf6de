package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"clipreel/internal/runlock"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "clipreel.lock")

	first, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := runlock.Acquire(path); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("second Acquire err = %v, want ErrLocked", err)
	}
	held, err := runlock.Held(path)
	if err != nil || !held {
		t.Fatalf("Held = %v, %v; want true", held, err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	again, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	defer again.Release()
}

func TestHeldWithoutLockFile(t *testing.T) {
	held, err := runlock.Held(filepath.Join(t.TempDir(), "missing.lock"))
	if err != nil || held {
		t.Fatalf("Held = %v, %v; want false", held, err)
	}
}
