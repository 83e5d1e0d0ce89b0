package runstore

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireRunLock_BlocksConcurrentAcquire(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")

	lock, err := AcquireRunLock(outDir, "run-a")
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer func() {
		_ = lock.Release()
	}()

	_, err = AcquireRunLock(outDir, "run-b")
	if err == nil {
		t.Fatalf("expected second acquire to fail")
	}
	if !strings.Contains(err.Error(), "run_id=run-a") {
		t.Fatalf("expected lock owner in error, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := AcquireRunLock(outDir, "run-b")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestAcquireRunLock_RequiresDirectory(t *testing.T) {
	if _, err := AcquireRunLock("  ", "run"); err == nil {
		t.Fatalf("expected error for empty output directory")
	}
}
