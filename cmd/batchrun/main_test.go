package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"slideflow/internal/domain"
)

func TestWriteSnapshotToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	snap := domain.Snapshot{BatchID: uuid.New(), Status: domain.BatchStatusCompleted, TotalSlides: 2, Successful: 2}

	if err := writeSnapshot(path, snap); err != nil {
		t.Fatalf("writeSnapshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got domain.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.BatchID != snap.BatchID || got.Status != snap.Status {
		t.Fatalf("got %+v", got)
	}
}

func TestWriteSnapshotReportsFailures(t *testing.T) {
	snap := domain.Snapshot{BatchID: uuid.New(), Status: domain.BatchStatusFailed}

	missing := filepath.Join(t.TempDir(), "missing", "out.json")
	if err := writeSnapshot(missing, snap); err == nil {
		t.Fatalf("expected error for missing directory")
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	if err := writeSnapshot("/dev/full", snap); err == nil {
		t.Fatalf("expected error writing to a full device")
	}
}
