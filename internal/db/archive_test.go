package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/L235/MWRecentChangesReport/internal/models"
)

func TestArchiveRecordDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digests.db")

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer archive.Close()

	run := models.DigestRun{
		WindowStart: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC),
		Subject:     "Weekly wiki.example.org report: Aug 02 - Aug 08",
		HTML:        "<h1>digest</h1>",
		ChangeCount: 12,
		Sent:        true,
	}
	if err := archive.RecordDigest(run); err != nil {
		t.Fatalf("RecordDigest failed: %v", err)
	}
	if err := archive.RecordDigest(run); err != nil {
		t.Fatalf("second RecordDigest failed: %v", err)
	}

	count, err := archive.DigestCount()
	if err != nil {
		t.Fatalf("DigestCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("DigestCount = %d, want 2", count)
	}
}

func TestArchiveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digests.db")

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := archive.RecordDigest(models.DigestRun{Subject: "s", HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("RecordDigest failed: %v", err)
	}
	archive.Close()

	// Schema creation must be idempotent across reopens
	archive, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer archive.Close()

	count, err := archive.DigestCount()
	if err != nil {
		t.Fatalf("DigestCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("DigestCount after reopen = %d, want 1", count)
	}
}
