package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/L235/MWRecentChangesReport/internal/models"

	_ "modernc.org/sqlite"
)

// Archive is an append-only log of produced digests. The pipeline only
// ever writes to it; no run reads a previous run's rows.
type Archive struct {
	conn *sql.DB
}

// Open creates the archive database and its schema if needed
func Open(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if _, err := conn.Exec(createDigestsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create digests schema: %w", err)
	}

	return &Archive{conn: conn}, nil
}

// Close closes the database connection
func (a *Archive) Close() error {
	return a.conn.Close()
}

// RecordDigest appends one completed run
func (a *Archive) RecordDigest(run models.DigestRun) error {
	sent := 0
	if run.Sent {
		sent = 1
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := a.conn.Exec(insertDigest,
		run.WindowStart.UTC().Format(time.RFC3339),
		run.WindowEnd.UTC().Format(time.RFC3339),
		run.Subject,
		run.HTML,
		run.ChangeCount,
		sent,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record digest: %w", err)
	}
	return nil
}

// DigestCount returns the number of archived digests
func (a *Archive) DigestCount() (int, error) {
	var count int
	if err := a.conn.QueryRow(selectDigestCount).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count digests: %w", err)
	}
	return count, nil
}
