package db

const createDigestsTable = `
CREATE TABLE IF NOT EXISTS digests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    window_start TEXT NOT NULL,
    window_end TEXT NOT NULL,
    subject TEXT NOT NULL,
    html TEXT NOT NULL,
    change_count INTEGER NOT NULL,
    sent INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_digests_window ON digests(window_start, window_end);
`

const insertDigest = `
INSERT INTO digests (
    window_start, window_end, subject, html, change_count, sent, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

const selectDigestCount = `
SELECT COUNT(*) FROM digests
`
