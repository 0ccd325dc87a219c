package models

import "time"

// ChangeRecord is one normalized edit event from the wiki change log
type ChangeRecord struct {
	Title     string    // page title the edit applies to
	Timestamp time.Time // UTC
	User      string    // editor account name
	Comment   string    // edit summary, untrusted text
	RevID     int64     // unique per edit, used for deduplication
	OldRevID  int64     // previous revision, 0 for page creations
	SizeDelta int       // newlen - oldlen in bytes
	HasSizes  bool      // false when the API omitted oldlen/newlen
}

// ChangeGroup holds all edits to a single page, ordered by timestamp ascending
type ChangeGroup struct {
	Title   string
	Changes []ChangeRecord
}

// Latest returns the timestamp of the most recent change in the group
func (g ChangeGroup) Latest() time.Time {
	if len(g.Changes) == 0 {
		return time.Time{}
	}
	return g.Changes[len(g.Changes)-1].Timestamp
}

// Report is a rendered digest ready for delivery
type Report struct {
	Subject string
	HTML    string
}

// Empty reports nothing to send (no changes fell inside the window)
func (r Report) Empty() bool {
	return r.HTML == ""
}

// DigestRun is the flattened structure for the archive database
type DigestRun struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Subject     string
	HTML        string
	ChangeCount int
	Sent        bool
	CreatedAt   time.Time
}
