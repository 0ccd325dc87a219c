package api

import "errors"

// Taxonomy errors for the remote wiki interactions. Callers match with
// errors.Is; the wrapping message carries the detail. Both are fatal to
// a run - nothing in this package retries.
var (
	ErrAuth  = errors.New("wiki authentication failed")
	ErrFetch = errors.New("change fetch failed")
)
