package domain

import "time"

// FetchSummary describes how the aggregation run behind a Snapshot ended.
type FetchSummary struct {
	Pages      int    `json:"pages"`
	Records    int    `json:"records"`
	Skipped    int    `json:"skipped"`
	StopReason string `json:"stop_reason"`
	Error      string `json:"error,omitempty"`
}

// Partial reports whether the run ended on an upstream failure rather than
// a natural end-of-data signal.
func (s FetchSummary) Partial() bool {
	return s.Error != ""
}

// Snapshot is one complete, normalized batch of markets plus its capture
// time. It is replaced as a whole and never updated in place.
type Snapshot struct {
	ID         string
	Markets    []Market
	CapturedAt time.Time
	Summary    FetchSummary
}

// Len returns the number of markets held by the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Markets)
}

// Age returns how old the snapshot is relative to now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	return now.Sub(s.CapturedAt)
}
