package models

import "time"

type Issue struct {
	ID       int64
	Key      string
	Summary  string
	Assignee string
	ParentID *int64 // nullable for top-level issues

	// OriginalEstimateSeconds is 0 when no estimate was set
	OriginalEstimateSeconds int64
	CreatedAt               time.Time
}

// HasEstimate reports whether the issue carries a positive original estimate.
func (i Issue) HasEstimate() bool {
	return i.OriginalEstimateSeconds > 0
}

// Label is the "KEY - summary" string shown on panels and in pickers.
func (i Issue) Label() string {
	if i.Summary == "" {
		return i.Key
	}
	return i.Key + " - " + i.Summary
}

type Worklog struct {
	ID              int64  // 0 for worklogs not persisted yet
	IssueID         *int64 // nullable, a worklog may be drafted without an issue
	Author          string
	Started         time.Time
	DurationMinutes int
	Comment         string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	Issue *Issue
}

// IsNew reports whether the worklog has not been persisted yet.
func (w Worklog) IsNew() bool {
	return w.ID == 0
}

// Shortlist is the favorites/suggestions pair returned together by the issue source.
type Shortlist struct {
	Favorites   []Issue
	Suggestions []Issue
}

// IsFavorite checks favorites by issue key.
func (s Shortlist) IsFavorite(key string) bool {
	for _, f := range s.Favorites {
		if f.Key == key {
			return true
		}
	}
	return false
}
