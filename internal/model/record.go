// Package model defines domain types for xpdash records and derived metrics.
package model

import "time"

// XPTransaction is one XP award or deduction. Amount may be negative.
type XPTransaction struct {
	Amount      int64
	OccurredAt  time.Time
	SubjectName string
	SubjectType string
}

// ProjectProgress is one graded project completion.
type ProjectProgress struct {
	Grade       float64
	UpdatedAt   time.Time
	SubjectName string
	SubjectType string
}

// AuditResult is one audit outcome. A grade of 1 or more is a pass.
type AuditResult struct {
	Grade float64
}

// Profile identifies the learner whose records were fetched.
type Profile struct {
	ID            int
	Login         string
	FirstName     string
	LastName      string
	PlatformLevel int
}

// DisplayName returns "First Last" when known, falling back to the login.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.Login
	}
}
