package source

import "time"

// RawObject is the project or exercise a row refers to.
// The platform returns null for objects it can no longer resolve.
type RawObject struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RawTransaction is one row of the platform's transaction table.
type RawTransaction struct {
	ID        int        `json:"id,omitempty"`
	Amount    int64      `json:"amount"`
	CreatedAt string     `json:"createdAt"`
	Object    *RawObject `json:"object"`
}

// RawProgress is one row of the platform's progress table.
type RawProgress struct {
	ID        int        `json:"id,omitempty"`
	Grade     *float64   `json:"grade"`
	CreatedAt string     `json:"createdAt,omitempty"`
	UpdatedAt string     `json:"updatedAt"`
	Object    *RawObject `json:"object"`
}

// RawResult is one audit result row.
type RawResult struct {
	Grade *float64 `json:"grade"`
}

// RawProfile is the learner's public view.
type RawProfile struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Level     *int   `json:"level,omitempty"`
}

// Snapshot is every raw record fetched for one learner in one load.
// A nil slice means the set was never fetched; an empty slice means
// the platform returned no rows.
type Snapshot struct {
	Profile      RawProfile       `json:"profile"`
	TotalXP      *int64           `json:"totalXP,omitempty"`
	Transactions []RawTransaction `json:"transactions"`
	Progress     []RawProgress    `json:"progress"`
	Results      []RawResult      `json:"results,omitempty"`
	FetchedAt    time.Time        `json:"fetchedAt"`
}
