package domain

import "time"

// Priority is the closed set of todo priorities.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every valid priority in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank is the severity rank (High=1, Medium=2, Low=3), 0 for unknown values.
// Listing sorts by the label, not by rank.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 0
}

// Status is the closed set of todo states.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every valid status in workflow order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Todo is the only persisted entity. CreatedAt is set by storage.
type Todo struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
	DueDate     *time.Time
	Priority    Priority
	Status      Status
	Category    *string
}

// Stats holds the per-status counters shown on the board.
type Stats struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
}
