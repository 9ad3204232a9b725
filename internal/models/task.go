package models

import "time"

const (
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryOther    = "Other"
)

const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DueDateLayout is the wire format for due dates. Due dates are
// calendar dates with no time component.
const DueDateLayout = "2006-01-02"

type Task struct {
	ID          int64
	UserID      string
	Title       string
	Description string
	Category    string
	DueDate     time.Time
	Status      string
	Priority    string
	Tags        string
	SortOrder   int
	TimeSpent   int
	Notes       string
	Progress    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue reports whether the task's due date lies strictly before
// the current UTC calendar date and the task is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.DueDate.Before(today)
}

// ReconcileStatus couples a task's status to its progress value:
// progress 100 marks the task Completed, dropping below 100 moves a
// Completed task back to In Progress, anything else keeps the current
// status.
func ReconcileStatus(current string, progress int) string {
	switch {
	case progress == 100:
		return StatusCompleted
	case current == StatusCompleted:
		return StatusInProgress
	default:
		return current
	}
}
