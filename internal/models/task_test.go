package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDate time.Time
		status  string
		want    bool
	}{
		{"past due pending", date(2025, time.March, 14), StatusPending, true},
		{"past due in progress", date(2025, time.March, 1), StatusInProgress, true},
		{"past due completed", date(2025, time.March, 14), StatusCompleted, false},
		{"due today", date(2025, time.March, 15), StatusPending, false},
		{"due in the future", date(2025, time.March, 16), StatusPending, false},
		{"future completed", date(2025, time.April, 1), StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{DueDate: tt.dueDate, Status: tt.status}
			if got := task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		progress int
		want     string
	}{
		{"full progress completes pending task", StatusPending, 100, StatusCompleted},
		{"full progress completes in-progress task", StatusInProgress, 100, StatusCompleted},
		{"full progress keeps completed task completed", StatusCompleted, 100, StatusCompleted},
		{"reduced progress reopens completed task", StatusCompleted, 99, StatusInProgress},
		{"zero progress reopens completed task", StatusCompleted, 0, StatusInProgress},
		{"partial progress keeps pending status", StatusPending, 50, StatusPending},
		{"partial progress keeps in-progress status", StatusInProgress, 50, StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconcileStatus(tt.current, tt.progress); got != tt.want {
				t.Errorf("ReconcileStatus(%q, %d) = %q, want %q", tt.current, tt.progress, got, tt.want)
			}
		})
	}
}
