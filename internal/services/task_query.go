package services

import (
	"sort"

	"github.com/akovalyov/go-taskboard/internal/models"
)

// priorityRank orders priorities High before Medium before Low.
var priorityRank = map[string]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// nextSortOrder ranks a new task after every existing task of its
// owner. With no existing tasks the stored max is zero, so an owner's
// first task gets order 1.
func nextSortOrder(currentMax int) int {
	return currentMax + 1
}

// filterTasks keeps the tasks matching the category and status
// filters. The sentinel "all" disables a filter; any other value is
// matched literally, so an unknown or empty category simply yields an
// empty result.
func filterTasks(tasks []models.Task, category, status string) []models.Task {
	filtered := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if category != FilterAll && t.Category != category {
			continue
		}
		if status != FilterAll && t.Status != status {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// sortTasks orders tasks in place. Unknown sort values fall back to
// the manual order ascending. Sorting is stable, so tasks that compare
// equal keep their manual order relative to each other.
func sortTasks(tasks []models.Task, by string) {
	var less func(a, b *models.Task) bool
	switch by {
	case SortByDueDateAsc:
		less = func(a, b *models.Task) bool { return a.DueDate.Before(b.DueDate) }
	case SortByDueDateDesc:
		less = func(a, b *models.Task) bool { return b.DueDate.Before(a.DueDate) }
	case SortByPriority:
		less = func(a, b *models.Task) bool { return priorityRank[a.Priority] < priorityRank[b.Priority] }
	default:
		less = func(a, b *models.Task) bool { return a.SortOrder < b.SortOrder }
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return less(&tasks[i], &tasks[j])
	})
}

// validateProgress rejects progress values outside [0, 100]. There is
// no clamping.
func validateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

// countTasks aggregates the dashboard counters. Every known status and
// priority appears in the result, defaulting to zero.
func countTasks(tasks []models.Task) *TaskStats {
	stats := &TaskStats{
		StatusCounts: map[string]int{
			models.StatusPending:    0,
			models.StatusInProgress: 0,
			models.StatusCompleted:  0,
		},
		PriorityCounts: map[string]int{
			models.PriorityHigh:   0,
			models.PriorityMedium: 0,
			models.PriorityLow:    0,
		},
	}
	for _, t := range tasks {
		stats.StatusCounts[t.Status]++
		stats.PriorityCounts[t.Priority]++
	}
	return stats
}
