// Package export renders a user's task list as downloadable CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/akovalyov/go-taskboard/internal/models"
)

var csvHeader = []string{
	"ID", "Title", "Description", "Category", "Due Date",
	"Status", "Priority", "Tags", "Time Spent", "Notes", "Progress",
}

// WriteCSV writes the header row followed by one row per task, in the
// order given.
func WriteCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	err := cw.Write(csvHeader)
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range tasks {
		t := &tasks[i]
		err = cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			t.Category,
			t.DueDate.Format(models.DueDateLayout),
			t.Status,
			t.Priority,
			t.Tags,
			FormatTimeSpent(t.TimeSpent),
			t.Notes,
			strconv.Itoa(t.Progress),
		})
		if err != nil {
			return fmt.Errorf("failed to write task %d: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatTimeSpent renders accumulated seconds as HH:MM:SS.
func FormatTimeSpent(seconds int) string {
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
