package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/akovalyov/go-taskboard/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Priority:    params.Priority,
		Tags:        params.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The new task is ranked after every existing task of the owner.
	// An owner's first task gets sort_order 1.
	const selectMaxOrderQuery = `
SELECT COALESCE(MAX(sort_order), 0)
FROM tasks
WHERE user_id = $1
`
	var maxOrder int
	err = tx.QueryRow(ctx, selectMaxOrderQuery, task.UserID).Scan(&maxOrder)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", task.UserID).
			Msg("failed to select max sort order")
		return nil, err
	}
	task.SortOrder = nextSortOrder(maxOrder)

	const insertTaskQuery = `
INSERT INTO tasks (user_id,
                   title,
                   description,
                   category,
                   due_date,
                   status,
                   priority,
                   tags,
                   sort_order,
                   time_spent,
                   notes,
                   progress,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, '', 0, $10, $11)
RETURNING id
`
	err = tx.QueryRow(
		ctx,
		insertTaskQuery,
		task.UserID,
		task.Title,
		task.Description,
		task.Category,
		task.DueDate,
		task.Status,
		task.Priority,
		task.Tags,
		task.SortOrder,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", task.UserID).
			Msg("failed to insert task")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Int("sort_order", task.SortOrder).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]models.Task, error) {
	const selectTasksByUserIDQuery = `
SELECT id,
       title,
       description,
       category,
       due_date,
       status,
       priority,
       tags,
       sort_order,
       time_spent,
       notes,
       progress,
       created_at,
       updated_at
FROM tasks
WHERE user_id = $1
ORDER BY sort_order
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByUserIDQuery,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select tasks by user id")
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task := models.Task{UserID: userID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Category,
			&task.DueDate,
			&task.Status,
			&task.Priority,
			&task.Tags,
			&task.SortOrder,
			&task.TimeSpent,
			&task.Notes,
			&task.Progress,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	tasks = filterTasks(tasks, filter.Category, filter.Status)
	sortTasks(tasks, filter.Sort)

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Str("sort", filter.Sort).
		Msg("selected tasks by user id")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	err := s.requireOwner(ctx, params.ID, params.UserID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          params.ID,
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		DueDate:     params.DueDate,
		Status:      params.Status,
		Priority:    params.Priority,
		Tags:        params.Tags,
		UpdatedAt:   time.Now(),
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    category = $3,
    due_date = $4,
    status = $5,
    priority = $6,
    tags = $7,
    updated_at = $8
WHERE id = $9
RETURNING sort_order, time_spent, notes, progress, created_at
`
	err = s.pgPool.QueryRow(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Category,
		task.DueDate,
		task.Status,
		task.Priority,
		task.Tags,
		task.UpdatedAt,
		task.ID,
	).Scan(
		&task.SortOrder,
		&task.TimeSpent,
		&task.Notes,
		&task.Progress,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Deleted between the ownership check and the update.
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID int64, userID string) error {
	err := s.requireOwner(ctx, taskID, userID)
	if err != nil {
		return err
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	_, err = s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) MarkTaskComplete(ctx context.Context, taskID int64, userID string) error {
	err := s.requireOwner(ctx, taskID, userID)
	if err != nil {
		return err
	}

	const completeTaskQuery = `
UPDATE tasks
SET status = $1,
    progress = 100,
    updated_at = $2
WHERE id = $3
`
	_, err = s.pgPool.Exec(
		ctx,
		completeTaskQuery,
		models.StatusCompleted,
		time.Now(),
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to complete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("user_id", userID).
		Msg("marked task complete")
	return nil
}

func (s *taskServiceImpl) ReorderTasks(ctx context.Context, userID string, orders []TaskOrder) error {
	const updateSortOrderQuery = `
UPDATE tasks
SET sort_order = $1,
    updated_at = $2
WHERE id = $3
`
	// Orders are assigned one by one and the batch stops at the first
	// missing or foreign task. Earlier assignments stay applied.
	for _, o := range orders {
		err := s.requireOwner(ctx, o.ID, userID)
		if err != nil {
			return err
		}

		_, err = s.pgPool.Exec(
			ctx,
			updateSortOrderQuery,
			o.Order,
			time.Now(),
			o.ID,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("task_id", o.ID).
				Msg("failed to update sort order")
			return err
		}
	}

	s.logger.Info().
		Int("count", len(orders)).
		Str("user_id", userID).
		Msg("reordered tasks")
	return nil
}

func (s *taskServiceImpl) UpdateTimeSpent(ctx context.Context, taskID int64, userID string, seconds int) error {
	err := s.requireOwner(ctx, taskID, userID)
	if err != nil {
		return err
	}

	// Overwrite, never increment. The client sends the accumulated
	// total it tracked.
	const updateTimeSpentQuery = `
UPDATE tasks
SET time_spent = $1,
    updated_at = $2
WHERE id = $3
`
	_, err = s.pgPool.Exec(
		ctx,
		updateTimeSpentQuery,
		seconds,
		time.Now(),
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update time spent")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int("time_spent", seconds).
		Msg("updated time spent")
	return nil
}

func (s *taskServiceImpl) UpdateNotes(ctx context.Context, taskID int64, userID string, notes string) error {
	err := s.requireOwner(ctx, taskID, userID)
	if err != nil {
		return err
	}

	const updateNotesQuery = `
UPDATE tasks
SET notes = $1,
    updated_at = $2
WHERE id = $3
`
	_, err = s.pgPool.Exec(
		ctx,
		updateNotesQuery,
		notes,
		time.Now(),
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update notes")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Msg("updated notes")
	return nil
}

func (s *taskServiceImpl) UpdateProgress(ctx context.Context, taskID int64, userID string, progress int) error {
	err := validateProgress(progress)
	if err != nil {
		s.logger.Error().
			Int("progress", progress).
			Int64("task_id", taskID).
			Msg("progress out of range")
		return err
	}

	const selectTaskStatusQuery = `
SELECT user_id, status
FROM tasks
WHERE id = $1
`
	var ownerID, status string
	err = s.pgPool.QueryRow(
		ctx,
		selectTaskStatusQuery,
		taskID,
	).Scan(
		&ownerID,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task status")
		return err
	}
	if ownerID != userID {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task belongs to another user")
		return ErrTaskForbidden
	}

	// Progress and the reconciled status land in a single statement so
	// concurrent readers never observe one without the other.
	const updateProgressQuery = `
UPDATE tasks
SET progress = $1,
    status = $2,
    updated_at = $3
WHERE id = $4
`
	_, err = s.pgPool.Exec(
		ctx,
		updateProgressQuery,
		progress,
		models.ReconcileStatus(status, progress),
		time.Now(),
		taskID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to update progress")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int("progress", progress).
		Msg("updated progress")
	return nil
}

func (s *taskServiceImpl) TaskStats(ctx context.Context, userID string) (*TaskStats, error) {
	tasks, err := s.ListTasks(ctx, userID, TaskFilter{
		Category: FilterAll,
		Status:   FilterAll,
		Sort:     SortByOrder,
	})
	if err != nil {
		return nil, err
	}

	stats := countTasks(tasks)
	s.logger.Debug().
		Str("user_id", userID).
		Int("count", len(tasks)).
		Msg("computed task stats")
	return stats, nil
}

func (s *taskServiceImpl) TasksDueOn(ctx context.Context, due time.Time) ([]ReminderTask, error) {
	const selectDueTasksQuery = `
SELECT t.id,
       t.title,
       t.description,
       t.due_date,
       u.email,
       u.name
FROM tasks t
JOIN users u ON u.id = t.user_id
WHERE t.due_date = $1 AND
      t.status <> $2
`
	rows, err := s.pgPool.Query(
		ctx,
		selectDueTasksQuery,
		due,
		models.StatusCompleted,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Time("due", due).
			Msg("failed to select due tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []ReminderTask
	for rows.Next() {
		var task ReminderTask
		err = rows.Scan(
			&task.TaskID,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Email,
			&task.Name,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan due task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Time("due", due).
		Msg("selected due tasks")
	return tasks, nil
}

// requireOwner resolves the task's owner and gates the mutation:
// a missing row maps to ErrTaskNotFound, a foreign row to
// ErrTaskForbidden. Ownership is checked on every mutation, never
// folded into the update predicate, so the two failures stay
// distinguishable.
func (s *taskServiceImpl) requireOwner(ctx context.Context, taskID int64, userID string) error {
	const selectTaskOwnerQuery = `
SELECT user_id
FROM tasks
WHERE id = $1
`
	var ownerID string
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskOwnerQuery,
		taskID,
	).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().
				Int64("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task owner")
		return err
	}

	if ownerID != userID {
		s.logger.Warn().
			Int64("task_id", taskID).
			Str("user_id", userID).
			Msg("task belongs to another user")
		return ErrTaskForbidden
	}
	return nil
}
