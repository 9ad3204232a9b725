package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akovalyov/go-taskboard/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")

	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskForbidden   = errors.New("task belongs to another user")
	ErrInvalidProgress = errors.New("progress must be an integer between 0 and 100")
)

// Sentinel values for the task list query surface. "all" disables a
// filter; any other value is matched literally.
const (
	FilterAll = "all"

	SortByOrder       = "order"
	SortByDueDateAsc  = "due_date_asc"
	SortByDueDateDesc = "due_date_desc"
	SortByPriority    = "priority"
)

type TaskService interface {
	// CreateTask inserts a new task for its owner. The task is ranked
	// after every existing task of the owner: its manual order becomes
	// max(existing orders) + 1, so an owner's first task gets order 1.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// ListTasks returns the user's tasks, filtered and sorted per the
	// given filter. An empty or unknown sort value falls back to the
	// manual order ascending.
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]models.Task, error)

	// UpdateTask overwrites the editable fields of a task in one call.
	//
	// It returns ErrTaskNotFound if no task has the given ID and
	// ErrTaskForbidden if the task belongs to another user. Every
	// other mutation below enforces the same ownership gate.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task permanently.
	DeleteTask(ctx context.Context, taskID int64, userID string) error

	// MarkTaskComplete sets status to Completed and progress to 100
	// unconditionally.
	MarkTaskComplete(ctx context.Context, taskID int64, userID string) error

	// ReorderTasks assigns the given manual orders one by one and
	// stops at the first task that is missing or owned by someone
	// else. Earlier assignments of the batch may already be applied
	// when an error is returned.
	ReorderTasks(ctx context.Context, userID string, orders []TaskOrder) error

	// UpdateTimeSpent overwrites the accumulated seconds. This is an
	// overwrite, not an increment.
	UpdateTimeSpent(ctx context.Context, taskID int64, userID string, seconds int) error

	// UpdateNotes overwrites the task notes.
	UpdateNotes(ctx context.Context, taskID int64, userID string, notes string) error

	// UpdateProgress sets the progress value and reconciles the task
	// status with it (see models.ReconcileStatus). Values outside
	// [0, 100] are rejected with ErrInvalidProgress.
	UpdateProgress(ctx context.Context, taskID int64, userID string, progress int) error

	// TaskStats counts the user's tasks by status and by priority.
	// Statuses and priorities without tasks are reported as zero.
	TaskStats(ctx context.Context, userID string) (*TaskStats, error)

	// TasksDueOn returns every incomplete task due exactly on the
	// given calendar date, joined with its owner's email and name.
	TasksDueOn(ctx context.Context, due time.Time) ([]ReminderTask, error)
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email, display name and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// UpdatePassword replaces the user's password credential after
	// verifying the current one. It returns ErrUserPasswordMismatch
	// if the current password doesn't match.
	UpdatePassword(ctx context.Context, userID, current, replacement string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type TaskFields struct {
	Title       string
	Description string
	Category    string
	DueDate     time.Time
	Status      string
	Priority    string
	Tags        string
}

type CreateTaskParams struct {
	UserID string
	TaskFields
}

type UpdateTaskParams struct {
	ID     int64
	UserID string
	TaskFields
}

type TaskFilter struct {
	Category string
	Status   string
	Sort     string
}

type TaskOrder struct {
	ID    int64
	Order int
}

type TaskStats struct {
	StatusCounts   map[string]int
	PriorityCounts map[string]int
}

// ReminderTask is a task row joined with its owner, shaped for the
// reminder sweep.
type ReminderTask struct {
	TaskID      int64
	Title       string
	Description string
	DueDate     time.Time
	Email       string
	Name        string
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Name        string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}
