package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akovalyov/go-taskboard/internal/models"
	"github.com/akovalyov/go-taskboard/internal/services"
)

const testUserID = "user-1"

// mockTaskService implements services.TaskService with overridable
// per-method funcs.
type mockTaskService struct {
	CreateTaskFunc       func(ctx context.Context, params services.CreateTaskParams) (*models.Task, error)
	ListTasksFunc        func(ctx context.Context, userID string, filter services.TaskFilter) ([]models.Task, error)
	UpdateTaskFunc       func(ctx context.Context, params services.UpdateTaskParams) (*models.Task, error)
	DeleteTaskFunc       func(ctx context.Context, taskID int64, userID string) error
	MarkTaskCompleteFunc func(ctx context.Context, taskID int64, userID string) error
	ReorderTasksFunc     func(ctx context.Context, userID string, orders []services.TaskOrder) error
	UpdateTimeSpentFunc  func(ctx context.Context, taskID int64, userID string, seconds int) error
	UpdateNotesFunc      func(ctx context.Context, taskID int64, userID string, notes string) error
	UpdateProgressFunc   func(ctx context.Context, taskID int64, userID string, progress int) error
	TaskStatsFunc        func(ctx context.Context, userID string) (*services.TaskStats, error)
	TasksDueOnFunc       func(ctx context.Context, due time.Time) ([]services.ReminderTask, error)
}

func (m *mockTaskService) CreateTask(ctx context.Context, params services.CreateTaskParams) (*models.Task, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockTaskService) ListTasks(ctx context.Context, userID string, filter services.TaskFilter) ([]models.Task, error) {
	if m.ListTasksFunc != nil {
		return m.ListTasksFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, taskID int64, userID string) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, taskID, userID)
	}
	return nil
}

func (m *mockTaskService) MarkTaskComplete(ctx context.Context, taskID int64, userID string) error {
	if m.MarkTaskCompleteFunc != nil {
		return m.MarkTaskCompleteFunc(ctx, taskID, userID)
	}
	return nil
}

func (m *mockTaskService) ReorderTasks(ctx context.Context, userID string, orders []services.TaskOrder) error {
	if m.ReorderTasksFunc != nil {
		return m.ReorderTasksFunc(ctx, userID, orders)
	}
	return nil
}

func (m *mockTaskService) UpdateTimeSpent(ctx context.Context, taskID int64, userID string, seconds int) error {
	if m.UpdateTimeSpentFunc != nil {
		return m.UpdateTimeSpentFunc(ctx, taskID, userID, seconds)
	}
	return nil
}

func (m *mockTaskService) UpdateNotes(ctx context.Context, taskID int64, userID string, notes string) error {
	if m.UpdateNotesFunc != nil {
		return m.UpdateNotesFunc(ctx, taskID, userID, notes)
	}
	return nil
}

func (m *mockTaskService) UpdateProgress(ctx context.Context, taskID int64, userID string, progress int) error {
	if m.UpdateProgressFunc != nil {
		return m.UpdateProgressFunc(ctx, taskID, userID, progress)
	}
	return nil
}

func (m *mockTaskService) TaskStats(ctx context.Context, userID string) (*services.TaskStats, error) {
	if m.TaskStatsFunc != nil {
		return m.TaskStatsFunc(ctx, userID)
	}
	return &services.TaskStats{StatusCounts: map[string]int{}, PriorityCounts: map[string]int{}}, nil
}

func (m *mockTaskService) TasksDueOn(ctx context.Context, due time.Time) ([]services.ReminderTask, error) {
	if m.TasksDueOnFunc != nil {
		return m.TasksDueOnFunc(ctx, due)
	}
	return nil, nil
}

// newTestRouter registers the task routes behind a stub identity
// middleware so handler behavior is tested independently of auth.
func newTestRouter(tasks services.TaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &handlerImpl{
		logger: zerolog.Nop(),
		tasks:  tasks,
	}

	router := gin.New()
	setUser := func(c *gin.Context) {
		c.Set(userIDCtxKey, testUserID)
		c.Next()
	}

	api := router.Group("/api", setUser)
	api.GET("/tasks", h.HandleListTasks)
	api.POST("/tasks", h.HandleCreateTask)
	api.PUT("/tasks/:id", h.HandleUpdateTask)
	api.DELETE("/tasks/:id", h.HandleDeleteTask)
	api.POST("/mark_complete/:id", h.HandleMarkComplete)
	api.POST("/reorder_tasks", h.HandleReorderTasks)
	api.POST("/update_time/:id", h.HandleUpdateTime)
	api.POST("/update_notes/:id", h.HandleUpdateNotes)
	api.POST("/update_progress/:id", h.HandleUpdateProgress)
	api.GET("/dashboard", h.HandleDashboard)
	router.GET("/export_tasks", setUser, h.HandleExportTasks)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleListTasksForwardsFilters(t *testing.T) {
	var gotUserID string
	var gotFilter services.TaskFilter
	mock := &mockTaskService{
		ListTasksFunc: func(_ context.Context, userID string, filter services.TaskFilter) ([]models.Task, error) {
			gotUserID = userID
			gotFilter = filter
			return []models.Task{
				{ID: 1, Title: "old task", Category: models.CategoryWork, Status: models.StatusPending,
					Priority: models.PriorityHigh, DueDate: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
					SortOrder: 1},
			}, nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodGet, "/api/tasks?category=Work&status=Pending&sort=priority", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != testUserID {
		t.Errorf("userID = %q, want %q", gotUserID, testUserID)
	}
	if gotFilter.Category != "Work" || gotFilter.Status != "Pending" || gotFilter.Sort != "priority" {
		t.Errorf("filter = %+v", gotFilter)
	}

	var resp []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("got %d tasks, want 1", len(resp))
	}
	if resp[0]["due_date"] != "2020-01-01" {
		t.Errorf("due_date = %v", resp[0]["due_date"])
	}
	if resp[0]["is_overdue"] != true {
		t.Errorf("is_overdue = %v, want true for a 2020 pending task", resp[0]["is_overdue"])
	}
	if resp[0]["order"] != float64(1) {
		t.Errorf("order = %v, want 1", resp[0]["order"])
	}
}

func TestHandleListTasksDefaultsFilters(t *testing.T) {
	var gotFilter services.TaskFilter
	mock := &mockTaskService{
		ListTasksFunc: func(_ context.Context, _ string, filter services.TaskFilter) ([]models.Task, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	router := newTestRouter(mock)

	doJSON(t, router, http.MethodGet, "/api/tasks", "")
	if gotFilter.Category != services.FilterAll || gotFilter.Status != services.FilterAll || gotFilter.Sort != services.SortByOrder {
		t.Errorf("default filter = %+v", gotFilter)
	}
}

func TestHandleCreateTaskValidation(t *testing.T) {
	mock := &mockTaskService{
		CreateTaskFunc: func(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
			return &models.Task{
				ID: 5, UserID: params.UserID, Title: params.Title, Category: params.Category,
				DueDate: params.DueDate, Status: params.Status, Priority: params.Priority, SortOrder: 1,
			}, nil
		},
	}
	router := newTestRouter(mock)

	valid := `{"title":"write report","category":"Work","due_date":"2030-06-01","status":"Pending","priority":"High"}`
	w := doJSON(t, router, http.MethodPost, "/api/tasks", valid)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}

	invalid := []string{
		`{"category":"Work","due_date":"2030-06-01","status":"Pending","priority":"High"}`,
		`{"title":"x","category":"Chores","due_date":"2030-06-01","status":"Pending","priority":"High"}`,
		`{"title":"x","category":"Work","due_date":"June 1st","status":"Pending","priority":"High"}`,
		`{"title":"x","category":"Work","due_date":"2030-06-01","status":"Done","priority":"High"}`,
		`{"title":"x","category":"Work","due_date":"2030-06-01","status":"Pending","priority":"Urgent"}`,
	}
	for _, body := range invalid {
		if w := doJSON(t, router, http.MethodPost, "/api/tasks", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleMarkComplete(t *testing.T) {
	var gotTaskID int64
	mock := &mockTaskService{
		MarkTaskCompleteFunc: func(_ context.Context, taskID int64, _ string) error {
			gotTaskID = taskID
			return nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodPost, "/api/mark_complete/42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotTaskID != 42 {
		t.Errorf("taskID = %d, want 42", gotTaskID)
	}

	var resp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !resp["success"] {
		t.Errorf("response = %s, want success true", w.Body.String())
	}
}

func TestTaskErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found maps to 404", services.ErrTaskNotFound, http.StatusNotFound},
		{"foreign task maps to 403", services.ErrTaskForbidden, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTaskService{
				MarkTaskCompleteFunc: func(context.Context, int64, string) error { return tt.err },
			}
			router := newTestRouter(mock)

			w := doJSON(t, router, http.MethodPost, "/api/mark_complete/1", "")
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}

			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp["error"] == "" {
				t.Errorf("response %s has no error message", w.Body.String())
			}
		})
	}
}

func TestHandleMarkCompleteMalformedID(t *testing.T) {
	router := newTestRouter(&mockTaskService{})
	if w := doJSON(t, router, http.MethodPost, "/api/mark_complete/abc", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for malformed id", w.Code)
	}
}

func TestHandleReorderTasks(t *testing.T) {
	var gotOrders []services.TaskOrder
	mock := &mockTaskService{
		ReorderTasksFunc: func(_ context.Context, _ string, orders []services.TaskOrder) error {
			gotOrders = orders
			return nil
		},
	}
	router := newTestRouter(mock)

	body := `{"task_orders":[{"id":3,"order":1},{"id":1,"order":2}]}`
	w := doJSON(t, router, http.MethodPost, "/api/reorder_tasks", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if len(gotOrders) != 2 || gotOrders[0].ID != 3 || gotOrders[0].Order != 1 || gotOrders[1].ID != 1 {
		t.Errorf("orders = %+v", gotOrders)
	}
}

func TestHandleReorderTasksForbidden(t *testing.T) {
	mock := &mockTaskService{
		ReorderTasksFunc: func(context.Context, string, []services.TaskOrder) error {
			return services.ErrTaskForbidden
		},
	}
	router := newTestRouter(mock)

	body := `{"task_orders":[{"id":3,"order":1}]}`
	if w := doJSON(t, router, http.MethodPost, "/api/reorder_tasks", body); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestHandleUpdateTime(t *testing.T) {
	var gotSeconds int
	mock := &mockTaskService{
		UpdateTimeSpentFunc: func(_ context.Context, _ int64, _ string, seconds int) error {
			gotSeconds = seconds
			return nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodPost, "/api/update_time/1", `{"time_spent":3725}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotSeconds != 3725 {
		t.Errorf("seconds = %d, want 3725", gotSeconds)
	}

	for _, body := range []string{`{"time_spent":-5}`, `{}`, `{"time_spent":"lots"}`} {
		if w := doJSON(t, router, http.MethodPost, "/api/update_time/1", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleUpdateNotes(t *testing.T) {
	var gotNotes string
	mock := &mockTaskService{
		UpdateNotesFunc: func(_ context.Context, _ int64, _ string, notes string) error {
			gotNotes = notes
			return nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodPost, "/api/update_notes/1", `{"notes":"call back tuesday"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotNotes != "call back tuesday" {
		t.Errorf("notes = %q", gotNotes)
	}
}

func TestHandleUpdateProgress(t *testing.T) {
	var gotProgress int
	mock := &mockTaskService{
		UpdateProgressFunc: func(_ context.Context, _ int64, _ string, progress int) error {
			gotProgress = progress
			return nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodPost, "/api/update_progress/1", `{"progress":75}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotProgress != 75 {
		t.Errorf("progress = %d, want 75", gotProgress)
	}

	// Fractional and missing values never reach the service.
	for _, body := range []string{`{"progress":2.5}`, `{}`, `{"progress":"done"}`} {
		if w := doJSON(t, router, http.MethodPost, "/api/update_progress/1", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleUpdateProgressOutOfRange(t *testing.T) {
	mock := &mockTaskService{
		UpdateProgressFunc: func(context.Context, int64, string, int) error {
			return services.ErrInvalidProgress
		},
	}
	router := newTestRouter(mock)

	for _, body := range []string{`{"progress":-1}`, `{"progress":101}`} {
		if w := doJSON(t, router, http.MethodPost, "/api/update_progress/1", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleDashboard(t *testing.T) {
	mock := &mockTaskService{
		TaskStatsFunc: func(context.Context, string) (*services.TaskStats, error) {
			return &services.TaskStats{
				StatusCounts:   map[string]int{models.StatusPending: 2, models.StatusInProgress: 0, models.StatusCompleted: 1},
				PriorityCounts: map[string]int{models.PriorityHigh: 1, models.PriorityMedium: 2, models.PriorityLow: 0},
			}, nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodGet, "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.StatusCounts[models.StatusPending] != 2 {
		t.Errorf("pending count = %d, want 2", resp.StatusCounts[models.StatusPending])
	}
	if resp.PriorityCounts[models.PriorityLow] != 0 {
		t.Errorf("low count = %d, want 0", resp.PriorityCounts[models.PriorityLow])
	}
}

func TestHandleExportTasks(t *testing.T) {
	mock := &mockTaskService{
		ListTasksFunc: func(context.Context, string, services.TaskFilter) ([]models.Task, error) {
			return []models.Task{
				{ID: 1, Title: "write report", Category: models.CategoryWork,
					DueDate:  time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
					Status:   models.StatusPending, Priority: models.PriorityHigh, TimeSpent: 3725},
			}, nil
		},
	}
	router := newTestRouter(mock)

	w := doJSON(t, router, http.MethodGet, "/export_tasks", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tasks.csv") {
		t.Errorf("content disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ID,Title,Description,Category,Due Date,Status,Priority,Tags,Time Spent,Notes,Progress") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "01:02:05") {
		t.Errorf("row = %q, want time spent 01:02:05", lines[1])
	}
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &handlerImpl{logger: zerolog.Nop(), tasks: &mockTaskService{}}

	// No identity middleware: every handler that needs a user must
	// abort before touching its service.
	router := gin.New()
	router.GET("/api/tasks", h.HandleListTasks)
	router.POST("/api/auth/logout", h.HandleLogout)
	router.POST("/api/auth/password", h.HandleUpdatePassword)

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/password"},
	}
	for _, r := range requests {
		req := httptest.NewRequest(r.method, r.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401 without identity", r.method, r.path, w.Code)
		}
	}
}
