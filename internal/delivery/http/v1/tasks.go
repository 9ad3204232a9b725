package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akovalyov/go-taskboard/internal/models"
	"github.com/akovalyov/go-taskboard/internal/services"
)

type taskResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Tags        string `json:"tags"`
	Order       int    `json:"order"`
	TimeSpent   int    `json:"time_spent"`
	Notes       string `json:"notes"`
	Progress    int    `json:"progress"`
	IsOverdue   bool   `json:"is_overdue"`
}

func newTaskResponse(task *models.Task, now time.Time) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Category:    task.Category,
		DueDate:     task.DueDate.Format(models.DueDateLayout),
		Status:      task.Status,
		Priority:    task.Priority,
		Tags:        task.Tags,
		Order:       task.SortOrder,
		TimeSpent:   task.TimeSpent,
		Notes:       task.Notes,
		Progress:    task.Progress,
		IsOverdue:   task.IsOverdue(now),
	}
}

type taskFieldsRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required,oneof=Work Personal Other"`
	DueDate     string `json:"due_date" binding:"required,datetime=2006-01-02"`
	Status      string `json:"status" binding:"required,oneof=Pending 'In Progress' Completed"`
	Priority    string `json:"priority" binding:"required,oneof=High Medium Low"`
	Tags        string `json:"tags"`
}

func (r *taskFieldsRequest) fields() services.TaskFields {
	// The datetime binding already validated the layout.
	dueDate, _ := time.ParseInLocation(models.DueDateLayout, r.DueDate, time.UTC)
	return services.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		DueDate:     dueDate,
		Status:      r.Status,
		Priority:    r.Priority,
		Tags:        r.Tags,
	}
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req taskFieldsRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		UserID:     userID,
		TaskFields: req.fields(),
	})
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	filter := services.TaskFilter{
		Category: c.DefaultQuery("category", services.FilterAll),
		Status:   c.DefaultQuery("status", services.FilterAll),
		Sort:     c.DefaultQuery("sort", services.SortByOrder),
	}

	tasks, err := h.tasks.ListTasks(c, userID, filter)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	now := time.Now()
	response := make([]taskResponse, len(tasks))
	for i := range tasks {
		response[i] = newTaskResponse(&tasks[i], now)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	var req taskFieldsRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:         taskID,
		UserID:     userID,
		TaskFields: req.fields(),
	})
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID, userID)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleMarkComplete(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	err := h.tasks.MarkTaskComplete(c, taskID, userID)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type reorderTasksRequest struct {
	TaskOrders []struct {
		ID    int64 `json:"id" binding:"required"`
		Order int   `json:"order"`
	} `json:"task_orders" binding:"required"`
}

func (h *handlerImpl) HandleReorderTasks(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req reorderTasksRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	orders := make([]services.TaskOrder, len(req.TaskOrders))
	for i, o := range req.TaskOrders {
		orders[i] = services.TaskOrder{ID: o.ID, Order: o.Order}
	}

	err = h.tasks.ReorderTasks(c, userID, orders)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateTimeRequest struct {
	TimeSpent *int `json:"time_spent" binding:"required"`
}

func (h *handlerImpl) HandleUpdateTime(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	var req updateTimeRequest
	err := c.ShouldBindJSON(&req)
	if err != nil || *req.TimeSpent < 0 {
		h.logger.Warn().
			Err(err).
			Msg("invalid time spent value")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.tasks.UpdateTimeSpent(c, taskID, userID, *req.TimeSpent)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *handlerImpl) HandleUpdateNotes(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	var req updateNotesRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.tasks.UpdateNotes(c, taskID, userID, req.Notes)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateProgressRequest struct {
	// A pointer so that a missing value and a fractional value are
	// both rejected by binding rather than defaulting to zero.
	Progress *int `json:"progress" binding:"required"`
}

func (h *handlerImpl) HandleUpdateProgress(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	taskID, ok := taskIDFromPath(c)
	if !ok {
		return
	}

	var req updateProgressRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("invalid progress value")
		abort(c, newBadRequestError(services.ErrInvalidProgress.Error()))
		return
	}

	err = h.tasks.UpdateProgress(c, taskID, userID, *req.Progress)
	if err != nil {
		abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// taskIDFromPath parses the :id path parameter. A malformed id aborts
// with 404, same as an id that matches no task.
func taskIDFromPath(c *gin.Context) (int64, bool) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		return 0, false
	}
	return taskID, true
}
