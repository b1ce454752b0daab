package handlers

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskHandler handles task board endpoints
type TaskHandler struct {
	taskRepo      TaskStore
	analyticsRepo AnalyticsStore
	userRepo      UserStore
	now           func() time.Time
}

// NewTaskHandler creates a new handler
func NewTaskHandler(taskRepo TaskStore, analyticsRepo AnalyticsStore, userRepo UserStore) *TaskHandler {
	return &TaskHandler{
		taskRepo:      taskRepo,
		analyticsRepo: analyticsRepo,
		userRepo:      userRepo,
		now:           time.Now,
	}
}

func canView(task *models.Task, userID, email string) bool {
	return task.CreatedBy == userID || (email != "" && task.Assignee == email)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "task_not_found",
		Message: "Task not found",
	})
}

// ListTasks godoc
// @Summary List tasks in a date range
// @Description Tasks created by or assigned to the current user, created within the filter range
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Param filter query string false "Today, This Week or This Month" default(This Week)
// @Success 200 {array} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := models.ParseFilter(c.Query("filter"))
	if err != nil {
		validationError(c, err)
		return
	}

	tasks, err := h.taskRepo.ListForUser(c.Request.Context(), userID, email, filter.Since(h.now()))
	if err != nil {
		serverError(c, "Failed to load tasks")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, tasks)
}

// GetAnalytics godoc
// @Summary Task analytics
// @Description Counts by state, open counts by priority, open tasks with a due date and overdue tasks
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Router /tasks/analytics [get]
func (h *TaskHandler) GetAnalytics(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	analytics, err := h.analyticsRepo.GetAnalytics(c.Request.Context(), userID, email)
	if err != nil {
		serverError(c, "Failed to compute analytics: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.TaskRequest true "Task data"
// @Success 201 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	task := &models.Task{
		CreatedBy: userID,
		State:     models.StateTodo,
	}
	if !h.applyRequest(c, task, &req, userID, email) {
		return
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		serverError(c, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask godoc
// @Summary Task detail
// @Tags tasks
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	task, ok := h.loadVisible(c, userID, email)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Replace a task's editable fields
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.TaskRequest true "Task data"
// @Success 200 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	task, ok := h.loadVisible(c, userID, email)
	if !ok {
		return
	}
	if !h.applyRequest(c, task, &req, task.CreatedBy, email) {
		return
	}

	if err := h.taskRepo.Replace(c.Request.Context(), task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			notFound(c)
			return
		}
		serverError(c, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// MoveTask godoc
// @Summary Move a task to another state
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body models.MoveTaskRequest true "Target state"
// @Success 200 {object} models.Task
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id}/state [patch]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	task, ok := h.loadVisible(c, userID, email)
	if !ok {
		return
	}

	task.State = req.State
	task.Overdue = task.IsOverdue(h.now())
	if err := h.taskRepo.Replace(c.Request.Context(), task); err != nil {
		serverError(c, "Failed to move task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// ToggleChecklistItem godoc
// @Summary Check or uncheck a checklist item
// @Tags tasks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param itemId path string true "Checklist item ID"
// @Param payload body models.ChecklistToggleRequest true "Done flag"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id}/checklist/{itemId} [patch]
func (h *TaskHandler) ToggleChecklistItem(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ChecklistToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	task, ok := h.loadVisible(c, userID, email)
	if !ok {
		return
	}

	itemID := c.Param("itemId")
	if !slices.ContainsFunc(task.Checklist, func(item models.ChecklistItem) bool { return item.ID == itemID }) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "checklist_item_not_found",
			Message: "Checklist item not found",
		})
		return
	}

	updated, err := h.taskRepo.SetChecklistItem(c.Request.Context(), task.ID.Hex(), itemID, *req.Done)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			notFound(c)
			return
		}
		serverError(c, "Failed to update checklist")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Only the creator can delete a task
// @Tags tasks
// @Security ApiKeyAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]bool
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, email, ok := currentUser(c)
	if !ok {
		return
	}

	task, ok := h.loadVisible(c, userID, email)
	if !ok {
		return
	}
	if task.CreatedBy != userID {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "forbidden",
			Message: "Only the creator can delete this task",
		})
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), task.ID.Hex()); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			notFound(c)
			return
		}
		serverError(c, "Failed to delete task")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SharedTask godoc
// @Summary Public read-only view of a task
// @Tags share
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} models.Task
// @Failure 404 {object} models.ErrorResponse
// @Router /share/tasks/{id} [get]
func (h *TaskHandler) SharedTask(c *gin.Context) {
	task, err := h.taskRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			notFound(c)
			return
		}
		serverError(c, "Failed to load task")
		return
	}

	// The shared view hides who is involved
	task.CreatedBy = ""
	task.Assignee = ""
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) loadVisible(c *gin.Context, userID, email string) (*models.Task, bool) {
	task, err := h.taskRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			notFound(c)
			return nil, false
		}
		serverError(c, "Failed to load task")
		return nil, false
	}
	// Tasks of other users are reported as missing
	if !canView(task, userID, email) {
		notFound(c)
		return nil, false
	}
	return task, true
}

// applyRequest copies a validated request onto task. ownerID is the task
// creator whose people list bounds the assignee.
func (h *TaskHandler) applyRequest(c *gin.Context, task *models.Task, req *models.TaskRequest, ownerID, email string) bool {
	title := utils.SanitizeText(req.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Title cannot be empty",
		})
		return false
	}

	existing := make(map[string]models.ChecklistItem, len(task.Checklist))
	for _, item := range task.Checklist {
		existing[item.ID] = item
	}
	checklist := make([]models.ChecklistItem, 0, len(req.Checklist))
	for _, in := range req.Checklist {
		text := utils.SanitizeText(in.Text)
		if text == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Checklist items cannot be empty",
			})
			return false
		}
		id := in.ID
		if _, known := existing[id]; !known {
			id = uuid.NewString()
		}
		checklist = append(checklist, models.ChecklistItem{ID: id, Text: text, Done: in.Done})
	}

	assignee := utils.NormalizeEmail(req.Assignee)
	if assignee != "" && assignee != utils.NormalizeEmail(email) && assignee != task.Assignee {
		people, err := h.userRepo.ListPeople(c.Request.Context(), ownerID)
		if err != nil {
			serverError(c, "Failed to load people")
			return false
		}
		if !slices.Contains(people, assignee) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Assignee must be one of your people",
			})
			return false
		}
	}

	task.Title = title
	task.Priority = req.Priority
	task.Checklist = checklist
	task.DueDate = req.DueDate
	task.Assignee = assignee
	task.Overdue = task.IsOverdue(h.now())
	return true
}
