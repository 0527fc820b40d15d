package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"task-manager/backend/models"
	"task-manager/backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// parseAssignedTo decodes the raw assignedTo payload. Anything that is not
// a JSON array of user id strings is rejected before the service runs.
func parseAssignedTo(raw json.RawMessage) ([]primitive.ObjectID, error) {
	if raw == nil {
		return nil, services.ErrInvalidAssignedTo
	}

	var hexIDs []string
	if err := json.Unmarshal(raw, &hexIDs); err != nil || hexIDs == nil {
		return nil, services.ErrInvalidAssignedTo
	}

	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, hexID := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			return nil, services.ErrInvalidAssignedTo
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetTasks returns the role-scoped task list plus the status summary.
// Admins see all tasks, members only the tasks assigned to them.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	statusFilter := models.TaskStatus(r.URL.Query().Get("status"))
	result, err := h.service.GetTasks(requester, statusFilter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID format", nil)
		return
	}

	task, err := h.service.GetTaskByID(requester, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

type createTaskRequest struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Priority      models.TaskPriority    `json:"priority"`
	DueDate       time.Time              `json:"dueDate"`
	AssignedTo    json.RawMessage        `json:"assignedTo"`
	Attachments   []string               `json:"attachments"`
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

// CreateTask persists a new task. Admin only; the route middleware enforces
// the role before this handler runs.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required", nil)
		return
	}

	assignedTo, err := parseAssignedTo(req.AssignedTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "assignedTo must be an array of user IDs", nil)
		return
	}

	task, err := h.service.CreateTask(requester.ID, services.TaskCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		AssignedTo:    assignedTo,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

type updateTaskRequest struct {
	Title         *string                `json:"title"`
	Description   *string                `json:"description"`
	Priority      *models.TaskPriority   `json:"priority"`
	Status        *models.TaskStatus     `json:"status"`
	DueDate       *time.Time             `json:"dueDate"`
	AssignedTo    json.RawMessage        `json:"assignedTo"`
	Attachments   []string               `json:"attachments"`
	TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
}

// UpdateTask applies a partial update. Admins may change any field; an
// assignee may only change status and checklist.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID format", nil)
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	input := services.TaskUpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        req.Status,
		DueDate:       req.DueDate,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	}
	if req.AssignedTo != nil {
		assignedTo, err := parseAssignedTo(req.AssignedTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "assignedTo must be an array of user IDs", nil)
			return
		}
		input.AssignedTo = assignedTo
		input.HasAssignedTo = true
	}

	task, err := h.service.UpdateTask(requester, taskID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DeleteTask removes a task. Admin only, gated by route middleware.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID format", nil)
		return
	}

	if err := h.service.DeleteTask(taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// UpdateTaskStatus transitions the task status; any enum value may follow
// any other.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID format", nil)
		return
	}

	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	task, err := h.service.UpdateTaskStatus(requester, taskID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTaskChecklist replaces the checklist with the submitted items.
func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task ID format", nil)
		return
	}

	var req struct {
		TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	task, err := h.service.UpdateTaskChecklist(requester, taskID, req.TodoChecklist)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// GetDashboardData serves the global admin dashboard.
func (h *TaskHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetDashboardData()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// GetUserDashboardData serves the same aggregation scoped to the caller.
func (h *TaskHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required", nil)
		return
	}

	data, err := h.service.GetUserDashboardData(requester.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}
