package handler

import (
	"errors"
	"net/http"
	"time"

	tasksdomain "casa360/internal/domain/tasks"
	"casa360/internal/transport/httpserver/middleware"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssigneeID  *int64 `json:"assignee_id"`
	Points      int    `json:"points"`
	DueDate     string `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssigneeID  *int64  `json:"assignee_id"`
	Points      *int    `json:"points"`
	DueDate     *string `json:"due_date"`
}

type taskResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *int64     `json:"assignee_id"`
	Points      int        `json:"points"`
	DueDate     *time.Time `json:"due_date"`
	Done        bool       `json:"done"`
	CompletedBy *int64     `json:"completed_by"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type progressResponse struct {
	UserID    int64 `json:"user_id"`
	Points    int64 `json:"points"`
	TasksDone int64 `json:"tasks_done"`
	Level     int   `json:"level"`
}

type achievementResponse struct {
	Code     string    `json:"code"`
	EarnedAt time.Time `json:"earned_at"`
}

type progressWithAchievementsResponse struct {
	Progress     progressResponse      `json:"progress"`
	Achievements []achievementResponse `json:"achievements"`
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	includeDone := parseBoolParam(r.URL.Query().Get("include_done"))

	tasks, err := h.Tasks.ListTasks(r.Context(), id, includeDone)
	if err != nil {
		h.writeTaskError(w, "tasks.list", err, id)
		return
	}
	response := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	taskID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	task, err := h.Tasks.GetTask(r.Context(), id, taskID)
	if err != nil {
		h.writeTaskError(w, "tasks.get", err, id)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	dueDate, err := parseDateParam(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "due_date must be YYYY-MM-DD")
		return
	}

	task, err := h.Tasks.CreateTask(r.Context(), id, tasksdomain.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Points:      req.Points,
		DueDate:     dueDate,
	})
	if err != nil {
		h.writeTaskError(w, "tasks.create", err, id)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	taskID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	input := tasksdomain.UpdateTaskInput{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Points:      req.Points,
	}
	if req.DueDate != nil {
		dueDate, err := parseDateParam(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "due_date must be YYYY-MM-DD")
			return
		}
		input.DueDate = dueDate
	}

	task, err := h.Tasks.UpdateTask(r.Context(), id, input)
	if err != nil {
		h.writeTaskError(w, "tasks.update", err, id)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	taskID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := h.Tasks.DeleteTask(r.Context(), id, taskID); err != nil {
		h.writeTaskError(w, "tasks.delete", err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	taskID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	progress, err := h.Tasks.CompleteTask(r.Context(), id, taskID, user.ID)
	if err != nil {
		h.writeTaskError(w, "tasks.complete", err, id)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(progress))
}

func (h *Handlers) TaskProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := houseScope(w, r)
	if !ok {
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	progress, achievements, err := h.Tasks.Progress(r.Context(), id, user.ID)
	if err != nil {
		h.writeTaskError(w, "tasks.progress", err, id)
		return
	}

	response := progressWithAchievementsResponse{
		Progress:     toProgressResponse(progress),
		Achievements: make([]achievementResponse, 0, len(achievements)),
	}
	for _, achievement := range achievements {
		response.Achievements = append(response.Achievements, achievementResponse{
			Code:     achievement.Code,
			EarnedAt: achievement.EarnedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) writeTaskError(w http.ResponseWriter, op string, err error, houseID int64) {
	switch {
	case errors.Is(err, tasksdomain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, tasksdomain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task_not_found", "task not found")
	case errors.Is(err, tasksdomain.ErrTaskAlreadyDone):
		h.log.BusinessError(op+": task already completed", err, "house_id", houseID)
		writeError(w, http.StatusConflict, "task_already_done", "task already completed")
	default:
		h.log.InternalError(op+": failed", err, "house_id", houseID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toTaskResponse(task *tasksdomain.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		AssigneeID:  task.AssigneeID,
		Points:      task.Points,
		DueDate:     task.DueDate,
		Done:        task.Done,
		CompletedBy: task.CompletedBy,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
	}
}

func toProgressResponse(progress *tasksdomain.Progress) progressResponse {
	return progressResponse{
		UserID:    progress.UserID,
		Points:    progress.Points,
		TasksDone: progress.TasksDone,
		Level:     progress.Level,
	}
}
