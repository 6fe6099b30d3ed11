package handlers

import (
	"context"
	"net/http"
	"time"

	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	"taskflow/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func logOut(msg string, start time.Time, status int) {
	logger.Info("HTTP_OUT: "+msg,
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", status))
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.HealthTimeout)
	defer cancel()

	if err := h.Tasks.HealthCheck(ctx); err != nil {
		logger.Error("HTTP: Health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("error", err.Error()))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

// taskPath reads the tenant and task ids from the path.
func taskPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	taskID, ok := parseID(w, r, "taskID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return subscriptionID, taskID, true
}

type taskAction func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)

// runTaskAction serves the body-less task endpoints that answer with the task.
func (h *Handler) runTaskAction(w http.ResponseWriter, r *http.Request, op string, action taskAction) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := taskPath(w, r)
	if !ok {
		return
	}
	t, err := action(r.Context(), subscriptionID, id)
	if err != nil {
		serviceError(w, r, op, err)
		return
	}
	logOut(op, start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	tasks, err := h.Tasks.ListTasks(r.Context(), subscriptionID)
	if err != nil {
		serviceError(w, r, "list tasks", err)
		return
	}
	logOut("Tasks listed", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks)),
		toPayload("count", len(tasks)))
}

func createOptions(req dto.CreateTaskRequest) []task.TaskOption {
	var opts []task.TaskOption
	if req.Note != "" {
		opts = append(opts, task.WithNote(req.Note))
	}
	if req.Priority != nil {
		opts = append(opts, task.WithPriority(*req.Priority))
	}
	if req.Status != nil {
		opts = append(opts, task.WithStatus(*req.Status))
	}
	if len(req.Tags) > 0 {
		opts = append(opts, task.WithTags(req.Tags...))
	}
	return opts
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	projectID := uuid.Nil
	if req.ProjectID != nil {
		projectID = *req.ProjectID
	}

	t, err := h.Tasks.CreateTask(r.Context(), subscriptionID, projectID, req.Title, createOptions(req)...)
	if err != nil {
		serviceError(w, r, "create task", err)
		return
	}
	logOut("Task created", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(t)))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "get task", h.Tasks.GetTask)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := taskPath(w, r)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var opts []service.UpdateOption
	if req.Title != nil {
		opts = append(opts, service.WithTitle(*req.Title))
	}
	if req.Note != nil {
		opts = append(opts, service.WithNote(*req.Note))
	}
	if req.Priority != nil {
		opts = append(opts, service.WithPriority(*req.Priority))
	}
	if req.Status != nil {
		opts = append(opts, service.WithStatus(*req.Status))
	}
	if req.Tags != nil {
		opts = append(opts, service.WithTags(*req.Tags))
	}
	if len(opts) == 0 {
		responseWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	t, err := h.Tasks.UpdateTask(r.Context(), subscriptionID, id, opts...)
	if err != nil {
		serviceError(w, r, "update task", err)
		return
	}
	logOut("Task updated", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := taskPath(w, r)
	if !ok {
		return
	}
	if err := h.Tasks.DeleteTask(r.Context(), subscriptionID, id); err != nil {
		serviceError(w, r, "delete task", err)
		return
	}
	logOut("Task deleted", start, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "complete task", h.Tasks.Complete)
}

func (h *Handler) UncompleteTask(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "uncomplete task", h.Tasks.Uncomplete)
}

func (h *Handler) ToggleImportant(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "toggle important", h.Tasks.ToggleImportant)
}

func (h *Handler) ToggleFocus(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "toggle focus", h.Tasks.ToggleFocus)
}

func (h *Handler) MarkForToday(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkForTodayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runTaskAction(w, r, "mark for today", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.SetMarkedForToday(ctx, subscriptionID, id, req.Marked)
	})
}

func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runTaskAction(w, r, "add tag", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.AddTag(ctx, subscriptionID, id, req.Tag)
	})
}

func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	h.runTaskAction(w, r, "remove tag", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.RemoveTag(ctx, subscriptionID, id, tag)
	})
}

func (h *Handler) SetDue(w http.ResponseWriter, r *http.Request) {
	var req dto.DueRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Time == nil {
		h.runTaskAction(w, r, "set due date", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
			return h.Tasks.SetDueDate(ctx, subscriptionID, id, date)
		})
		return
	}
	clock, err := parseClock(*req.Time)
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.runTaskAction(w, r, "set due date time", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.SetDueDateTime(ctx, subscriptionID, id, date, clock)
	})
}

func (h *Handler) ClearDue(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "clear due date", h.Tasks.ClearDueDate)
}

func (h *Handler) AddReminder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := taskPath(w, r)
	if !ok {
		return
	}
	var req dto.ReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := task.ParseReminderMode(req.Mode)
	if err != nil {
		serviceError(w, r, "add reminder", err)
		return
	}

	var reminder *task.Reminder
	switch mode {
	case task.ReminderRelativeToDueDateTime:
		if req.MinutesBefore == 0 {
			reminder, err = h.Tasks.AddOnTimeReminder(r.Context(), subscriptionID, id)
		} else {
			reminder, err = h.Tasks.AddRelativeReminder(r.Context(), subscriptionID, id, req.MinutesBefore)
		}
	case task.ReminderDateOnlyFallbackTime:
		fallback, parseErr := parseClock(req.FallbackTime)
		if parseErr != nil {
			responseWithError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		reminder, err = h.Tasks.AddDateOnlyReminder(r.Context(), subscriptionID, id, fallback)
	}
	if err != nil {
		serviceError(w, r, "add reminder", err)
		return
	}
	logOut("Reminder added", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("reminder", dto.FromReminder(reminder)))
}

func (h *Handler) RemoveReminder(w http.ResponseWriter, r *http.Request) {
	reminderID, ok := parseID(w, r, "reminderID")
	if !ok {
		return
	}
	h.runTaskAction(w, r, "remove reminder", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.RemoveReminder(ctx, subscriptionID, id, reminderID)
	})
}

func (h *Handler) AssignProject(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runTaskAction(w, r, "assign project", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.AssignToProject(ctx, subscriptionID, id, req.ProjectID)
	})
}

func (h *Handler) UnassignProject(w http.ResponseWriter, r *http.Request) {
	h.runTaskAction(w, r, "unassign project", h.Tasks.UnassignFromProject)
}

// AddSubTask attaches an existing task when task_id is given, otherwise it
// creates a new subtask titled title.
func (h *Handler) AddSubTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, parentID, ok := taskPath(w, r)
	if !ok {
		return
	}
	var req dto.CreateSubTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.TaskID != nil {
		parent, err := h.Tasks.AddSubTask(r.Context(), subscriptionID, parentID, *req.TaskID)
		if err != nil {
			serviceError(w, r, "add subtask", err)
			return
		}
		logOut("Subtask attached", start, http.StatusOK)
		responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(parent)))
		return
	}

	child, err := h.Tasks.CreateSubTask(r.Context(), subscriptionID, parentID, req.Title)
	if err != nil {
		serviceError(w, r, "create subtask", err)
		return
	}
	logOut("Subtask created", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(child)))
}

func (h *Handler) RemoveSubTask(w http.ResponseWriter, r *http.Request) {
	childID, ok := parseID(w, r, "childID")
	if !ok {
		return
	}
	h.runTaskAction(w, r, "remove subtask", func(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
		return h.Tasks.RemoveSubTask(ctx, subscriptionID, id, childID)
	})
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request, op string, subscriptionID, scopeID uuid.UUID,
	fn func(ctx context.Context, subscriptionID, scopeID uuid.UUID, ids []uuid.UUID) ([]*task.Task, error)) {
	start := time.Now()
	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ordered, err := fn(r.Context(), subscriptionID, scopeID, req.IDs)
	if err != nil {
		serviceError(w, r, op, err)
		return
	}
	logOut("Tasks reordered", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(ordered)))
}

func (h *Handler) ReorderInbox(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	h.reorder(w, r, "reorder inbox", subscriptionID, uuid.Nil, h.Tasks.ReorderProject)
}

func (h *Handler) ReorderSubTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	subscriptionID, parentID, ok := taskPath(w, r)
	if !ok {
		return
	}
	h.reorder(w, r, "reorder subtasks", subscriptionID, parentID, h.Tasks.ReorderSubTasks)
}
