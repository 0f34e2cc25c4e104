package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/services"
	"github.com/todoapp/apiserver/types"
)

const msgInvalidInteger = "Input should be a valid integer, unable to parse string as an integer"

// TaskHandler provides HTTP handlers for the caller's tasks.
type TaskHandler struct {
	taskService   *services.TaskService
	exportService *services.ExportService
	logger        logging.Logger
}

// NewTaskHandler constructs a TaskHandler. exportService may be nil, in
// which case the export route is not registered.
func NewTaskHandler(taskService *services.TaskService, exportService *services.ExportService, logger logging.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:   taskService,
		exportService: exportService,
		logger:        logger,
	}
}

// TaskRouter registers task routes on the given router. Every route
// requires authentication.
func TaskRouter(r chi.Router, handler *TaskHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)

	r.Get("/", handler.ListTasks)
	r.Post("/", handler.CreateTask)
	if handler.exportService != nil {
		r.Post("/export", handler.ExportTasks)
	}
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Put("/", handler.UpdateTask)
		r.Delete("/", handler.DeleteTask)
		r.Patch("/complete", handler.CompleteTask)
	})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	q, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.taskService.List(r.Context(), userID, q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req types.TaskCreate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/tasks/"+task.ID)
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var patch types.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, chi.URLParam(r, "taskID"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, chi.URLParam(r, "taskID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Complete(r.Context(), userID, chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	result, err := h.exportService.Export(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *TaskHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, h.logger, apperr.Unauthorized("Not authenticated"))
		return "", false
	}
	return userID, true
}

// parseTaskQuery reads status, priority, limit and offset. Range checks
// are left to the service; only malformed integers are rejected here.
func parseTaskQuery(values url.Values) (types.TaskQuery, error) {
	q := types.TaskQuery{Limit: services.DefaultTaskLimit}
	verr := &apperr.ValidationError{}

	if v := strings.TrimSpace(values.Get("status")); v != "" {
		status := types.TaskStatus(v)
		q.Status = &status
	}
	if v := strings.TrimSpace(values.Get("priority")); v != "" {
		priority := types.TaskPriority(v)
		q.Priority = &priority
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			verr.Add(apperr.LocQuery, msgInvalidInteger, "limit")
		}
		q.Limit = limit
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			verr.Add(apperr.LocQuery, msgInvalidInteger, "offset")
		}
		q.Offset = offset
	}

	return q, verr.OrNil()
}
