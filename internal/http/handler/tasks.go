package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"workdesk/internal/auth"
	"workdesk/internal/task"
)

type TaskHandler struct {
	Svc *task.Service
}

type createTaskReq struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	URL         string           `json:"url"`
	Attachments task.Attachments `json:"attachments"`
	DueDate     *string          `json:"dueDate"` // RFC3339 optional
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	dueDate, ok := parseOptionalTime(req.DueDate)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid dueDate (RFC3339)")
		return
	}

	t, err := h.Svc.Create(r.Context(), task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    task.Category(req.Category),
		URL:         req.URL,
		Attachments: req.Attachments,
		DueDate:     dueDate,
	})
	if err != nil {
		failTask(w, "task.create_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"task": t})
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	tasks, err := h.Svc.List(r.Context(), task.Status(status))
	if err != nil {
		failTask(w, "task.list_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		failTask(w, "task.get_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"task": t})
}

type updateTaskReq struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Status      *string           `json:"status"`
	URL         *string           `json:"url"`
	Attachments *task.Attachments `json:"attachments"`
	DueDate     *string           `json:"dueDate"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	dueDate, ok := parseOptionalTime(req.DueDate)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid dueDate (RFC3339)")
		return
	}

	in := task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Attachments: req.Attachments,
		DueDate:     dueDate,
	}
	if req.Category != nil {
		c := task.Category(*req.Category)
		in.Category = &c
	}
	if req.Status != nil {
		st := task.Status(*req.Status)
		in.Status = &st
	}

	t, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		failTask(w, "task.update_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"task": t})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		failTask(w, "task.delete_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "task deleted"})
}

type addCommentReq struct {
	Content string `json:"content"`
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req addCommentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	c, err := h.Svc.AddComment(r.Context(), id, caller.UserID, req.Content)
	if err != nil {
		failTask(w, "task.comment_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"comment": c})
}

// MigrateNumbers backfills task numbers on legacy rows.
func (h *TaskHandler) MigrateNumbers(w http.ResponseWriter, r *http.Request) {
	migrated, err := h.Svc.MigrateTaskNumbers(r.Context())
	if err != nil {
		failTask(w, "task.migrate_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message":  "migration complete",
		"migrated": migrated,
	})
}

func failTask(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		respondError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, task.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, task.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternal(w, op, err)
	}
}

func parseOptionalTime(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
