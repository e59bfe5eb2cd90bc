package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"workdesk/internal/auth"
	"workdesk/internal/task"
)

type HistoryHandler struct {
	Svc *task.Service
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	histories, total, err := h.Svc.ListHistories(r.Context(), id, limit, offset)
	if err != nil {
		failTask(w, "history.list_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"histories": histories,
		"total":     total,
	})
}

type createHistoryReq struct {
	Status      string           `json:"status"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Attachments task.Attachments `json:"attachments"`
}

func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req createHistoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	entry, err := h.Svc.CreateHistory(r.Context(), caller, id, task.CreateHistoryInput{
		Status:      task.HistoryStatus(req.Status),
		Title:       req.Title,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		failTask(w, "history.create_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"history": entry,
		"message": "work history entry added",
	})
}

type updateHistoryReq struct {
	Status      *string           `json:"status"`
	Title       *string           `json:"title"`
	Content     *string           `json:"content"`
	Attachments *task.Attachments `json:"attachments"`
}

func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	hid, ok := pathID(r, "historyID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateHistoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := task.UpdateHistoryInput{
		Title:       req.Title,
		Content:     req.Content,
		Attachments: req.Attachments,
	}
	if req.Status != nil {
		st := task.HistoryStatus(*req.Status)
		in.Status = &st
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	entry, err := h.Svc.UpdateHistory(r.Context(), caller, hid, in)
	if err != nil {
		failTask(w, "history.update_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"history": entry,
		"message": "work history entry updated",
	})
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hid, ok := pathID(r, "historyID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	if err := h.Svc.DeleteHistory(r.Context(), caller, hid); err != nil {
		failTask(w, "history.delete_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "work history entry deleted"})
}

func queryInt(r *http.Request, name string) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
