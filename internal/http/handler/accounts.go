package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"workdesk/internal/account"
	"workdesk/internal/auth"
)

type AccountHandler struct {
	Svc *account.Service
}

type accountReq struct {
	Platform    string `json:"platform"`
	AccountName string `json:"accountName"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Note        string `json:"note"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	platform := strings.TrimSpace(r.URL.Query().Get("platform"))
	accounts, err := h.Svc.List(r.Context(), platform)
	if err != nil {
		failAccount(w, "account.list_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	a, err := h.Svc.Create(r.Context(), caller.UserID, account.Input{
		Platform:    req.Platform,
		AccountName: req.AccountName,
		Username:    req.Username,
		Password:    req.Password,
		Note:        req.Note,
	})
	if err != nil {
		failAccount(w, "account.create_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"account": a})
}

func (h *AccountHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req accountReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	a, err := h.Svc.Replace(r.Context(), id, account.Input{
		Platform:    req.Platform,
		AccountName: req.AccountName,
		Username:    req.Username,
		Password:    req.Password,
		Note:        req.Note,
	})
	if err != nil {
		failAccount(w, "account.replace_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"account": a})
}

// Touch records a credential-copy action by bumping lastUsedAt.
func (h *AccountHandler) Touch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.Svc.Touch(r.Context(), id)
	if err != nil {
		failAccount(w, "account.touch_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"account": a})
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		failAccount(w, "account.delete_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

func failAccount(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		respondError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, account.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternal(w, op, err)
	}
}
