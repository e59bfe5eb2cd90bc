package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"workdesk/internal/auth"
	"workdesk/internal/logger"
)

type AuthHandler struct {
	Svc *auth.Service
	JWT *auth.JWT
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	u, err := h.Svc.Register(r.Context(), req.Email, req.Password, req.Name)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "a valid email, a password of at least 6 characters and a name are required")
		return
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email already in use")
		return
	default:
		respondInternal(w, "register.failed", err)
		return
	}

	logger.Info("register.ok", "uid", u.ID, "email", u.Email)
	respond(w, http.StatusCreated, map[string]any{
		"message": "registered; an administrator must approve the account before login",
		"user":    u,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	u, err := h.Svc.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	case errors.Is(err, auth.ErrUnknownAccount):
		respondError(w, http.StatusUnauthorized, "account does not exist")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "password does not match")
		return
	case errors.Is(err, auth.ErrPendingApproval):
		logger.Warn("login.pending", "email", req.Email)
		respondError(w, http.StatusForbidden, "awaiting administrator approval")
		return
	default:
		respondInternal(w, "login.failed", err)
		return
	}

	token, err := h.JWT.Sign(u.Identity())
	if err != nil {
		respondInternal(w, "login.sign_failed", err)
		return
	}

	logger.Info("login.ok", "uid", u.ID, "role", u.Role)
	respond(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

// SetupMaster is the one-time bootstrap that promotes the configured master
// email. Idempotent, safe to leave mounted.
func (h *AuthHandler) SetupMaster(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.PromoteMaster(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUnknownAccount):
		respondError(w, http.StatusNotFound, "the designated account has not registered yet")
		return
	default:
		respondInternal(w, "setup_master.failed", err)
		return
	}

	logger.Info("setup_master.ok", "uid", u.ID)
	respond(w, http.StatusOK, map[string]any{
		"message": "master role granted",
		"user":    u,
	})
}

type MeHandler struct{}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	respond(w, http.StatusOK, map[string]any{
		"id":         id.UserID,
		"email":      id.Email,
		"name":       id.Name,
		"role":       id.Role,
		"isApproved": id.Approved,
	})
}
