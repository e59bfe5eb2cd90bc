package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"workdesk/internal/auth"
	"workdesk/internal/logger"
)

// UserHandler is the master-only user administration surface. Targets are
// addressed by userId in the body, matching the collection-level routes.
type UserHandler struct {
	Svc *auth.Service
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListUsers(r.Context())
	if err != nil {
		respondInternal(w, "users.list_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"users": users})
}

type updateUserReq struct {
	UserID     uint64  `json:"userId"`
	Role       *string `json:"role"`
	IsApproved *bool   `json:"isApproved"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	upd := auth.UserUpdate{IsApproved: req.IsApproved}
	if req.Role != nil {
		role := auth.Role(*req.Role)
		upd.Role = &role
	}

	u, err := h.Svc.UpdateUser(r.Context(), req.UserID, upd)
	if err != nil {
		failUser(w, "users.update_failed", err)
		return
	}

	logger.Info("users.updated", "uid", u.ID, "role", u.Role, "approved", u.IsApproved)
	respond(w, http.StatusOK, map[string]any{"user": u, "message": "user updated"})
}

type deleteUserReq struct {
	UserID uint64 `json:"userId"`
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.UserID == 0 {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.Svc.DeleteUser(r.Context(), req.UserID); err != nil {
		failUser(w, "users.delete_failed", err)
		return
	}

	logger.Info("users.deleted", "uid", req.UserID)
	respond(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func failUser(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrMasterOnlyEmail):
		respondError(w, http.StatusForbidden, "master role is reserved for the designated email")
	case errors.Is(err, auth.ErrMasterImmutable):
		respondError(w, http.StatusForbidden, "the master account cannot be modified")
	case errors.Is(err, auth.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid role")
	default:
		respondInternal(w, op, err)
	}
}
