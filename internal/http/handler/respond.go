package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"workdesk/internal/logger"

	"github.com/go-chi/chi/v5"
)

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, map[string]string{"error": msg})
}

// respondInternal logs the verbose cause server-side and returns a generic
// message to the client.
func respondInternal(w http.ResponseWriter, op string, err error) {
	logger.Error(op, "err", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func pathID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
