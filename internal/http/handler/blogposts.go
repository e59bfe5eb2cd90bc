package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"workdesk/internal/auth"
	"workdesk/internal/blog"
)

type BlogHandler struct {
	Svc *blog.Service
}

type createPostReq struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Keyword string `json:"keyword"`
	Ranking int    `json:"ranking"`
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	p, err := h.Svc.Create(r.Context(), caller, blog.CreateInput{
		Title:   req.Title,
		URL:     req.URL,
		Keyword: req.Keyword,
		Rank:    req.Ranking,
	})
	if err != nil {
		failBlog(w, "blog.create_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"post": p})
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	posts, err := h.Svc.List(r.Context(), keyword)
	if err != nil {
		failBlog(w, "blog.list_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"posts": posts})
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		failBlog(w, "blog.get_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"post": p})
}

type updatePostReq struct {
	Title   *string `json:"title"`
	URL     *string `json:"url"`
	Keyword *string `json:"keyword"`
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updatePostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	p, err := h.Svc.Update(r.Context(), id, blog.UpdateInput{
		Title:   req.Title,
		URL:     req.URL,
		Keyword: req.Keyword,
	})
	if err != nil {
		failBlog(w, "blog.update_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"post": p})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	if err := h.Svc.Delete(r.Context(), caller, id); err != nil {
		failBlog(w, "blog.delete_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

type addRankingReq struct {
	Rank int `json:"rank"`
}

func (h *BlogHandler) AddRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req addRankingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	p, err := h.Svc.AddRanking(r.Context(), caller, id, req.Rank)
	if err != nil {
		failBlog(w, "blog.ranking_failed", err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"post": p})
}

func (h *BlogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		failBlog(w, "blog.stats_failed", err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"stats": stats})
}

func failBlog(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		respondError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, blog.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, blog.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternal(w, op, err)
	}
}
