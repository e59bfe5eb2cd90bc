package http

import (
	"net/http"

	"workdesk/internal/account"
	"workdesk/internal/auth"
	"workdesk/internal/blog"
	"workdesk/internal/config"
	"workdesk/internal/http/handler"
	mw "workdesk/internal/http/middleware"
	"workdesk/internal/task"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Services struct {
	Auth    *auth.Service
	JWT     *auth.JWT
	Task    *task.Service
	Account *account.Service
	Blog    *blog.Service
}

func NewRouter(cfg config.Config, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{Svc: svc.Auth, JWT: svc.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/setup-master", ah.SetupMaster)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(svc.JWT)).Get("/me", me.Me)

	taskH := &handler.TaskHandler{Svc: svc.Task}
	historyH := &handler.HistoryHandler{Svc: svc.Task}
	r.Route("/tasks", func(r chi.Router) {
		r.Use(auth.RequireAuth(svc.JWT))

		r.Get("/", taskH.List)
		r.Post("/", taskH.Create)
		r.With(auth.RequireRole(auth.RoleAdmin)).Post("/migrate-numbers", taskH.MigrateNumbers)

		r.Get("/{id}", taskH.Get)
		r.Patch("/{id}", taskH.Update)
		r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/{id}", taskH.Delete)

		r.Post("/{id}/comments", taskH.AddComment)

		r.Get("/{id}/history", historyH.List)
		r.With(auth.RequireRole(auth.RoleAdmin)).Post("/{id}/history", historyH.Create)
		// author-or-admin is decided in the service, which can see the record
		r.Patch("/{id}/history/{historyID}", historyH.Update)
		r.Delete("/{id}/history/{historyID}", historyH.Delete)
	})

	accountH := &handler.AccountHandler{Svc: svc.Account}
	r.Route("/accounts", func(r chi.Router) {
		r.Use(auth.RequireAuth(svc.JWT))

		r.With(auth.RequireRole(auth.RoleAdmin)).Get("/", accountH.List)
		r.With(auth.RequireRole(auth.RoleAdmin)).Post("/", accountH.Create)
		r.With(auth.RequireRole(auth.RoleAdmin)).Put("/{id}", accountH.Replace)
		r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/{id}", accountH.Delete)
		r.Patch("/{id}", accountH.Touch)
	})

	blogH := &handler.BlogHandler{Svc: svc.Blog}
	r.Route("/blog-posts", func(r chi.Router) {
		r.Use(auth.RequireAuth(svc.JWT))

		r.Get("/", blogH.List)
		r.Post("/", blogH.Create)
		r.Get("/stats", blogH.Stats)

		r.Get("/{id}", blogH.Get)
		r.Patch("/{id}", blogH.Update)
		r.Delete("/{id}", blogH.Delete)

		r.Post("/{id}/rankings", blogH.AddRanking)
	})

	userH := &handler.UserHandler{Svc: svc.Auth}
	r.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireAuth(svc.JWT))
		r.Use(auth.RequireMaster())

		r.Get("/", userH.List)
		r.Patch("/", userH.Update)
		r.Delete("/", userH.Delete)
	})

	return r
}
