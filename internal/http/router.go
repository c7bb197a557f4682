package http

import (
	"net/http"

	"inkwell/internal/account"
	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/http/handler"
	mw "inkwell/internal/http/middleware"
	"inkwell/internal/writing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, accounts *account.Service, coord *writing.Coordinator, jwtSvc *auth.JWT) http.Handler {
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

	ah := &handler.AuthHandler{Accounts: accounts}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/refresh", ah.Refresh)
	r.With(auth.RequireAuth(jwtSvc)).Post("/auth/logout", ah.Logout)

	me := &handler.MeHandler{Accounts: accounts, Writing: coord}
	r.Route("/me", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Get("/", me.Me)
		r.Put("/profile", me.UpdateProfile)
		r.Put("/daily-goal", me.SetDailyGoal)
		r.Get("/achievements", me.Achievements)
		r.Get("/achievements/{id}", me.Achievement)
		r.Put("/notifications/read-all", me.MarkAllNotificationsRead)
		r.Put("/notifications/{id}/read", me.MarkNotificationRead)
	})

	ph := &handler.ProjectHandler{Svc: coord}
	dh := &handler.DocumentHandler{Svc: coord}

	r.Route("/projects", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", ph.Create)
		r.Get("/", ph.List)
		r.Get("/{id}", ph.Get)
		r.Put("/{id}", ph.Update)
		r.Delete("/{id}", ph.Delete)

		r.Put("/{id}/collaborators", ph.AddCollaborator)
		r.Delete("/{id}/collaborators/{userID}", ph.RemoveCollaborator)

		r.Post("/{id}/documents", dh.CreateInProject)
		r.Get("/{id}/documents", dh.ListInProject)
	})

	r.Route("/documents", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", dh.Create)
		r.Get("/", dh.List)
		r.Get("/{id}", dh.Get)
		r.Put("/{id}", dh.Update)
		r.Delete("/{id}", dh.Delete)
	})

	return r
}
