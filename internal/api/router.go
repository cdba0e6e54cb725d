package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaam8/poll_profiles/internal/service"
	"go.uber.org/zap"
)

type Handler struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	l        *zap.Logger
}

func New(auth *service.AuthService, profiles *service.ProfileService, l *zap.Logger) *Handler {
	return &Handler{
		auth:     auth,
		profiles: profiles,
		l:        l,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Post("/federated", h.FederatedSignIn)
		r.With(h.requireSession).Post("/signout", h.SignOut)
	})

	r.Route("/profiles/{name}", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Get("/followers", h.ListFollowers)
		r.Get("/following", h.ListFollowing)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/", h.GetMe)
		r.Put("/", h.UpdateMe)
		r.Post("/following/{uid}", h.Follow)
		r.Delete("/following/{uid}", h.Unfollow)
		r.Post("/polls", h.AddPoll)
		r.Delete("/polls/{pollID}", h.RemovePoll)
		r.Post("/votes", h.Vote)
	})

	return r
}
