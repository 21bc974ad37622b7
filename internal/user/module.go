package user

import (
	"net/http"

	"github.com/go-chi/chi"
)

type Module struct {
	Service *Service
	Handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{
		Service: svc,
		Handler: NewHandler(svc),
	}
}

// Register mounts the user routes. Registration is public, everything
// else requires an authenticated caller.
func (m *Module) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/users", m.Handler.Register)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/users", m.Handler.List)
		r.Get("/users/me", m.Handler.GetCurrentUser)
		r.Put("/users/me", m.Handler.Update)
		r.Patch("/users/me", m.Handler.Patch)
		r.Post("/users/me/password", m.Handler.ChangePassword)
		r.Get("/users/{id}", m.Handler.GetByID)
	})
}
