package auth

import (
	"github.com/go-chi/chi"
)

// Module bundles the auth service and handler so callers can attach
// authentication to a router with a single call.
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

// Register mounts the authentication routes under /auth. The returned
// middleware guards everything that needs a logged-in user.
func (m *Module) Register(r chi.Router) {
	r.Route("/auth", func(sr chi.Router) {
		sr.Post("/login", m.Handler.Login)
		sr.Post("/verify", m.Handler.VerifyMFA)
		sr.Post("/refresh", m.Handler.RefreshToken)
		sr.Post("/logout", m.Handler.Logout)
	})
}
