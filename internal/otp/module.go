package otp

import (
	"net/http"

	"github.com/go-chi/chi"
)

// Module bundles the OTP service and handler.
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

// Enable mounts the OTP management routes under /otp, all behind the auth
// middleware. Callers only invoke this when the feature toggle is on; a
// disabled feature contributes no routes at all.
func (m *Module) Enable(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/otp", func(sr chi.Router) {
		sr.Use(authMiddleware)
		sr.Post("/enroll", m.Handler.Enroll)
		sr.Post("/activate", m.Handler.Activate)
		sr.Post("/disable", m.Handler.Disable)
	})
}
