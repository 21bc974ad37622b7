package role

import (
	"net/http"

	"github.com/go-chi/chi"
)

// Module bundles the role service with its HTTP handler so callers
// can wire the feature up in one step.
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

// Enable mounts the role administration routes. All routes require an
// authenticated caller with the admin permission.
func (m *Module) Enable(r chi.Router, authMiddleware func(http.Handler) http.Handler, authz *Authorization) {
	r.Route("/roles", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(authz.RequireAdmin())

		r.Post("/", m.Handler.CreateRole)
		r.Get("/", m.Handler.ListRoles)
		r.Get("/{name}", m.Handler.GetRole)
		r.Post("/{name}/permissions", m.Handler.GrantPermission)
		r.Delete("/{name}/permissions/{permission}", m.Handler.RevokePermission)
	})

	r.Route("/users/{id}/roles", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(authz.RequireAdmin())

		r.Post("/", m.Handler.AssignRole)
		r.Get("/", m.Handler.GetUserRoles)
		r.Delete("/{role}", m.Handler.RevokeRole)
	})
}
