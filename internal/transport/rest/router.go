package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/authkit/authkit/internal/auth"
	"github.com/authkit/authkit/internal/otp"
	"github.com/authkit/authkit/internal/role"
	"github.com/authkit/authkit/internal/transport/middleware"
	"github.com/authkit/authkit/internal/transport/swagger"
	"github.com/authkit/authkit/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RegisterAllRoutes wires every module onto the router. The otp and role
// modules are optional; pass nil to leave a feature unmounted.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authModule *auth.Module, userModule *user.Module, otpModule *otp.Module, roleModule *role.Module, authz *role.Authorization, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authModule != nil {
			authModule.Register(r)
		}

		if userModule != nil && authModule != nil {
			userModule.Register(r, authModule.Handler.AuthMiddleware)
		}

		if otpModule != nil && authModule != nil {
			otpModule.Enable(r, authModule.Handler.AuthMiddleware)
		}

		if roleModule != nil && authModule != nil {
			roleModule.Enable(r, authModule.Handler.AuthMiddleware, authz)
		}
	})
}
