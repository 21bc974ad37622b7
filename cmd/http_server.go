package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/auth"
	authPostgres "github.com/authkit/authkit/internal/auth/postgres"
	"github.com/authkit/authkit/internal/core/events"
	"github.com/authkit/authkit/internal/otp"
	otpPostgres "github.com/authkit/authkit/internal/otp/postgres"
	"github.com/authkit/authkit/internal/role"
	rolePostgres "github.com/authkit/authkit/internal/role/postgres"
	"github.com/authkit/authkit/internal/transport/openapi"
	"github.com/authkit/authkit/internal/transport/rest"
	"github.com/authkit/authkit/internal/user"
	userPostgres "github.com/authkit/authkit/internal/user/postgres"
	"github.com/authkit/authkit/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	EventBus   *events.EventBus
	AuthModule *auth.Module
	UserModule *user.Module
	OTPModule  *otp.Module
	RoleModule *role.Module
	Authz      *role.Authorization
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server",
		"address", addr,
		"otp_enabled", deps.Config.Features.OTPEnabled,
		"role_enabled", deps.Config.Features.RoleEnabled)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthModule,
		deps.UserModule,
		deps.OTPModule,
		deps.RoleModule,
		deps.Authz,
		deps.Config.Server.AllowedOrigins,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Validate the served contract before accepting traffic
	if _, err := openapi.Load(context.Background(), "./api/openapi.yml"); err != nil {
		lg.Warn("openapi document failed validation", "error", err)
	}

	bus := events.NewEventBus(lg)
	registerEventLogging(bus, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
		config.Security.MFATokenDuration,
	)

	authRepo := authPostgres.NewRepository(gormDB)

	var otpModule *otp.Module
	var secondFactor auth.SecondFactor
	if config.Features.OTPEnabled {
		otpService := otp.NewService(otpPostgres.NewRepository(gormDB), authRepo, bus, otp.Config{
			Issuer:       config.OTP.Issuer,
			Digits:       config.OTP.Digits,
			Period:       config.OTP.Period,
			Skew:         config.OTP.Skew,
			MaxAttempts:  config.OTP.MaxAttempts,
			ChallengeTTL: config.OTP.ChallengeTTL,
		})
		otpModule = otp.NewModule(otpService)
		secondFactor = otpService
	}

	authService := auth.NewService(authRepo, tokenGen, secondFactor, bus, config.Security.BCryptCost)
	authModule := auth.NewModule(authService)

	userService := user.NewService(userPostgres.NewRepository(db), bus, config.Security.BCryptCost)
	userModule := user.NewModule(userService)

	var roleModule *role.Module
	checker := role.NewPermissionChecker()
	if config.Features.RoleEnabled {
		roleService := role.NewService(rolePostgres.NewRepository(gormDB), bus)
		roleModule = role.NewModule(roleService)
		checker = roleService.Checker()
	}
	authz := role.NewAuthorization(checker, config.Features.RoleEnabled, lg)

	return &Dependencies{
		Config:     config,
		DB:         db,
		GormDB:     gormDB,
		Router:     chi.NewRouter(),
		Logger:     lg,
		EventBus:   bus,
		AuthModule: authModule,
		UserModule: userModule,
		OTPModule:  otpModule,
		RoleModule: roleModule,
		Authz:      authz,
	}, nil
}

// initDB opens the pgx connection pool and layers gorm over the same
// *sql.DB so both query styles share one pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm over db connection: %w", err)
	}

	return dbConn, gormDB, nil
}

func registerEventLogging(bus *events.EventBus, lg *slog.Logger) {
	logEvent := func(ctx context.Context, event events.Event) error {
		lg.Info("domain event",
			"event_id", event.EventID(),
			"event_type", event.EventType())
		return nil
	}

	for _, eventType := range []string{
		events.EventTypeUserRegistered,
		events.EventTypeUserLoggedIn,
		events.EventTypeOTPActivated,
		events.EventTypeOTPDisabled,
		events.EventTypeRoleAssigned,
		events.EventTypeRoleRevoked,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}
