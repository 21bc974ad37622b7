package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authkit/authkit/internal/core/events"
	"github.com/authkit/authkit/internal/otp"
	otpPostgres "github.com/authkit/authkit/internal/otp/postgres"
	"github.com/authkit/authkit/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker processes",
	Long:  `Start and manage background workers like the event bus monitor and the one-time password challenge sweeper.`,
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event bus worker",
	Long:  `Start the event bus and log every domain event it sees`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var otpSweeperCmd = &cobra.Command{
	Use:   "otp-sweeper",
	Short: "Start the one-time password challenge sweeper",
	Long:  `Periodically delete expired and consumed login challenges`,
	Run: func(cmd *cobra.Command, args []string) {
		startOTPSweeper()
	},
}

var sweepInterval time.Duration

func startEventWorker() {
	_, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	registerEventLogging(eventBus, lg)

	lg.Info("event bus worker started. Waiting for events...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("event bus is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down event bus", "signal", sig)
	lg.Info("event bus shutdown complete")
}

func startOTPSweeper() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	db, gormDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	otpService := otp.NewService(otpPostgres.NewRepository(gormDB), nil, nil, otp.Config{
		Issuer:       cfg.OTP.Issuer,
		Digits:       cfg.OTP.Digits,
		Period:       cfg.OTP.Period,
		Skew:         cfg.OTP.Skew,
		MaxAttempts:  cfg.OTP.MaxAttempts,
		ChallengeTTL: cfg.OTP.ChallengeTTL,
	})

	lg.Info("challenge sweeper started", "interval", sweepInterval)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := otpService.SweepExpiredChallenges(ctx)
			cancel()
			if err != nil {
				lg.Error("challenge sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				lg.Info("swept expired challenges", "removed", removed)
			}
		case sig := <-sigChan:
			lg.Info("received signal, shutting down sweeper", "signal", sig)
			return
		}
	}
}

func init() {
	otpSweeperCmd.Flags().DurationVar(&sweepInterval, "interval", 5*time.Minute, "How often to sweep expired challenges")

	workerCmd.AddCommand(eventWorkerCmd)
	workerCmd.AddCommand(otpSweeperCmd)

	rootCmd.AddCommand(workerCmd)
}
