package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/database"
	"github.com/learnhub/backend/internal/handlers"
	"github.com/learnhub/backend/internal/logging"
	"github.com/learnhub/backend/internal/middleware"
	"github.com/learnhub/backend/internal/password"
	"github.com/learnhub/backend/internal/routes"
	"github.com/learnhub/backend/internal/services"
	"github.com/learnhub/backend/internal/store"
	"github.com/learnhub/backend/internal/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auth API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "run migrations before serving (postgres store only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	stdoutHandler := logging.Setup(os.Stdout, level)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})
	if err != nil {
		return err
	}

	// User store
	var (
		users       store.UserStore
		db          *gorm.DB
		pgLog       *logging.PGHandler
		cleanupDone = make(chan struct{})
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err = database.Connect(cfg)
		if err != nil {
			return err
		}
		runMigrate := true
		if f := cmd.Flags().Lookup("migrate"); f != nil {
			runMigrate, _ = cmd.Flags().GetBool("migrate")
		}
		if runMigrate {
			if err := database.Migrate(db); err != nil {
				return err
			}
		}
		users = store.NewGormUserStore(db)

		// ERROR+ records are also batched into system_logs.
		pgLog = logging.NewPGHandler(db)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLog)))
		logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)
	default:
		slog.Warn("using in-memory user store; data is lost on restart")
		users = store.NewMemoryUserStore()
	}

	// Services
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	tokenService := services.NewTokenService(codec, users)
	authService := services.NewAuthService(users, hasher, tokenService)

	var verifier services.IdentityVerifier
	if cfg.GoogleClientID != "" {
		verifier = services.NewGoogleIDTokenVerifier(cfg.GoogleClientID)
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set; google sign-in disabled")
	}
	googleService := services.NewGoogleAuthService(users, hasher, tokenService, verifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, googleService, cfg.CookieSecure)
	healthHandler := handlers.NewHealthHandler(users, cfg.AppEnv)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, middleware.JWTProtected(codec, users), authHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.AppEnv)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-quit:
		slog.Info("shutting down server...")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLog != nil {
		pgLog.Stop()
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}
