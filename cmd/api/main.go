package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaekwang-park/homework-api/internal/config"
	"github.com/jaekwang-park/homework-api/internal/feed"
	homeworkhttp "github.com/jaekwang-park/homework-api/internal/http"
	"github.com/jaekwang-park/homework-api/internal/identity"
	"github.com/jaekwang-park/homework-api/internal/middleware"
	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/repository"
	"github.com/jaekwang-park/homework-api/internal/service"
)

// userResolverAdapter adapts a user repository to the middleware.UserResolver interface.
type userResolverAdapter struct {
	repo interface {
		GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error)
	}
}

func (a *userResolverAdapter) ResolveUserID(ctx context.Context, subject string) (string, error) {
	user, err := a.repo.GetByCognitoSub(ctx, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", middleware.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	return user.ID, nil
}

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background()); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"auth_dev_mode", cfg.AuthDevMode,
		"log_level", cfg.LogLevel,
		"redis_enabled", cfg.Redis.Enabled(),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := repository.NewDB(cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.Info("database connected")

	// Repositories
	assignmentRepo := repository.NewPostgresAssignment(db)
	userRepo := repository.NewPostgresUser(db)

	// Snapshot feed: every write through the hub reaches open live sessions
	notifier, closeNotifier, err := newNotifier(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	hub := feed.NewHub(assignmentRepo, notifier, logger)
	if err := hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start snapshot feed: %w", err)
	}

	// Services
	assignmentSvc := service.NewAssignmentService(hub)

	var authSvc *service.AuthService
	if cfg.Cognito.Enabled() {
		provider, err := identity.NewCognito(
			ctx,
			cfg.Cognito.Region,
			cfg.Cognito.AppClientID,
			cfg.Cognito.AppClientSecret,
		)
		if err != nil {
			return err
		}
		authSvc = service.NewAuthService(provider, userRepo)
		logger.Info("cognito client initialized", "region", cfg.Cognito.Region)
	} else {
		logger.Warn("cognito client not initialized: COGNITO_APP_CLIENT_ID not set")
	}

	// Auth middleware
	authCfg := middleware.AuthConfig{
		DevMode: cfg.AuthDevMode,
	}
	if !cfg.AuthDevMode {
		jwks := middleware.NewJWKSClient(middleware.CognitoJWKSURL(cfg.Cognito.Region, cfg.Cognito.UserPoolID))
		if err := jwks.Warm(ctx); err != nil {
			logger.Warn("failed to prefetch JWKS; will retry on first request", "error", err)
		}
		authCfg.Keys = jwks
		authCfg.Issuer = middleware.CognitoIssuer(cfg.Cognito.Region, cfg.Cognito.UserPoolID)
		authCfg.AppClientID = cfg.Cognito.AppClientID
		authCfg.UserResolver = &userResolverAdapter{repo: userRepo}
	}
	auth, err := middleware.NewAuth(authCfg)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	// HTTP Server
	router := homeworkhttp.NewRouter(homeworkhttp.RouterDeps{
		Logger:         logger,
		Assignments:    assignmentSvc,
		Auth:           authSvc,
		Feed:           hub,
		DB:             db,
		Authenticate:   auth.Middleware,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	srv := homeworkhttp.NewServer(ctx, cfg.ServerPort, logger, router)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}

// newNotifier picks Redis fan-out when an address is configured and the
// in-process notifier otherwise.
func newNotifier(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (feed.Notifier, func(), error) {
	if !cfg.Enabled() {
		logger.Info("redis not configured; live updates stay on this instance")
		return feed.NewLocalNotifier(), func() {}, nil
	}

	n, err := feed.NewRedisNotifier(ctx, cfg.Address, cfg.Password, cfg.Index(), cfg.ChannelPrefix, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis connected", "address", cfg.Address)
	return n, func() {
		if err := n.Close(); err != nil {
			logger.Warn("failed to close redis", "error", err)
		}
	}, nil
}
