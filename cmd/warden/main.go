package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-rbac/warden/cmd/warden/cli"
	"github.com/warden-rbac/warden/internal/app"
	"github.com/warden-rbac/warden/internal/auth"
	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/elements"
	"github.com/warden-rbac/warden/internal/observability"
	"github.com/warden-rbac/warden/internal/platform/cache"
	"github.com/warden-rbac/warden/internal/platform/db"
	"github.com/warden-rbac/warden/internal/products"
	"github.com/warden-rbac/warden/internal/roles"
	"github.com/warden-rbac/warden/internal/rules"
	"github.com/warden-rbac/warden/internal/shared"
	"github.com/warden-rbac/warden/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "seed", "create-admin":
			if err := runCommand(ctx, os.Args[1], os.Args[2:]); err != nil {
				slog.Default().Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (expected seed or create-admin)\n", os.Args[1])
			os.Exit(2)
		}
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	usersRepo := users.NewRepository(pool)
	rolesService := roles.NewService(roles.NewRepository(pool))
	elementsRepo := elements.NewRepository(pool)

	var rulesSource rules.Repository = rules.NewRepository(pool)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, rule caching disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		rulesSource = rules.NewCachedRepository(rulesSource, redisClient, cfg.RuleCacheTTL, logger)
	}
	rulesService := rules.NewService(rulesSource)

	metrics := observability.NewMetrics()
	evaluator := authz.NewEvaluator(rolesService, elementsRepo, rulesService)
	evaluator.Observe(metrics.ObserveDecision)

	verifier := auth.NewVerifier(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	authService := auth.NewService(usersRepo, verifier, tokens)
	accountsService := users.NewService(usersRepo, verifier, rolesService)

	auditLogger := shared.NewAuditLogger(pool)

	seed, err := cfg.SeedProducts()
	if err != nil {
		logger.Error("parse product seed", slog.Any("error", err))
		os.Exit(1)
	}
	productStore := products.NewStore(seed)

	identity := auth.Middleware{Service: authService, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, accountsService, auditLogger)
	productsHandler := products.NewHandler(logger, productStore, evaluator)
	rulesHandler := rules.NewHandler(logger, rulesService, evaluator, auditLogger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Identity:        identity,
		AuthHandler:     authHandler,
		ProductsHandler: productsHandler,
		RulesHandler:    rulesHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runCommand(ctx context.Context, name string, args []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch name {
	case "seed":
		return cli.Seed(ctx, pool)
	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
		email := fs.String("email", "", "admin email address")
		password := fs.String("password", "", "admin password")
		firstName := fs.String("first-name", "Admin", "admin first name")
		lastName := fs.String("last-name", "Admin", "admin last name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.CreateAdmin(ctx, pool, *email, *password, *firstName, *lastName)
	}
	return fmt.Errorf("unknown command %q", name)
}
