package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caseflow-ai/caseflow/internal/ai"
	"github.com/caseflow-ai/caseflow/internal/guidance"
	"github.com/caseflow-ai/caseflow/internal/intake"
	"github.com/caseflow-ai/caseflow/internal/platform/cache"
	"github.com/caseflow-ai/caseflow/internal/platform/config"
	"github.com/caseflow-ai/caseflow/internal/platform/database"
	"github.com/caseflow-ai/caseflow/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "ai_enabled", cfg.AI.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// buildApp constructs the full dependency graph: guidance catalog, stores,
// budget guard, response cache, router, intake service, and the web server.
// Everything is injected explicitly; no package-level singletons.
func buildApp(ctx context.Context, cfg *config.Config) (*web.Server, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	catalog, err := guidance.Load(cfg.GuidanceDir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("loading guidance: %w", err)
	}

	var store intake.Store = intake.NewMemoryStore()
	var events intake.EventLogger = intake.NopEventLogger{}
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to database: %w", err)
		}
		cleanups = append(cleanups, db.Close)

		if err := db.Migrate(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("migrating: %w", err)
		}
		pgStore, err := intake.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, cleanup, err
		}
		store = pgStore
		events = intake.NewPostgresEventLogger(db.Pool)
		slog.Info("using postgres store")
	} else {
		slog.Info("using in-memory store")
	}

	var sessions web.SessionStore = web.NewMemorySessionStore()
	var redis *cache.Cache
	if cfg.Cache.URL != "" {
		redis, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to cache: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := redis.Close(); err != nil {
				slog.Warn("closing cache", "error", err)
			}
		})
		sessions = web.NewRedisSessionStore(redis)
		slog.Info("using redis sessions")
	}

	router, err := buildRouter(cfg, catalog)
	if err != nil {
		return nil, cleanup, err
	}

	svc := intake.NewService(intake.ServiceConfig{
		Store:  store,
		Events: events,
		Router: router,
	})

	var adminHash []byte
	if cfg.Auth.AdminPassword != "" {
		adminHash, err = web.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			return nil, cleanup, fmt.Errorf("hashing admin password: %w", err)
		}
	} else {
		slog.Warn("no admin password configured, staff routes disabled")
	}

	server := web.NewServer(web.ServerConfig{
		Intake:     svc,
		AIRouter:   router,
		Sessions:   sessions,
		AdminHash:  adminHash,
		SessionTTL: time.Duration(cfg.Auth.SessionTTL) * time.Minute,
		Ready:      readyCheck(db, redis),
	})
	return server, cleanup, nil
}

// buildRouter assembles the tiered response router from config.
func buildRouter(cfg *config.Config, catalog *guidance.Catalog) (*ai.Router, error) {
	guard := ai.NewBudgetGuard(ai.BudgetConfig{
		DailyTokenCeiling: cfg.AI.DailyTokenBudget,
		CheapCeiling:      cfg.AI.MaxTokensCheap,
		ExpensiveCeiling:  cfg.AI.MaxTokensExpensive,
		CostPerToken:      cfg.AI.CostPerToken,
	})
	respCache := ai.NewResponseCache(time.Duration(cfg.AI.CacheTTLDefault) * time.Second)
	rules := ai.NewRulesResolver(catalog)

	var generator ai.Generator
	if cfg.HasAICredential() {
		gen, err := ai.NewHTTPGenerator(cfg.AI.APIKey, cfg.AI.MaxTokensCheap,
			ai.WithGeneratorModels(cfg.AI.CheapModel, cfg.AI.ExpensiveModel),
		)
		if err != nil {
			return nil, fmt.Errorf("building generator: %w", err)
		}
		generator = gen
	}

	routerCfg := ai.RouterConfig{
		Enabled:             cfg.AI.Enabled,
		CredentialSet:       cfg.HasAICredential(),
		EscalationThreshold: cfg.AI.EscalationThreshold,
		CheapMaxTokens:      cfg.AI.MaxTokensCheap,
		ExpensiveMaxTokens:  cfg.AI.MaxTokensExpensive,
		Temperature:         cfg.AI.Temperature,
		TTLNavigator:        time.Duration(cfg.AI.CacheTTLFAQ) * time.Second,
		TTLTriage:           time.Duration(cfg.AI.CacheTTLTriage) * time.Second,
		TTLDefault:          time.Duration(cfg.AI.CacheTTLDefault) * time.Second,
	}
	return ai.NewRouter(routerCfg, respCache, guard, rules, generator), nil
}

// readyCheck probes the backing services that are actually configured.
func readyCheck(db *database.DB, redis *cache.Cache) func(r *http.Request) error {
	return func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.HealthCheck(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
		}
		if redis != nil {
			if err := redis.HealthCheck(ctx); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
		}
		return nil
	}
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
