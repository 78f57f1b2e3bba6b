package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/config"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/admin"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/catalog"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/ledger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/mason"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/realtime"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/domain/redemption"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/middleware"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/database"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/eventbus"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
	pkgresponse "github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting rewards API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		// The feed still works within this instance.
		log.Warn().Err(err).Msg("Redis unavailable, redemption events stay in-process")
	}
	defer database.CloseRedis(redis)

	policy := admin.DefaultPolicy()
	if cfg.RolePolicyPath != "" {
		policy, err = admin.LoadPolicy(cfg.RolePolicyPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RolePolicyPath).Msg("Failed to load role policy")
		}
	}
	jwtService := admin.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer)

	bus := eventbus.New(redis)
	hub := realtime.NewHub(bus)
	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	handler := newRouter(cfg, buildHandlers(cfg, db, bus, hub, jwtService, policy), jwtService, policy)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := <-hubDone; err != nil {
		log.Error().Err(err).Msg("Redemption feed stopped with error")
	}

	log.Info().Msg("Server exited properly")
}

type handlers struct {
	redemptions *redemption.Handler
	ledger      *ledger.Handler
	catalog     *catalog.Handler
	feed        *realtime.Handler
}

func buildHandlers(cfg *config.Config, db *sqlx.DB, bus *eventbus.Bus, hub *realtime.Hub, jwtService *admin.JWTService, policy *admin.Policy) *handlers {
	// ---------- Repositories ----------
	masonRepo := mason.NewRepository(db, cfg.DBQueryTimeout)
	ledgerRepo := ledger.NewRepository(db, cfg.DBQueryTimeout)
	catalogRepo := catalog.NewRepository(db, cfg.DBQueryTimeout)
	redemptionRepo := redemption.NewPostgresRepository(db, ledgerRepo, catalogRepo, cfg.DBQueryTimeout)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo, masonRepo)
	catalogService := catalog.NewService(catalogRepo)
	redemptionService := redemption.NewService(redemptionRepo, catalogService, masonRepo, ledgerService, bus)

	return &handlers{
		redemptions: redemption.NewHandler(redemptionService),
		ledger:      ledger.NewHandler(ledgerService),
		catalog:     catalog.NewHandler(catalogService),
		feed:        realtime.NewHandler(hub, jwtService, policy, cfg.AllowedOrigins),
	}
}

func newRouter(cfg *config.Config, h *handlers, jwtService *admin.JWTService, policy *admin.Policy) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.SecureHeaders(cfg.IsDevelopment()))
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if !cfg.IsProduction() {
		r.Handle("/debug/vars", expvar.Handler())
	}

	// Long-lived, so kept out of the request timeout
	r.Mount("/ws", h.feed.Routes())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(admin.AuthMiddleware(jwtService))
		r.Use(middleware.MutationLimit(cfg.MutationRateLimit, admin.RateLimitKey))
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Mount("/redemptions", h.redemptions.Routes(policy))
		r.Mount("/ledger", h.ledger.Routes(policy))
		r.Mount("/rewards", h.catalog.Routes(policy))

		r.Route("/masons/{id}", func(r chi.Router) {
			h.ledger.MasonRoutes(r, policy)
			h.redemptions.MasonRoutes(r, policy)
		})
	})

	return r
}
