package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scorebug/scorebug-server/internal/config"
	"github.com/scorebug/scorebug-server/internal/database"
	"github.com/scorebug/scorebug-server/internal/handler"
	"github.com/scorebug/scorebug-server/internal/jobs"
	"github.com/scorebug/scorebug-server/internal/middleware"
	"github.com/scorebug/scorebug-server/internal/nhl"
	"github.com/scorebug/scorebug-server/internal/redis"
	"github.com/scorebug/scorebug-server/internal/repository"
	"github.com/scorebug/scorebug-server/internal/service"
	"github.com/scorebug/scorebug-server/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	// The Postgres link-event history is optional; without DATABASE_URL
	// the server runs on Redis alone.
	var eventRepo repository.LinkEventRepository
	if cfg.HistoryEnabled() {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.Migrate(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		cancel()
		log.Info().Msg("database connected")

		eventRepo = repository.NewLinkEventRepository(db.DB)
	}

	pairingStore := repository.NewPairingStore(redisClient)
	scheduleCache := repository.NewScheduleCache(redisClient)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	pairingService := service.NewPairingService(pairingStore, eventRepo)
	displayService := service.NewDisplayService(pairingStore, broker, eventRepo)
	scoresClient := nhl.NewClient(cfg.StatsAPIBaseURL)

	sessionMiddleware := middleware.NewSessionMiddleware(pairingService, cfg.SessionSecret)
	claimLimiter := middleware.NewClaimRateLimiter(redisClient.Client)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())

	setupHandler := handler.NewSetupHandler(pairingService, cfg.BaseURL)
	linkHandler := handler.NewLinkHandler(
		pairingService, cfg.SessionSecret, cfg.DeviceName, cfg.IsProduction(), claimLimiter.Handler,
	)
	displayHandler := handler.NewDisplayHandler(displayService)
	sessionHandler := handler.NewSessionHandler(pairingService)
	scoresHandler := handler.NewScoresHandler(scoresClient, scheduleCache)
	eventsHandler := handler.NewEventsHandler(broker)
	spaHandler := handler.NewSPAHandler("static")

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(sessionMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/setup", setupHandler.Routes())
		r.Mount("/link", linkHandler.Routes())
		r.Mount("/display", displayHandler.Routes())
		r.Mount("/session", sessionHandler.Routes())

		r.Get("/schedule", scoresHandler.Schedule)
		r.Get("/games/{gameID}/feed", scoresHandler.Feed)
		r.Get("/events", eventsHandler.ServeHTTP)

		if eventRepo != nil {
			r.Get("/history", handler.NewHistoryHandler(eventRepo).List)
		}
	})

	r.NotFound(spaHandler.ServeHTTP)

	scheduleJob := jobs.NewScheduleRefresher(scoresClient, scheduleCache, config.ScheduleRefreshInterval)
	scheduleJob.Start()
	defer scheduleJob.Stop()

	if eventRepo != nil {
		pruneJob := jobs.NewHistoryPruner(eventRepo, config.HistoryRetention, config.HistoryPruneInterval)
		pruneJob.Start()
		defer pruneJob.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
