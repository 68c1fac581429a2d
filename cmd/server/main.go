// Command server runs the catalog and review platform HTTP API.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/Vukotije/audiotheca/internal/app"
	"github.com/Vukotije/audiotheca/internal/app/httpapi"
	"github.com/Vukotije/audiotheca/internal/app/storage/postgres"
	"github.com/Vukotije/audiotheca/internal/config"
	"github.com/Vukotije/audiotheca/internal/logging"
	"github.com/Vukotije/audiotheca/internal/metrics"
	"github.com/Vukotije/audiotheca/internal/middleware"
	"github.com/Vukotije/audiotheca/internal/platform/migrations"
	"github.com/Vukotije/audiotheca/internal/tokens"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	_ = godotenv.Load()

	log := logging.New("server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeDB, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize storage")
		os.Exit(1)
	}
	defer closeDB()

	application := app.New(stores, log)
	if err := application.SeedAdmin(ctx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.WithError(err).Error("failed to seed admin account")
		os.Exit(1)
	}

	issuer := tokens.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	m := metrics.New()

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.MetricsMiddleware("audiotheca", m))
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	httpapi.New(application, issuer, log).Register(router)

	auth := middleware.NewAuthMiddleware(issuer, log)
	cors := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      cors.Handler(auth.Handler(router)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.WithError(err).Error("server failed")
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildStores connects to Postgres when a DSN is configured; otherwise the
// application falls back to the in-memory store.
func buildStores(ctx context.Context, cfg *config.Config, log *logging.Logger) (app.Stores, func(), error) {
	if cfg.Database.DSN == "" {
		log.Warn("no database DSN configured, using in-memory storage")
		return app.Stores{}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return app.Stores{}, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return app.Stores{}, nil, err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		db.Close()
		return app.Stores{}, nil, err
	}

	store := postgres.New(db)
	stores := app.Stores{
		Users:   store,
		Genres:  store,
		Artists: store,
		Works:   store,
		Reviews: store,
	}
	return stores, func() { db.Close() }, nil
}
