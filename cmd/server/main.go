package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/fleet-live/internal/config"
	"github.com/example/fleet-live/internal/dispatch"
	"github.com/example/fleet-live/internal/eta"
	"github.com/example/fleet-live/internal/feed"
	"github.com/example/fleet-live/internal/geo"
	httpapi "github.com/example/fleet-live/internal/http"
	"github.com/example/fleet-live/internal/ingest"
	"github.com/example/fleet-live/internal/interp"
	"github.com/example/fleet-live/internal/logging"
	"github.com/example/fleet-live/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		runMigrations(cfg.PGDSN, logger.With("component", "migrations"))
	}

	var geoStore geo.Store
	if cfg.RedisAddr != "" {
		geoStore = geo.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		geoStore = geo.NewIndex()
	}

	var store storage.BookingStore
	if cfg.PGDSN != "" {
		if ps, err := storage.NewPostgresStore(cfg.PGDSN); err == nil {
			store = ps
		} else {
			logger.Warn("postgres unavailable, using memory store", "error", err)
		}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	var producer *ingest.KafkaProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.PositionsTopic)
		defer producer.Close()
	}

	tracker := interp.NewTracker(cfg.InterpDuration)
	view := feed.NewBookingView(logger.With("component", "booking_view"))
	wsreg := dispatch.NewWSRegistry(logger.With("component", "ws"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial full load; everything afterwards comes from the change-feed.
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if rows, err := store.LoadRecent(seedCtx, 500); err == nil {
		view.Seed(rows)
	} else {
		logger.Warn("booking seed failed, starting empty", "error", err)
	}
	cancel()

	deps := httpapi.Deps{
		Tracker:  tracker,
		View:     view,
		Geo:      geoStore,
		Store:    store,
		Kafka:    producer,
		WSReg:    wsreg,
		ETACache: eta.NewCache(30 * time.Second),
	}
	if cfg.OSRMURL != "" {
		deps.ETA = eta.NewOSRMClient(cfg.OSRMURL)
	}

	srv := httpapi.NewServer(cfg, logger, deps)
	go srv.RunTickLoop(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		events := feed.NewConsumer(cfg.KafkaBrokers, cfg.EventsTopic, cfg.EventsGroupID,
			logger.With("component", "events_consumer"), feed.NewBookingEventHandler(view, store))
		go func() {
			if err := events.Run(ctx); err != nil {
				logger.Error("events consumer stopped", "error", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("fleet-live listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

func runMigrations(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Warn("migration db open error", "error", err)
		return
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_bookings.sql"))
	if err != nil {
		logger.Warn("migration read error", "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Warn("migration exec error", "error", err)
		return
	}
	logger.Info("migration applied", "file", "001_create_bookings.sql")
}
