package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gazetteer-data/common/database"
	"gazetteer-data/common/logger"
	"gazetteer-data/common/mqtt"
	commonredis "gazetteer-data/common/redis"
	"gazetteer-data/internal/backend"
	"gazetteer-data/internal/config"
	"gazetteer-data/internal/domain"
	httpapi "gazetteer-data/internal/http"
	"gazetteer-data/internal/mapsync"
	"gazetteer-data/internal/repository"
	"gazetteer-data/internal/service"
	"gazetteer-data/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "gazetteer-data")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	var kv store.KV
	var events service.EventPublisher = service.NopPublisher{}
	if err := commonredis.Ping(pingCtx, redisClient); err != nil {
		log.Warn("Redis unavailable, running without cache, snapshots or events", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	} else {
		kv = store.NewRedisKV(redisClient)
		events = service.NewStreamPublisher(redisClient, cfg.EventStream, log)
	}
	pingCancel()

	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for gazetteer-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory", zap.Error(err))
		}
	}

	var lookupsRepo repository.LookupsRepository
	if db != nil {
		lookupsRepo = repository.NewPostgresLookupsRepository(db)
	} else {
		lookupsRepo = repository.NewMemoryLookupsRepository(domain.LookupTables{})
	}

	var source repository.PropertySource
	switch {
	case cfg.PropertySource == config.PropertySourceAPI && cfg.GazetteerAPI.BaseURL != "":
		source = backend.NewGazetteerClient(&cfg.GazetteerAPI, log)
	case cfg.PropertySource == config.PropertySourceDB && db != nil:
		source = repository.NewPostgresPropertiesRepository(db)
	default:
		log.Warn("Using in-memory property source", zap.String("configured", cfg.PropertySource))
		source = repository.NewMemoryPropertiesRepository()
	}

	var publisher mapsync.Publisher
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := mqtt.NewClient(&cfg.MQTT.Client, log); err == nil {
			mqttClient = c
			publisher = c
		} else {
			log.Warn("MQTT enabled but connection failed, map highlights will only be logged", zap.Error(err))
		}
	}

	lookups := service.NewLookupService(lookupsRepo, kv, cfg.LookupCacheTTL, log)
	wizard := service.NewWizardService(lookups, events, log)
	related := service.NewRelatedService(source, kv, events,
		mapsync.NewFactory(publisher, cfg.MQTT.HighlightTopic, log),
		service.RelatedOptions{MaxDepth: cfg.Selection.MaxDepth, SessionTTL: cfg.Selection.SessionTTL},
		log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterWizardRoutes(httpapi.NewWizardHandler(wizard, log))
	router.RegisterRelatedRoutes(httpapi.NewRelatedHandler(related, log))
	router.RegisterLookupRoutes(httpapi.NewLookupsHandler(lookups, log))
	if kv != nil {
		router.RegisterEventRoutes(httpapi.NewEventsHandler(redisClient, cfg.EventStream, log))
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	_ = database.Close(db)
}
