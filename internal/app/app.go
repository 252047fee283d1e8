package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"weblog-analytics/internal/buffers"
	"weblog-analytics/internal/enrichers"
	internalhttp "weblog-analytics/internal/http"
	"weblog-analytics/internal/ingestors"
	"weblog-analytics/internal/queries"
	"weblog-analytics/internal/schemas"
	"weblog-analytics/internal/shared/configs"
	"weblog-analytics/internal/shared/loggers"
	"weblog-analytics/internal/storages"
	"weblog-analytics/internal/syslog"
)

// App holds all application dependencies and manages lifecycle.
type App struct {
	config    *configs.Config
	appLogger loggers.Logger
	server    *http.Server

	gateway  storages.Gateway
	flusher  buffers.Flusher
	listener syslog.Listener

	backgroundCtx    context.Context
	backgroundCancel context.CancelFunc
}

// New creates and initializes a new App instance.
func New(config *configs.Config) (*App, error) {
	appLogger, err := loggers.New(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger = appLogger.With().
		Str(loggers.FieldApp, "weblog-analytics").
		Logger()

	// Initialize storage gateway
	storageLogger := appLogger.With().Str(loggers.FieldComponent, "storage").Logger()
	gateway, err := storages.NewSQLiteGateway(config.Storage.Path, storageLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize ingestion pipeline
	registry := schemas.NewRegistry(gateway, enrichers.ColumnHints(), appLogger.With().Str(loggers.FieldComponent, "schemas").Logger())
	bufferSet := buffers.NewSet()
	enricher := enrichers.NewEnricher(enrichers.NoopGeoResolver{})
	ingestionService := ingestors.NewIngestionService(enricher, registry, bufferSet)

	flushInterval := time.Duration(config.Flush.IntervalSeconds) * time.Second
	flusherLogger := appLogger.With().Str(loggers.FieldComponent, "flusher").Logger()
	flusher := buffers.NewFlusher(bufferSet, registry, gateway, flushInterval, flusherLogger)

	// Initialize syslog listener
	syslogAddr := fmt.Sprintf("%s:%d", config.Syslog.Host, config.Syslog.Port)
	syslogLogger := appLogger.With().Str(loggers.FieldComponent, "syslog").Logger()
	listener := syslog.NewListener(syslogAddr, ingestionService, syslogLogger)

	// Initialize query service
	queryService := queries.NewQueryService(gateway, config.Query.TopLimit)

	// Initialize http router
	httpLogger := appLogger.With().Str(loggers.FieldComponent, "http").Logger()
	router := internalhttp.NewRouter(ingestionService, queryService, httpLogger)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(config.Server.ReadHeaderTimeout) * time.Second,
		ReadTimeout:       time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(config.Server.IdleTimeout) * time.Second,
	}

	return &App{
		config:    config,
		appLogger: appLogger,
		server:    server,
		gateway:   gateway,
		flusher:   flusher,
		listener:  listener,
	}, nil
}

// Start starts the HTTP server in a blocking manner.
func (app *App) Start() error {
	app.appLogger.Info().
		Msgf("Starting weblog-analytics service on port %d (log_level=%s, storage_path=%s, flush_interval=%ds)",
			app.config.Server.Port,
			app.config.Log.Level,
			app.config.Storage.Path,
			app.config.Flush.IntervalSeconds)

	// start background tasks
	app.backgroundCtx, app.backgroundCancel = context.WithCancel(context.Background())
	app.flusher.Start(app.backgroundCtx)
	if err := app.listener.Start(app.backgroundCtx); err != nil {
		return fmt.Errorf("syslog listener failed to start: %w", err)
	}

	return app.server.ListenAndServe()
}

// Shutdown gracefully shuts down the application. Order matters: both
// event sources stop before the final flush so no buffered record is
// left behind, and the database closes last.
func (app *App) Shutdown(ctx context.Context) error {
	// 1) Shutdown server
	app.appLogger.Info().Msg("Shutting down server...")
	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.appLogger.Info().Msg("Server stopped")

	// 2) Stop the syslog listener
	app.listener.Stop()
	app.appLogger.Info().Msg("Syslog listener stopped")

	// 3) Stop the flusher; it drains all buffers one last time
	app.flusher.Stop()
	if app.backgroundCancel != nil {
		app.backgroundCancel()
	}
	app.appLogger.Info().Msg("Flusher stopped")

	// 4) Close the database
	if err := app.gateway.Close(); err != nil {
		return fmt.Errorf("database close failed: %w", err)
	}
	app.appLogger.Info().Msg("Database closed")

	return nil
}
