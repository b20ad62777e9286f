package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/jusunglee/polaris/api/handlers"
	"github.com/jusunglee/polaris/api/middleware"
	"github.com/jusunglee/polaris/internal/config"
	"github.com/jusunglee/polaris/pkg/polaris"
)

func main() {
	var (
		configFile     = flag.String("config", "", "YAML config file")
		port           = flag.Int("port", 0, "Server port (overrides config)")
		apiKey         = flag.String("api-key", "", "GraphHopper API key (overrides config)")
		stationsSource = flag.String("stations-source", "", "Station source: embedded, yaml, sqlite or postgres")
		stationsPath   = flag.String("stations-path", "", "Stations YAML or SQLite file")
		allowedOrigins = flag.String("cors-origins", "*", "Comma-separated CORS origins")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		logger.Error("Failed to load env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Read(*configFile)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Flags take precedence over file and environment
	cfg.Apply(config.Overrides{
		Port:           *port,
		APIKey:         *apiKey,
		StationsSource: *stationsSource,
		StationsPath:   *stationsPath,
	})
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	client, err := polaris.NewLocal(loadCtx, cfg.Client())
	cancel()
	if err != nil {
		logger.Error("Failed to create polaris client", "error", err)
		os.Exit(1)
	}
	logger.Info("Station directory loaded",
		"source", cfg.Stations.Source,
		"stations", len(client.Stations()),
	)

	r := mux.NewRouter()
	h := handlers.NewHandler(client)
	h.RegisterRoutes(r)

	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(*allowedOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.GraphHopper.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
