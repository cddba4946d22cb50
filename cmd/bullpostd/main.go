package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/metrics"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/bullpost/bullpost-client/internal/reconcile"
	"github.com/bullpost/bullpost-client/internal/scheduler"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/bullpost/bullpost-client/internal/store"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting BullPost agent against %s", cfg.APIBaseURL)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	backend, err := storage.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logrus.Fatalf("Invalid time zone %q: %v", cfg.TimeZone, err)
	}

	forward := forwarder(cfg)
	center := notifications.NewCenter(100, forward)

	ticker := scheduler.NewSecondTicker()
	defer ticker.Close()

	st := store.New(api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout), cache.New(backend), center, store.Options{
		CooldownSeconds: cfg.OTPCooldownSeconds,
		PageSize:        cfg.PageSize,
		CookieName:      cfg.SessionCookieName,
		Location:        loc,
		Ticker:          ticker,
	})

	reconcileService := reconcile.NewService(cfg, st, forward)

	schedulerService := scheduler.NewService(cfg, reconcileService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// First reconcile right away rather than at the first cron tick
	go func() {
		if err := reconcileService.Run(); err != nil {
			logrus.Errorf("Initial reconcile failed: %v", err)
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      newRouter(reconcileService, center),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// forwarder returns the Teams/e-mail service, or nil when neither is configured
func forwarder(cfg *config.Config) notifications.NotificationInterface {
	if !cfg.ForwardingEnabled() {
		return nil
	}
	return notifications.NewService(cfg)
}
