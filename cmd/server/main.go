// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/jobs"
	"github.com/javajoker/storefront-backend/internal/logger"
	"github.com/javajoker/storefront-backend/internal/repository"
	"github.com/javajoker/storefront-backend/internal/router"
	"github.com/javajoker/storefront-backend/internal/telemetry"
	"github.com/javajoker/storefront-backend/internal/utils"
	"github.com/javajoker/storefront-backend/internal/workers"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logCloser := logger.Setup(cfg.Environment, cfg.Log)
	defer logCloser.Close()

	shutdownTelemetry, err := telemetry.Init(context.Background(), cfg.Environment, cfg.Telemetry)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize telemetry")
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if cfg.SeedData {
		if err := database.SeedInitialData(db); err != nil {
			logrus.WithError(err).Fatal("Failed to seed data")
		}
	}

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetExposeTrace(!cfg.IsProduction())

	pool, err := workers.NewPool(cfg.Worker.PoolSize)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create worker pool")
	}
	bus := events.NewBus()

	monitor := jobs.NewLowStockMonitor(
		repository.NewTransactionRepository(db),
		bus,
		pool,
		cfg.Inventory.LowStockThreshold,
		cfg.Inventory.ScanSchedule,
	)
	if err := monitor.Start(); err != nil {
		logrus.WithError(err).Fatal("Failed to start low stock monitor")
	}

	r, err := router.Initialize(db, cfg, bus, pool)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize router")
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Environment,
			"version":     router.Version,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	// Background work drains after the last request has finished.
	monitor.Stop(ctx)
	bus.Wait()
	pool.Release(10 * time.Second)

	if err := shutdownTelemetry(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to flush telemetry")
	}

	logrus.Info("Server exited")
}
