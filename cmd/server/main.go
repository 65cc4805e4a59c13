package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nekogravitycat/court-reservation-backend/internal/app"
	"github.com/nekogravitycat/court-reservation-backend/internal/config"
	"github.com/nekogravitycat/court-reservation-backend/internal/db"
	"github.com/nekogravitycat/court-reservation-backend/internal/obs"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
)

const serviceName = "court-reservation-backend"

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Tracing
	shutdownTracing, err := obs.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("failed to flush traces: %v", err)
		}
	}()

	// Open store
	var stores app.Stores
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer sqlDB.Close()
		stores = app.SQLiteStores(sqlDB)
		log.Printf("using sqlite store at %s", cfg.SQLitePath)
	default:
		pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.StoreTimeout)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pool.Close()
		if cfg.AutoMigrate {
			if err := db.ApplyPostgresSchema(ctx, pool); err != nil {
				log.Fatalf("failed to apply schema: %v", err)
			}
			log.Println("database schema applied")
		}
		stores = app.PostgresStores(pool)
	}

	// Values below were checked by config.Load.
	window, _ := cfg.Window()
	occupying, _ := cfg.Occupying()
	selector, _ := reservation.NewSelector(cfg.SelectionPolicy)

	container := app.NewContainer(app.Config{
		IsProduction: cfg.IsProduction(),
		ProdOrigins:  cfg.ProdOrigins,
		Stores:       stores,
		JWTSecret:    cfg.JWTSecret,
		Window:       window,
		Occupying:    occupying,
		Selector:     selector,
		StoreTimeout: cfg.StoreTimeout,
		Location:     cfg.Location(),
	})

	// Completion sweep
	sweeper := reservation.NewSweeper(container.ReservationService, cfg.CompletionSweepInterval)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweeper.Run(ctx)
	}()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	<-sweepDone

	log.Println("server exited gracefully")
}
