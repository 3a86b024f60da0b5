package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/vso023/smartpark-project/config"
	"github.com/vso023/smartpark-project/internal/api"
	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/db"
	"github.com/vso023/smartpark-project/internal/notification"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/remote"
	"github.com/vso023/smartpark-project/internal/route"
	"github.com/vso023/smartpark-project/internal/search"
	"github.com/vso023/smartpark-project/internal/sim"
	"github.com/vso023/smartpark-project/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "smartpark ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Web push is optional: without VAPID keys the API still serves searches,
	// it just cannot notify watchers.
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys are not configured; push notifications disabled")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Facility catalog and availability bus
	catalog := parking.DefaultCatalog()
	eventBus := bus.New()

	// Optional upstream facility provider
	var remoteRepo parking.Repository
	if cfg.Remote.Enabled && cfg.Remote.URL != "" {
		remoteRepo = remote.NewClient(cfg.Remote.URL, cfg.Remote.Timeout)
		logger.Printf("remote facility provider enabled: %s", cfg.Remote.URL)
	}

	routeSeed := cfg.Search.RouteSeed
	if routeSeed == 0 {
		routeSeed = time.Now().UnixNano()
	}

	searchSvc := search.NewService(search.Options{
		Remote:        remoteRepo,
		Catalog:       catalog,
		Routes:        route.NewSynthesizer(routeSeed),
		CacheTTL:      time.Duration(cfg.Search.CacheTTLSeconds) * time.Second,
		RemoteTimeout: cfg.Remote.Timeout,
	})
	eventBus.Subscribe(searchSvc.ApplyAvailability)

	// Notification workers: a facility turning available wakes its watchers.
	if webpushOptions != nil {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, catalog, webpushOptions)
		pool.Start(ctx)
		eventBus.Subscribe(func(ev bus.Event) {
			if ev.Available {
				pool.Dispatch(ev.FacilityID)
			}
		})
	}

	// Availability churn simulator
	if cfg.Simulator.Enabled {
		simulator := sim.New(catalog, eventBus, cfg.Simulator.Interval, logger)
		go simulator.Run(ctx)
		logger.Printf("availability simulator running every %s", cfg.Simulator.Interval)
	}

	// Initialize router
	router := api.NewRouter(searchSvc, appStore, catalog, eventBus, webpushOptions, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
