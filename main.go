package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"discipline-tracker-go/config"
	"discipline-tracker-go/db"
	"discipline-tracker-go/handlers"
	"discipline-tracker-go/session"
	"discipline-tracker-go/store"
	"discipline-tracker-go/telemetry"
)

const name = "discipline-tracker-go"

func main() {
	cfg := config.Load()

	logger := slog.Default()
	if cfg.OTelStdout {
		otelShutdown, err := telemetry.SetupOTelSDK(context.Background())
		if err != nil {
			log.Fatalf("OpenTelemetry setup failed: %v", err)
		}
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Printf("OpenTelemetry shutdown: %v", err)
			}
		}()
		logger = otelslog.NewLogger(name)
	}

	// Local cache, used in both modes
	cache, err := db.OpenLocalCache(cfg.CachePath)
	if err != nil {
		log.Fatalf("Failed to open local cache: %v", err)
	}
	defer cache.Close()

	// Mode is fixed here for the whole run
	sessions, err := session.NewManager(cache, cfg.CloudActive())
	if err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}

	var remote store.RemoteStore
	if cfg.CloudActive() {
		redisClient := db.InitializeRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		remote = db.NewRedisService(redisClient)
	}

	st, err := store.New(cache, sessions, remote, store.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	if err := st.Start(context.Background()); err != nil {
		log.Fatalf("Failed to subscribe to remote collections: %v", err)
	}
	defer st.Close()
	log.Printf("Running in %s mode", st.Mode())

	apiHandler := handlers.NewAPIHandler(st, sessions)

	router := gin.Default()
	apiHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, name),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
