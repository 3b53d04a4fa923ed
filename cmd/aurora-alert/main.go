package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-aurora-alerts/internal/alerting"
	"github.com/mr1hm/go-aurora-alerts/internal/api"
	"github.com/mr1hm/go-aurora-alerts/internal/config"
	"github.com/mr1hm/go-aurora-alerts/internal/ingestion"
	"github.com/mr1hm/go-aurora-alerts/internal/logging"
	"github.com/mr1hm/go-aurora-alerts/internal/pushover"
	"github.com/mr1hm/go-aurora-alerts/internal/repository"
	"github.com/mr1hm/go-aurora-alerts/internal/stream"
	"github.com/mr1hm/go-aurora-alerts/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	if cfg.ShowVersion {
		fmt.Println(version.String())
		return
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("aurora-alert starting", "threshold", cfg.Alert.Threshold,
		"alert_interval", cfg.Alert.Interval, "check_interval", cfg.Feed.CheckInterval)

	// Alert history is kept for the lifetime of the process only
	db, err := repository.NewSQLiteDB(":memory:")
	if err != nil {
		logging.Fatalf("Failed to initialize alert history: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcaster := stream.NewBroadcaster()

	feed := ingestion.NewAuroraWatch(cfg.Feed.URL, cfg.Feed.Referer)
	client := pushover.NewClient(cfg.Pushover.URL)

	monitor := alerting.NewMonitor(cfg, feed, client, db, broadcaster)
	monitor.Start(ctx)

	var srv *http.Server
	if cfg.Server.Enabled {
		srv = newServer(cfg, db, monitor, broadcaster)
		go func() {
			slog.Info("server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Fatalf("server error: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	monitor.Stop()
	broadcaster.Close() // Close all streams gracefully

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}

	slog.Info("shutdown complete")
}

func newServer(cfg *config.Config, db *repository.SQLiteDB, monitor *alerting.Monitor, broadcaster *stream.Broadcaster) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit))

	handler := api.NewHandler(db, monitor, broadcaster)
	handler.RegisterRoutes(router)

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
}
