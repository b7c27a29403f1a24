package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lennonwall/backend/internal/api/handler"
	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/engagement"
	"lennonwall/backend/internal/events"
	"lennonwall/backend/internal/localization"
	"lennonwall/backend/internal/metrics"
	"lennonwall/backend/internal/moderation"
	"lennonwall/backend/internal/notify"
	"lennonwall/backend/internal/ratelimit"
	"lennonwall/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// setupStore builds the engagement store, attaching the database journal and
// replaying persisted rows when a database driver is configured.
func setupStore(ctx context.Context, cfg *config.Config, dispatcher *events.Dispatcher) *engagement.Store {
	opts := []engagement.Option{
		engagement.WithPolicy(moderation.NewPolicy(cfg.Moderation.ReportThreshold)),
		engagement.WithObserver(dispatcher),
	}

	rdb, err := storage.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	if rdb != nil {
		dispatcher.Register(storage.NewPublisher(rdb, cfg.Redis.Channel))
		log.Printf("Publishing wall events to redis channel %s", cfg.Redis.Channel)
	}

	if cfg.Database.Driver == "memory" {
		log.Println("WARNING: DB_DRIVER=memory, wall state will not survive a restart")
		return engagement.NewStore(opts...)
	}

	db, err := storage.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	s := storage.NewStorageService(db, rdb)

	store := engagement.NewStore(append(opts, engagement.WithJournal(s))...)
	messages, likes, reports, err := s.LoadAll()
	if err != nil {
		log.Fatalf("Failed to load wall state: %v", err)
	}
	if err := store.Restore(messages, likes, reports); err != nil {
		log.Fatalf("Failed to restore wall state: %v", err)
	}

	log.Printf("Database (%s) connected, migrations complete.", cfg.Database.Driver)
	return store
}

func main() {
	log.Println("Starting Lennon Wall Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Events and their sinks
	dispatcher := events.NewDispatcher(events.DefaultBufferSize)
	collector := metrics.NewCollector()
	dispatcher.Register(collector)

	if cfg.Telegram.Enabled() {
		bot, err := notify.NewBotSender(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("Failed to start Telegram notifier: %v", err)
		}
		labels, err := localization.Embedded()
		if err != nil {
			log.Fatalf("Failed to load translations: %v", err)
		}
		dispatcher.Register(notify.NewTelegramNotifier(bot, cfg.Telegram.ModeratorChatID, labels))
	}

	// 2. State
	store := setupStore(ctx, cfg, dispatcher)
	collector.TrackVisible(store.CountVisible)
	collector.TrackDropped(dispatcher.Dropped)

	// Stopped only after the server, so events from in-flight requests are delivered.
	stopDispatcher := dispatcher.Start()

	limiter := ratelimit.NewPool(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.RunCleanup(time.Minute, ctx.Done())

	// 3. HTTP
	h := handler.NewHandler(store, handler.NewIdentityIssuer(cfg.Identity))
	r := handler.NewRouter(h, handler.RouterConfig{
		Limiter: limiter,
		Metrics: collector.Handler(),
	})

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        r,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: graceful shutdown failed: %v", err)
	}
	stopDispatcher()
	log.Println("Server stopped.")
}
