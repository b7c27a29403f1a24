package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"lennonwall/backend/internal/admin"
	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	opts := &admin.RootOptions{
		OpenStorage: func() (storage.Storage, error) {
			if cfg.Database.Driver == "memory" {
				return nil, errors.New("admin commands need DB_DRIVER=postgres or DB_DRIVER=sqlite")
			}
			db, err := storage.OpenDatabase(cfg)
			if err != nil {
				return nil, err
			}
			return storage.NewStorageService(db, nil), nil // No redis needed for queries
		},
		OpenEvents: func(ctx context.Context) (admin.EventSource, error) {
			rdb, err := storage.OpenRedis(ctx, cfg.Redis)
			if err != nil {
				return nil, err
			}
			if rdb == nil {
				return nil, errors.New("watch needs REDIS_ADDR")
			}
			return storage.NewStorageService(nil, rdb).Subscribe(ctx, cfg.Redis.Channel), nil
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := admin.NewRootCommand(opts).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
