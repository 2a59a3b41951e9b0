package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"neowatch/internal/clients"
	"neowatch/internal/config"
	"neowatch/internal/repository"
	"neowatch/internal/service"
	"neowatch/pkg/database"
	"neowatch/pkg/redis"
)

// app - зависимости одной команды neoctl.
type app struct {
	cfg  *config.Config
	db   *gorm.DB
	repo repository.AsteroidRepository
	sync service.SyncService

	closers []func()
}

func newApp(withSync bool) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	a := &app{
		cfg:  cfg,
		db:   db,
		repo: repository.NewAsteroidRepository(db),
	}
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if !withSync {
		return a, nil
	}

	// статус запуска пишется в Redis, если он доступен
	var cacheRepo repository.CacheRepository
	if client, err := redis.Connect(cfg.Redis); err != nil {
		log.Printf("Redis unavailable, run status will not be recorded: %v", err)
	} else {
		cacheRepo = repository.NewCacheRepository(client)
		a.closers = append(a.closers, func() { client.Close() })
	}

	a.sync = service.NewSyncService(
		a.repo,
		cacheRepo,
		clients.NewNEOClient(cfg.NASA),
		service.NewPacer(cfg.Sync.PacerDelay),
		service.SyncConfig{ChunkDays: cfg.Sync.ChunkDays},
		log.New(os.Stderr, "[neoctl] ", log.LstdFlags),
	)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func withApp(ctx context.Context, withSync bool, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(withSync)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
