package database

import (
	"context"
	"fmt"
	"time"

	c "github.com/life-stream-dev/battleships-server/internal/config"
	"github.com/life-stream-dev/battleships-server/internal/event"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/utils"
)

// OpenStore returns the archive selected by the archive section, or nil
// when archiving is disabled. The MongoDB client is closed by cleaner.
func OpenStore(ctx context.Context, config c.Config, cleaner *event.Cleaner) (RecordStore, error) {
	if !config.Archive.Enabled {
		logger.Info("Game archive disabled")
		return nil, nil
	}
	switch config.Archive.Backend {
	case "mongo":
		store, err := ConnectDatabase(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("open mongo archive: %w", err)
		}
		if cleaner != nil {
			cleaner.Add(store.CloseCallback())
		}
		return store, nil
	default:
		ttl := utils.ParseStringTimeOr(config.Archive.CacheTTL, 24*time.Hour)
		logger.InfoF("Game archive kept in memory (size %d, ttl %v)", config.Archive.CacheSize, ttl)
		return NewMemoryStore(config.Archive.CacheSize, ttl), nil
	}
}
