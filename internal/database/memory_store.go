package database

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/life-stream-dev/battleships-server/internal/logger"
)

// MemoryStore keeps the most recent records in a bounded LRU whose entries
// expire after ttl.
type MemoryStore struct {
	records *expirable.LRU[string, *GameRecord]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size < 1 {
		size = 1
	}
	return &MemoryStore{
		records: expirable.NewLRU[string, *GameRecord](size, func(key string, _ *GameRecord) {
			logger.DebugF("Game record %s evicted", key)
		}, ttl),
	}
}

func (ms *MemoryStore) SaveRecord(_ context.Context, record *GameRecord) error {
	if record == nil || record.SessionID == "" {
		return ErrSessionIDEmpty
	}
	stored := *record
	stored.Players = append([]string(nil), record.Players...)
	ms.records.Add(record.SessionID, &stored)
	return nil
}

func (ms *MemoryStore) GetRecord(_ context.Context, sessionID string) (*GameRecord, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}
	record, ok := ms.records.Get(sessionID)
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (ms *MemoryStore) Len() int {
	return ms.records.Len()
}
