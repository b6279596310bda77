package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/life-stream-dev/battleships-server/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBStore archives game records in MongoDB, one document per session.
type DBStore struct {
	client  *mongo.Client
	games   *mongo.Collection
	timeout time.Duration
}

// CloseCallback disconnects the client on shutdown.
func (ds *DBStore) CloseCallback() *DBCloseCallback {
	return NewDBCloseCallback(ds.client, ds.timeout)
}

func (ds *DBStore) SaveRecord(ctx context.Context, record *GameRecord) error {
	if record == nil || record.SessionID == "" {
		return ErrSessionIDEmpty
	}
	ctx, cancel := context.WithTimeout(ctx, ds.timeout)
	defer cancel()

	filter := bson.D{{Key: "session_id", Value: record.SessionID}}
	opts := options.Replace().SetUpsert(true)

	result, err := ds.games.ReplaceOne(ctx, filter, record, opts)
	if err != nil {
		return wrapDatabaseError(err)
	}

	logger.InfoF("Game record saved: session_id=%s, matched=%d, modified=%d, upserted=%v",
		record.SessionID,
		result.MatchedCount,
		result.ModifiedCount,
		result.UpsertedID != nil,
	)
	return nil
}

func (ds *DBStore) GetRecord(ctx context.Context, sessionID string) (*GameRecord, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}
	ctx, cancel := context.WithTimeout(ctx, ds.timeout)
	defer cancel()

	filter := bson.D{{Key: "session_id", Value: sessionID}}
	var record GameRecord

	startTime := time.Now()
	err := ds.games.FindOne(ctx, filter).Decode(&record)
	logger.DebugF("game record query cost: %v", time.Since(startTime))
	if err != nil {
		return nil, wrapDatabaseError(err)
	}
	return &record, nil
}

func wrapDatabaseError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("unique key conflicts: %w", err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	}
	return fmt.Errorf("database operation failed: %w", err)
}
