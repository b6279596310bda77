package database

import (
	"context"
	"errors"
	"time"

	"github.com/life-stream-dev/battleships-server/internal/game"
)

const GameCollectionName = "games"

// Reasons a session ended, as stored in GameRecord.Reason.
const (
	ReasonFinished      = "finished"
	ReasonDisconnect    = "disconnect"
	ReasonProtocolError = "protocol_error"
	ReasonShutdown      = "shutdown"
)

var (
	ErrSessionIDEmpty = errors.New("session_id is empty")
	ErrRecordNotFound = errors.New("game record does not exist")
)

// GameRecord is the archived outcome of one session.
type GameRecord struct {
	SessionID string    `bson:"session_id"`
	Players   []string  `bson:"players"`
	Winner    string    `bson:"winner,omitempty"`
	Loser     string    `bson:"loser,omitempty"`
	Moves     int       `bson:"moves"`
	Reason    string    `bson:"reason"`
	StartedAt time.Time `bson:"started_at"`
	EndedAt   time.Time `bson:"ended_at"`
}

type RecordStore interface {
	SaveRecord(ctx context.Context, record *GameRecord) error
	GetRecord(ctx context.Context, sessionID string) (*GameRecord, error)
}

// NewGameRecord snapshots a session that has ended.
func NewGameRecord(session *game.Session, reason string) *GameRecord {
	players := session.Players()
	record := &GameRecord{
		SessionID: session.ID(),
		Players:   []string{players[0].ID, players[1].ID},
		Moves:     session.Moves(),
		Reason:    reason,
		StartedAt: session.StartedAt(),
		EndedAt:   session.EndedAt(),
	}
	if winner, loser, ok := session.Result(); ok {
		record.Winner = winner
		record.Loser = loser
	}
	if record.EndedAt.IsZero() {
		record.EndedAt = time.Now()
	}
	return record
}
