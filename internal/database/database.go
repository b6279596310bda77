package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	c "github.com/life-stream-dev/battleships-server/internal/config"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DBCloseCallback struct {
	client  *mongo.Client
	timeout time.Duration
}

func NewDBCloseCallback(client *mongo.Client, timeout time.Duration) *DBCloseCallback {
	return &DBCloseCallback{client: client, timeout: timeout}
}

func (dc *DBCloseCallback) Invoke(ctx context.Context) error {
	logger.InfoF("Closing database connection")
	ctx, cancel := context.WithTimeout(ctx, dc.timeout)
	defer cancel()
	return dc.client.Disconnect(ctx)
}

// clientOptions builds the driver options from the database section.
func clientOptions(config c.Config) *options.ClientOptions {
	db := config.Database
	var databaseUrl string
	if db.Username != "" {
		databaseUrl = fmt.Sprintf("mongodb://%s:%s@%s:%d/?authSource=admin",
			url.QueryEscape(db.Username), url.QueryEscape(db.Password), db.Host, db.Port)
	} else {
		databaseUrl = fmt.Sprintf("mongodb://%s:%d/", db.Host, db.Port)
	}

	opts := options.Client().ApplyURI(databaseUrl).SetAppName(config.AppName)
	opts.SetMinPoolSize(db.MinPoolSize)
	opts.SetMaxPoolSize(db.MaxPoolSize)
	opts.SetMaxConnIdleTime(utils.ParseStringTimeOr(db.ConnectIdleTimeout, 5*time.Minute))
	opts.SetConnectTimeout(utils.ParseStringTimeOr(db.ConnectTimeout, 10*time.Second))
	opts.SetSocketTimeout(utils.ParseStringTimeOr(db.SocketTimeout, 30*time.Second))
	opts.SetHeartbeatInterval(utils.ParseStringTimeOr(db.Heartbeat, 10*time.Second))
	if db.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.SetPoolMonitor(&event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				logger.DebugF("Database connection created: %s #%d", evt.Address, evt.ConnectionID)
			case event.ConnectionClosed:
				logger.DebugF("Database connection closed: %s #%d (%s)", evt.Address, evt.ConnectionID, evt.Reason)
			}
		},
	})
	return opts
}

// ConnectDatabase dials MongoDB, verifies the connection and makes sure the
// games collection has its unique session_id index.
func ConnectDatabase(ctx context.Context, config c.Config) (*DBStore, error) {
	logger.DebugF("Connecting to database...")
	operationTimeout := utils.ParseStringTimeOr(config.Database.OperationTimeout, 5*time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions(config))
	if err != nil {
		return nil, fmt.Errorf("error occured while connecting to database: %w", err)
	}

	if err = client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("error occured while pinging database: %w", err)
	}

	games := client.Database(config.Database.Database).Collection(GameCollectionName)
	_, err = games.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("games_session_id_unique"),
	})
	if err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("error occured while creating database indexes: %w", err)
	}

	logger.InfoF("Connected to database %s on %s:%d", config.Database.Database, config.Database.Host, config.Database.Port)
	return &DBStore{client: client, games: games, timeout: operationTimeout}, nil
}
