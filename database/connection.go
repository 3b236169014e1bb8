package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gramcare-backend/config"
)

// Connect establishes database connection based on config
func Connect(cfg *config.Config) error {
	switch cfg.Database.Type {
	case "mongodb":
		return ConnectMongoDB(cfg)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// Disconnect closes database connection
func Disconnect(cfg *config.Config) error {
	switch cfg.Database.Type {
	case "mongodb":
		return DisconnectMongoDB()
	default:
		return nil
	}
}

// HealthCheck performs a database health check
func HealthCheck(ctx context.Context, cfg *config.Config) error {
	switch cfg.Database.Type {
	case "mongodb":
		if mongoClient == nil {
			return fmt.Errorf("MongoDB client not initialized")
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return mongoClient.Ping(ctx, readpref.Primary())
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// NewTranscriptStore returns the transcript store for the configured database,
// or nil when transcripts are not persisted.
func NewTranscriptStore(cfg *config.Config) *MongoTranscriptStore {
	if cfg.Database.Type != "mongodb" || mongoDB == nil {
		return nil
	}
	return NewMongoTranscriptStore(mongoDB.Collection(TranscriptsCollection))
}
