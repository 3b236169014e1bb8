package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gramcare-backend/models"
)

// MongoTranscriptStore writes finished conversation turns to a collection.
type MongoTranscriptStore struct {
	collection *mongo.Collection
}

func NewMongoTranscriptStore(collection *mongo.Collection) *MongoTranscriptStore {
	return &MongoTranscriptStore{collection: collection}
}

func (s *MongoTranscriptStore) Save(ctx context.Context, record *models.TranscriptRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}
	return nil
}

// Recent returns the newest turns of a session, newest first.
func (s *MongoTranscriptStore) Recent(ctx context.Context, sessionID string, limit int64) ([]models.TranscriptRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.TranscriptRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode transcripts: %w", err)
	}
	return records, nil
}
