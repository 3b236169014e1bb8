package database

import (
	"context"
	"testing"

	"gramcare-backend/config"
)

func TestNoDatabase(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Type: "none"}}

	if err := Connect(cfg); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := HealthCheck(context.Background(), cfg); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if store := NewTranscriptStore(cfg); store != nil {
		t.Fatalf("got a transcript store without a database")
	}
	if err := Disconnect(cfg); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
}

func TestUnsupportedDatabase(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Type: "postgres"}}
	if err := Connect(cfg); err == nil {
		t.Fatalf("Connect accepted an unsupported type")
	}
	if err := HealthCheck(context.Background(), cfg); err == nil {
		t.Fatalf("HealthCheck accepted an unsupported type")
	}
}
