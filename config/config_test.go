package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "DB_TYPE", "DATABASE_URL", "AI_ENABLED", "AI_PROVIDER",
		"GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "TRANSLATION_CACHE", "REDIS_URL",
		"JWT_SECRET", "SESSION_TTL", "SESSION_SWEEP_INTERVAL", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := Get()

	if c.Port != "8080" || c.Database.Type != "none" || c.AI.Enabled || c.AI.Preferred != "auto" {
		t.Fatalf("got %+v", c)
	}
	if c.Session.TTL != 24*time.Hour || c.Session.SweepInterval != time.Hour {
		t.Fatalf("session %+v", c.Session)
	}
	if c.Verification.CodeTTL != 5*time.Minute || c.DefaultCountryCode != "91" || c.Translation.CacheType != "memory" {
		t.Fatalf("got %+v %+v", c.Verification, c.Translation)
	}
	if len(c.Security.AllowedOrigins) != 2 {
		t.Fatalf("origins %v", c.Security.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AI_ENABLED", "true")
	t.Setenv("AI_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "key")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://gramcare.in, https://admin.gramcare.in ,")
	t.Setenv("AI_TEMPERATURE", "not-a-number")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := Get()
	if !c.AI.Enabled || c.AI.Preferred != "anthropic" || !c.AI.HasProvider() {
		t.Fatalf("ai %+v", c.AI)
	}
	if c.AI.Temperature != 0.4 {
		t.Fatalf("Temperature = %v, want the default for a bad value", c.AI.Temperature)
	}
	if c.Session.TTL != 30*time.Minute {
		t.Fatalf("TTL = %v", c.Session.TTL)
	}
	if got := strings.Join(c.Security.AllowedOrigins, "|"); got != "https://gramcare.in|https://admin.gramcare.in" {
		t.Fatalf("origins %q", got)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "database type", env: map[string]string{"DB_TYPE": "postgres"}, want: "unsupported database type"},
		{name: "ai without key", env: map[string]string{"AI_ENABLED": "true"}, want: "AI_ENABLED requires"},
		{name: "ai provider", env: map[string]string{"AI_PROVIDER": "mistral"}, want: "unsupported AI provider"},
		{name: "redis without url", env: map[string]string{"TRANSLATION_CACHE": "redis"}, want: "REDIS_URL"},
		{name: "production secret", env: map[string]string{"ENVIRONMENT": "production"}, want: "JWT secret"},
		{name: "session ttl", env: map[string]string{"SESSION_TTL": "-1h"}, want: "session TTL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestBuildDatabaseURI(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "db", Port: "27017", Name: "gramcare", Username: "u", Password: "p"}}
	if got := c.BuildDatabaseURI(); got != "mongodb://u:p@db:27017/gramcare" {
		t.Fatalf("got %q", got)
	}
	c.Database.URI = "mongodb+srv://cluster"
	if got := c.BuildDatabaseURI(); got != "mongodb+srv://cluster" {
		t.Fatalf("got %q", got)
	}
}
