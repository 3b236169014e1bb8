package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	PublicURL   string

	Database     DatabaseConfig
	AI           AIConfig
	Translation  TranslationConfig
	Detection    DetectionConfig
	Session      SessionConfig
	SMS          SMSConfig
	WhatsApp     WhatsAppConfig
	JWT          JWTConfig
	Verification VerificationConfig
	Security     SecurityConfig
	Data         DataConfig

	// DefaultCountryCode is prefixed to bare 10-digit phone numbers.
	DefaultCountryCode string
}

type DatabaseConfig struct {
	Type     string // "none" or "mongodb"
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration

	TranscriptTimeout time.Duration
}

type AIConfig struct {
	Enabled   bool
	Preferred string // "auto", "gemini", "openai" or "anthropic"

	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type TranslationConfig struct {
	Enabled   bool
	Timeout   time.Duration
	CacheType string // "memory" or "redis"
	RedisURL  string
	CacheTTL  time.Duration
}

type DetectionConfig struct {
	Enabled bool
	Timeout time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type SMSConfig struct {
	Provider          string // "twilio"
	AccountSID        string
	AuthToken         string
	FromNumber        string
	WhatsAppFrom      string
	ValidateSignature bool
}

type WhatsAppConfig struct {
	APIURL        string
	APIVersion    string
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string
	Timeout       time.Duration
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type VerificationConfig struct {
	CodeTTL    time.Duration
	BcryptCost int
}

type SecurityConfig struct {
	AllowedOrigins []string
	TrustedProxies []string
}

type DataConfig struct {
	FAQPath   string
	AlertPath string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	c := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),

		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "none"),
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "gramcare"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),

			TranscriptTimeout: getEnvAsDuration("TRANSCRIPT_TIMEOUT", "5s"),
		},

		AI: AIConfig{
			Enabled:   getEnvAsBool("AI_ENABLED", false),
			Preferred: strings.ToLower(getEnv("AI_PROVIDER", "auto")),

			GeminiAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),

			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 500),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.4),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", "15s"),
		},

		Translation: TranslationConfig{
			Enabled:   getEnvAsBool("TRANSLATION_ENABLED", true),
			Timeout:   getEnvAsDuration("TRANSLATION_TIMEOUT", "5s"),
			CacheType: strings.ToLower(getEnv("TRANSLATION_CACHE", "memory")),
			RedisURL:  getEnv("REDIS_URL", ""),
			CacheTTL:  getEnvAsDuration("TRANSLATION_CACHE_TTL", "24h"),
		},

		Detection: DetectionConfig{
			Enabled: getEnvAsBool("LANGUAGE_DETECTION_ENABLED", true),
			Timeout: getEnvAsDuration("LANGUAGE_DETECTION_TIMEOUT", "3s"),
		},

		Session: SessionConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", "24h"),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", "1h"),
		},

		SMS: SMSConfig{
			Provider:          getEnv("SMS_PROVIDER", "twilio"),
			AccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber:        getEnv("TWILIO_PHONE_NUMBER", ""),
			WhatsAppFrom:      getEnv("TWILIO_WHATSAPP_NUMBER", ""),
			ValidateSignature: getEnvAsBool("TWILIO_VALIDATE_SIGNATURE", false),
		},

		WhatsApp: WhatsAppConfig{
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			Timeout:       getEnvAsDuration("WHATSAPP_TIMEOUT", "30s"),
		},

		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", ""),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},

		Verification: VerificationConfig{
			CodeTTL:    getEnvAsDuration("VERIFICATION_CODE_TTL", "5m"),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
		},

		Security: SecurityConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},

		Data: DataConfig{
			FAQPath:   getEnv("FAQ_DATA_PATH", ""),
			AlertPath: getEnv("ALERT_DATA_PATH", ""),
		},

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "91"),
	}

	// Validate configuration
	if err := c.validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg = c
	return nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "none":
	case "mongodb":
		if c.Database.URI == "" && (c.Database.Host == "" || c.Database.Port == "") {
			return fmt.Errorf("database URI or host/port must be provided")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.AI.Enabled && !c.AI.HasProvider() {
		return fmt.Errorf("AI_ENABLED requires GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	switch c.AI.Preferred {
	case "auto", "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Preferred)
	}

	switch c.Translation.CacheType {
	case "memory":
	case "redis":
		if c.Translation.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis translation cache")
		}
	default:
		return fmt.Errorf("unsupported translation cache: %s", c.Translation.CacheType)
	}

	if c.IsProduction() && c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}

	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session TTL and sweep interval must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasProvider reports whether any AI API key is configured.
func (a AIConfig) HasProvider() bool {
	return a.GeminiAPIKey != "" || a.OpenAIAPIKey != "" || a.AnthropicAPIKey != ""
}

// TwilioConfigured reports whether outbound SMS can be sent.
func (s SMSConfig) TwilioConfigured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
}

// Configured reports whether the Meta Cloud API credentials are present.
func (w WhatsAppConfig) Configured() bool {
	return w.AccessToken != "" && w.PhoneNumberID != ""
}

// BuildDatabaseURI constructs the database URI if not provided
func (c *Config) BuildDatabaseURI() string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
