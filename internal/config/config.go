package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/argus/internal/configs/env"
)

// Config carries every runtime setting, loaded once at startup from the
// environment.
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// Kafka
	KafkaBrokers    []string
	KafkaEventTopic string

	// AI Analysis
	AIAPIURL string
	AIAPIKey string
	AIModel  string

	// Storage
	StorageDir string

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Concurrency
	MaxConcurrentScans int
	ProcessTimeout     time.Duration

	// Similarity
	FlagThreshold float64
	TokenWeight   float64
	TrigramWeight float64
	LineWeight    float64
	ScanTimeout   time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "submissions:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "submissions:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "submissions:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// Kafka (empty brokers disable event publishing)
	if brokers := env.GetEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = splitCSV(brokers)
	}
	cfg.KafkaEventTopic = env.GetEnv("KAFKA_EVENT_TOPIC", "argus.events")

	// AI Analysis (empty key or URL falls back to heuristic rules)
	cfg.AIAPIURL = env.GetEnv("AI_API_URL", "")
	cfg.AIAPIKey = env.GetEnv("AI_API_KEY", "")
	cfg.AIModel = env.GetEnv("AI_MODEL", "gpt-3.5-turbo")

	// Storage
	cfg.StorageDir = env.GetEnv("STORAGE_DIR", "./data/submissions")

	// JWT (empty issuer disables the iss check)
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)
	cfg.RateLimitBurst = env.GetEnvInt("RATE_LIMIT_BURST", 20)

	// Concurrency
	cfg.MaxConcurrentScans = env.GetEnvInt("MAX_CONCURRENT_SCANS", 5)
	cfg.ProcessTimeout = env.GetEnvDuration("PROCESS_TIMEOUT", 5*time.Minute)

	// Similarity
	cfg.FlagThreshold = env.GetEnvFloat("FLAG_THRESHOLD", 0.9)
	cfg.TokenWeight = env.GetEnvFloat("TOKEN_WEIGHT", 0.4)
	cfg.TrigramWeight = env.GetEnvFloat("TRIGRAM_WEIGHT", 0.4)
	cfg.LineWeight = env.GetEnvFloat("LINE_WEIGHT", 0.2)
	cfg.ScanTimeout = env.GetEnvDuration("SCAN_TIMEOUT", 2*time.Minute)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"MONGO_URI", c.MongoURI},
		{"MONGO_DB_NAME", c.MongoDBName},
		{"REDIS_HOST", c.RedisHost},
		{"JWT_SECRET", c.JWTSecret},
		{"STORAGE_DIR", c.StorageDir},
	}
	for _, req := range required {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.key)
		}
	}

	positive := []struct {
		key   string
		value float64
	}{
		{"MAX_CONCURRENT_SCANS", float64(c.MaxConcurrentScans)},
		{"PROCESS_TIMEOUT", float64(c.ProcessTimeout)},
		{"SCAN_TIMEOUT", float64(c.ScanTimeout)},
		{"STREAM_RETENTION_HOURS", float64(c.StreamRetentionDuration)},
	}
	for _, pos := range positive {
		if pos.value <= 0 {
			return fmt.Errorf("%s must be greater than 0", pos.key)
		}
	}

	if c.FlagThreshold <= 0 || c.FlagThreshold >= 1 {
		return fmt.Errorf("FLAG_THRESHOLD must be between 0 and 1")
	}
	if c.TokenWeight < 0 || c.TrigramWeight < 0 || c.LineWeight < 0 {
		return fmt.Errorf("similarity weights must not be negative")
	}
	return nil
}

// AIConfigured reports whether the remote analyzer can be used
func (c *Config) AIConfigured() bool {
	return c.AIAPIURL != "" && c.AIAPIKey != ""
}

func splitCSV(s string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
