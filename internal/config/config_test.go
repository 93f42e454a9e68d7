package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so defaults are observable.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"MONGO_URI", "MONGO_DB_NAME",
		"REDIS_HOST", "REDIS_PASSWORD", "REDIS_STREAM_KEY", "REDIS_CONSUMER_GROUP",
		"REDIS_DEAD_LETTER_KEY", "STREAM_RETENTION_HOURS",
		"KAFKA_BROKERS", "KAFKA_EVENT_TOPIC",
		"AI_API_URL", "AI_API_KEY", "AI_MODEL",
		"STORAGE_DIR", "JWT_SECRET", "JWT_ISSUER",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"MAX_CONCURRENT_SCANS", "PROCESS_TIMEOUT",
		"FLAG_THRESHOLD", "TOKEN_WEIGHT", "TRIGRAM_WEIGHT", "LINE_WEIGHT", "SCAN_TIMEOUT",
		"LOG_LEVEL", "SERVER_PORT", "METRICS_PORT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisHost)
	assert.Equal(t, "submissions:stream", cfg.RedisStreamKey)
	assert.Equal(t, "submissions:group", cfg.RedisConsumerGroup)
	assert.Equal(t, "submissions:dlq", cfg.RedisDeadLetterKey)
	assert.Equal(t, 24*time.Hour, cfg.StreamRetentionDuration)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "argus.events", cfg.KafkaEventTopic)

	assert.InDelta(t, 0.9, cfg.FlagThreshold, 1e-9)
	assert.InDelta(t, 0.4, cfg.TokenWeight, 1e-9)
	assert.InDelta(t, 0.4, cfg.TrigramWeight, 1e-9)
	assert.InDelta(t, 0.2, cfg.LineWeight, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)

	assert.Equal(t, 5, cfg.MaxConcurrentScans)
	assert.Equal(t, 5*time.Minute, cfg.ProcessTimeout)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "2112", cfg.MetricsPort)

	// Issuer checking is opt-in
	assert.Empty(t, cfg.JWTIssuer)
	assert.False(t, cfg.AIConfigured())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLAG_THRESHOLD", "0.85")
	t.Setenv("SCAN_TIMEOUT", "30s")
	t.Setenv("PROCESS_TIMEOUT", "1m")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092 ,")
	t.Setenv("AI_API_URL", "https://api.example.com/v1/chat/completions")
	t.Setenv("AI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.85, cfg.FlagThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, time.Minute, cfg.ProcessTimeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AIConfigured())
}

func validConfig() *Config {
	return &Config{
		MongoURI:                "mongodb://localhost:27017",
		MongoDBName:             "argus",
		RedisHost:               "localhost:6379",
		JWTSecret:               "secret",
		StorageDir:              "./data",
		MaxConcurrentScans:      5,
		ProcessTimeout:          5 * time.Minute,
		FlagThreshold:           0.9,
		TokenWeight:             0.4,
		TrigramWeight:           0.4,
		LineWeight:              0.2,
		ScanTimeout:             2 * time.Minute,
		StreamRetentionDuration: 24 * time.Hour,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }, "MONGO_URI"},
		{"missing db name", func(c *Config) { c.MongoDBName = "" }, "MONGO_DB_NAME"},
		{"missing redis host", func(c *Config) { c.RedisHost = "" }, "REDIS_HOST"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"missing storage dir", func(c *Config) { c.StorageDir = "" }, "STORAGE_DIR"},
		{"zero scans", func(c *Config) { c.MaxConcurrentScans = 0 }, "MAX_CONCURRENT_SCANS"},
		{"zero process timeout", func(c *Config) { c.ProcessTimeout = 0 }, "PROCESS_TIMEOUT"},
		{"threshold too low", func(c *Config) { c.FlagThreshold = 0 }, "FLAG_THRESHOLD"},
		{"threshold too high", func(c *Config) { c.FlagThreshold = 1 }, "FLAG_THRESHOLD"},
		{"negative weight", func(c *Config) { c.TrigramWeight = -0.1 }, "weights"},
		{"zero scan timeout", func(c *Config) { c.ScanTimeout = 0 }, "SCAN_TIMEOUT"},
		{"zero retention", func(c *Config) { c.StreamRetentionDuration = 0 }, "STREAM_RETENTION_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
