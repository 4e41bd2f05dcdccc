package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvEnvFile, "does-not-exist.env")

	cfg := Load("bookings")

	assert.Equal(t, DefaultMongoDatabaseName, cfg.MongoDatabaseName)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, EventsBackendWebhook, cfg.EventsBackend)
	assert.Equal(t, DefaultTourDuration, cfg.DefaultTourDuration)
	assert.Equal(t, "Brussels, Belgium", cfg.CalendarLocation)
	assert.NotNil(t, cfg.Client)
	assert.Nil(t, cfg.Client.Redis)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvEnvFile, "does-not-exist.env")
	t.Setenv(EnvAllowedOrigins, "https://beroepsbelg.be, https://admin.beroepsbelg.be,")
	t.Setenv(EnvEventsBackend, "KAFKA")
	t.Setenv(EnvPublicBaseURL, "https://app.beroepsbelg.be/")
	t.Setenv(EnvDefaultTourDuration, "90m")
	t.Setenv(EnvOptimisticRetries, "5")
	t.Setenv(EnvRateLimitWindow, "not-a-duration")

	cfg := Load("bookings")

	assert.Equal(t, []string{"https://beroepsbelg.be", "https://admin.beroepsbelg.be"}, cfg.AllowedOrigins)
	assert.Equal(t, EventsBackendKafka, cfg.EventsBackend)
	assert.Equal(t, "https://app.beroepsbelg.be", cfg.PublicBaseURL)
	assert.Equal(t, 90*time.Minute, cfg.DefaultTourDuration)
	assert.Equal(t, 5, cfg.OptimisticRetries)
	assert.Equal(t, DefaultRateLimitWindow, cfg.RateLimitWindow, "unparseable values fall back to the default")
}

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		MongoURI:            DefaultMongoURI,
		MongoDatabaseName:   DefaultMongoDatabaseName,
		MongoConnTimeout:    DefaultMongoConnTimeout,
		RateLimitRequests:   DefaultRateLimitRequests,
		RateLimitWindow:     DefaultRateLimitWindow,
		RequestTimeout:      DefaultRequestTimeout,
		IdempotencyTTL:      DefaultIdempotencyTTL,
		MaxRequestSize:      DefaultMaxRequestSize,
		ReadTimeout:         DefaultReadTimeout,
		WriteTimeout:        DefaultWriteTimeout,
		IdleTimeout:         DefaultIdleTimeout,
		ShutdownTimeout:     DefaultShutdownTimeout,
		WebhookTimeout:      DefaultWebhookTimeout,
		ResponseTokenTTL:    DefaultResponseTokenTTL,
		EventsBackend:       EventsBackendNone,
		PhotoMaxWidth:       DefaultPhotoMaxWidth,
		PhotoMaxPixels:      DefaultPhotoMaxPixels,
		MaxPhotoSize:        DefaultMaxPhotoSize,
		DefaultTourDuration: DefaultTourDuration,
		OptimisticRetries:   DefaultOptimisticRetries,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port out of range", func(c *Config) { c.Port = "70000" }, "Port must be between 1 and 65535"},
		{"mongo scheme", func(c *Config) { c.MongoURI = "postgres://localhost:5432" }, "MongoURI must start with"},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, "JWTSecret must be at least 32 characters"},
		{"token key not base64", func(c *Config) { c.ResponseTokenKey = "%%%" }, "ResponseTokenKey must be a base64 encoded 32 byte key"},
		{"token key wrong length", func(c *Config) {
			c.ResponseTokenKey = base64.StdEncoding.EncodeToString(make([]byte, 16))
		}, "ResponseTokenKey must be a base64 encoded 32 byte key"},
		{"events backend", func(c *Config) { c.EventsBackend = "sqs" }, "EventsBackend must be one of"},
		{"zero duration", func(c *Config) { c.RequestTimeout = 0 }, "RequestTimeout must be positive"},
		{"narrow photos", func(c *Config) { c.PhotoMaxWidth = 10 }, "PhotoMaxWidth must be at least 64"},
		{"pixel limit below width", func(c *Config) { c.PhotoMaxPixels = 1000 }, "PhotoMaxPixels must be at least PhotoMaxWidth squared"},
		{"no retries", func(c *Config) { c.OptimisticRetries = 0 }, "OptimisticRetries must be at least 1"},
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

func TestValidate_AcceptsTokenKey(t *testing.T) {
	cfg := validConfig()
	cfg.ResponseTokenKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	assert.NoError(t, cfg.Validate())
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactURI("mongodb://admin:s3cret@db:27017"))
	assert.Equal(t, "mongodb://db:27017", redactURI("mongodb://db:27017"))
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, DefaultPaginationPageLimit, NormalizePaginationLimit(0))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(5000))
	assert.Equal(t, 50, NormalizePaginationLimit(50))
	assert.Equal(t, int64(0), NormalizeOffset(-3))
}
