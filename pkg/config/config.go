package config

import (
	"encoding/base64"
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"beroepsbelg/pkg/client"
	"beroepsbelg/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port           string
	AllowedOrigins []string

	JWTSecret            string
	InboundWebhookSecret string
	ResponseTokenKey     string
	ResponseTokenTTL     time.Duration
	PublicBaseURL        string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	WebhookGuideOfferURL  string
	WebhookGuideCancelURL string
	WebhookResponseURL    string
	WebhookAftercareURL   string
	WebhookSecret         string
	WebhookTimeout        time.Duration

	EventsBackend    string
	EventsTopic      string
	EventsDLQTopic   string
	RelayGroupID     string
	RabbitMQURL      string
	RabbitMQExchange string

	PhotoDir       string
	PhotoMaxWidth  int
	PhotoMaxPixels int
	MaxPhotoSize   int

	CalendarDomain      string
	CalendarLocation    string
	DefaultTourDuration time.Duration
	OptimisticRetries   int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load(getEnvStr(EnvEnvFile, DefaultEnvFile))

	cfg := &Config{
		ServiceName: serviceName,

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),

		Port:           getEnvStr(EnvPort, DefaultPort),
		AllowedOrigins: getEnvList(EnvAllowedOrigins, DefaultAllowedOrigins),

		JWTSecret:            getEnvStr(EnvJWTSecret, ""),
		InboundWebhookSecret: getEnvStr(EnvInboundWebhookSecret, ""),
		ResponseTokenKey:     getEnvStr(EnvResponseTokenKey, ""),
		ResponseTokenTTL:     getEnvDuration(EnvResponseTokenTTL, DefaultResponseTokenTTL),
		PublicBaseURL:        strings.TrimSuffix(getEnvStr(EnvPublicBaseURL, "http://localhost:3000"), "/"),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		WebhookGuideOfferURL:  getEnvStr(EnvWebhookGuideOfferURL, ""),
		WebhookGuideCancelURL: getEnvStr(EnvWebhookGuideCancelURL, ""),
		WebhookResponseURL:    getEnvStr(EnvWebhookResponseURL, ""),
		WebhookAftercareURL:   getEnvStr(EnvWebhookAftercareURL, ""),
		WebhookSecret:         getEnvStr(EnvWebhookSecret, ""),
		WebhookTimeout:        getEnvDuration(EnvWebhookTimeout, DefaultWebhookTimeout),

		EventsBackend:    strings.ToLower(getEnvStr(EnvEventsBackend, DefaultEventsBackend)),
		EventsTopic:      getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic:   getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		RelayGroupID:     getEnvStr(EnvRelayGroupID, DefaultRelayGroupID),
		RabbitMQURL:      getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		RabbitMQExchange: getEnvStr(EnvRabbitMQExchange, DefaultRabbitMQExchange),

		PhotoDir:       getEnvStr(EnvPhotoDir, DefaultPhotoDir),
		PhotoMaxWidth:  getEnvNum(EnvPhotoMaxWidth, DefaultPhotoMaxWidth),
		PhotoMaxPixels: getEnvNum(EnvPhotoMaxPixels, DefaultPhotoMaxPixels),
		MaxPhotoSize:   getEnvNum(EnvMaxPhotoSize, DefaultMaxPhotoSize),

		CalendarDomain:      getEnvStr(EnvCalendarDomain, DefaultCalendarDomain),
		CalendarLocation:    getEnvStr(EnvCalendarLocation, DefaultCalendarLocation),
		DefaultTourDuration: getEnvDuration(EnvDefaultTourDuration, DefaultTourDuration),
		OptimisticRetries:   getEnvNum(EnvOptimisticRetries, DefaultOptimisticRetries),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects Redis only when an address is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		errors = append(errors, "JWTSecret must be at least 32 characters")
	}
	if cfg.ResponseTokenKey != "" {
		if key, err := base64.StdEncoding.DecodeString(cfg.ResponseTokenKey); err != nil || len(key) != 32 {
			errors = append(errors, "ResponseTokenKey must be a base64 encoded 32 byte key")
		}
	}

	switch cfg.EventsBackend {
	case EventsBackendNone, EventsBackendWebhook, EventsBackendKafka, EventsBackendRabbitMQ:
	default:
		errors = append(errors, fmt.Sprintf("EventsBackend must be one of [none, webhook, kafka, rabbitmq], got: %s", cfg.EventsBackend))
	}

	durations := map[string]time.Duration{
		"MongoConnTimeout":    cfg.MongoConnTimeout,
		"RateLimitWindow":     cfg.RateLimitWindow,
		"RequestTimeout":      cfg.RequestTimeout,
		"IdempotencyTTL":      cfg.IdempotencyTTL,
		"ReadTimeout":         cfg.ReadTimeout,
		"WriteTimeout":        cfg.WriteTimeout,
		"IdleTimeout":         cfg.IdleTimeout,
		"ShutdownTimeout":     cfg.ShutdownTimeout,
		"WebhookTimeout":      cfg.WebhookTimeout,
		"DefaultTourDuration": cfg.DefaultTourDuration,
		"ResponseTokenTTL":    cfg.ResponseTokenTTL,
	}
	for _, name := range slices.Sorted(maps.Keys(durations)) {
		if durations[name] <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, durations[name]))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.MaxPhotoSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxPhotoSize must be positive, got: %d", cfg.MaxPhotoSize))
	}
	if cfg.PhotoMaxWidth < 64 {
		errors = append(errors, fmt.Sprintf("PhotoMaxWidth must be at least 64, got: %d", cfg.PhotoMaxWidth))
	}
	if cfg.PhotoMaxPixels < cfg.PhotoMaxWidth*cfg.PhotoMaxWidth {
		errors = append(errors, fmt.Sprintf("PhotoMaxPixels must be at least PhotoMaxWidth squared, got: %d", cfg.PhotoMaxPixels))
	}
	if cfg.OptimisticRetries < 1 {
		errors = append(errors, fmt.Sprintf("OptimisticRetries must be at least 1, got: %d", cfg.OptimisticRetries))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_enabled", cfg.RedisAddr != "",
		"port", cfg.Port,
		"allowed_origins", cfg.AllowedOrigins,
		"jwt_secret_set", cfg.JWTSecret != "",
		"inbound_webhook_secret_set", cfg.InboundWebhookSecret != "",
		"response_token_key_set", cfg.ResponseTokenKey != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"webhook_guide_offer_url", cfg.WebhookGuideOfferURL,
		"webhook_guide_cancel_url", cfg.WebhookGuideCancelURL,
		"webhook_guide_response_url", cfg.WebhookResponseURL,
		"webhook_aftercare_url", cfg.WebhookAftercareURL,
		"webhook_timeout", cfg.WebhookTimeout,
		"events_backend", cfg.EventsBackend,
		"events_topic", cfg.EventsTopic,
		"photo_dir", cfg.PhotoDir,
		"photo_max_width", cfg.PhotoMaxWidth,
		"photo_max_pixels", cfg.PhotoMaxPixels,
		"optimistic_retries", cfg.OptimisticRetries,
	)
}

func redactURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(^[a-z+]+://)[^:/@]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPaginationPageLimit
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
