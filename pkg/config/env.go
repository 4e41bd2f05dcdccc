package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvEnvFile  = "ENV_FILE"

	EnvAllowedOrigins = "ALLOWED_ORIGINS"

	EnvJWTSecret            = "JWT_SECRET"
	EnvInboundWebhookSecret = "INBOUND_WEBHOOK_SECRET"
	EnvResponseTokenKey     = "RESPONSE_TOKEN_KEY"
	EnvResponseTokenTTL     = "RESPONSE_TOKEN_TTL"
	EnvPublicBaseURL        = "PUBLIC_BASE_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvWebhookGuideOfferURL  = "WEBHOOK_GUIDE_OFFER_URL"
	EnvWebhookGuideCancelURL = "WEBHOOK_GUIDE_CANCEL_URL"
	EnvWebhookResponseURL    = "WEBHOOK_GUIDE_RESPONSE_URL"
	EnvWebhookAftercareURL   = "WEBHOOK_AFTERCARE_URL"
	EnvWebhookSecret         = "WEBHOOK_SECRET"
	EnvWebhookTimeout        = "WEBHOOK_TIMEOUT"

	EnvEventsBackend    = "EVENTS_BACKEND"
	EnvEventsTopic      = "EVENTS_TOPIC"
	EnvEventsDLQTopic   = "EVENTS_DLQ_TOPIC"
	EnvRelayGroupID     = "RELAY_GROUP_ID"
	EnvRabbitMQURL      = "RABBITMQ_URL"
	EnvRabbitMQExchange = "RABBITMQ_EXCHANGE"

	EnvPhotoDir       = "PHOTO_DIR"
	EnvPhotoMaxWidth  = "PHOTO_MAX_WIDTH"
	EnvPhotoMaxPixels = "PHOTO_MAX_PIXELS"
	EnvMaxPhotoSize   = "MAX_PHOTO_SIZE"

	EnvCalendarDomain      = "CALENDAR_DOMAIN"
	EnvCalendarLocation    = "CALENDAR_LOCATION"
	EnvDefaultTourDuration = "DEFAULT_TOUR_DURATION"
	EnvOptimisticRetries   = "OPTIMISTIC_RETRIES"
)
