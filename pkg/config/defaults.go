package config

import "time"

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultEnvFile  = ".env"

	DefaultStorageBackend = BackendMemory
	DefaultLockBackend    = BackendMemory

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultLockTTL          = 10 * time.Second
	DefaultLockMaxAttempts  = 5
	DefaultLockRetryBackoff = 50 * time.Millisecond

	DefaultTimeZone           = "UTC"
	DefaultBusinessHoursStart = "08:00"
	DefaultBusinessHoursEnd   = "18:00"
	DefaultMinDurationMin     = 30
	DefaultMaxDurationMin     = 240

	DefaultKafkaEnabled     = false
	DefaultKafkaEventsTopic = "reservation-events"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 20
)
