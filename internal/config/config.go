package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is resolved once at process startup. Dependent-service base URLs are
// explicit here; nothing reads ambient global state at call time.
type Config struct {
	ListenAddr string

	DBDSN     string
	MongoURI  string
	RedisAddr string
	RabbitURL string

	RoomServiceURL    string
	PaymentServiceURL string
	UserServiceURL    string

	RoomTimeout    time.Duration
	UserTimeout    time.Duration
	PaymentTimeout time.Duration
	EnrichTimeout  time.Duration

	RoomCacheTTL   time.Duration
	IdempotencyTTL time.Duration

	BreakerFailureRatio float64
	BreakerInterval     time.Duration
	BreakerCooldown     time.Duration
	BreakerProbes       uint32

	DefaultCurrency string
	OTLPEndpoint    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBDSN:     os.Getenv("DB_DSN"),
		MongoURI:  os.Getenv("MONGO_URI"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		RabbitURL: os.Getenv("RABBIT_URL"),

		RoomServiceURL:    os.Getenv("ROOM_SERVICE_URL"),
		PaymentServiceURL: os.Getenv("PAYMENT_SERVICE_URL"),
		UserServiceURL:    os.Getenv("USER_SERVICE_URL"),

		RoomTimeout:    getDuration("ROOM_TIMEOUT", 5*time.Second),
		UserTimeout:    getDuration("USER_TIMEOUT", 5*time.Second),
		PaymentTimeout: getDuration("PAYMENT_TIMEOUT", 10*time.Second),
		EnrichTimeout:  getDuration("ENRICH_TIMEOUT", 10*time.Second),

		RoomCacheTTL:   getDuration("ROOM_CACHE_TTL", 30*time.Second),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", time.Hour),

		BreakerFailureRatio: getFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerInterval:     getDuration("BREAKER_INTERVAL", time.Minute),
		BreakerCooldown:     getDuration("BREAKER_COOLDOWN", 30*time.Second),
		BreakerProbes:       getUint32("BREAKER_PROBES", 3),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "usd"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d == 0 {
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	f, _ := strconv.ParseFloat(os.Getenv(key), 64)
	if f == 0 {
		return fallback
	}
	return f
}

func getUint32(key string, fallback uint32) uint32 {
	n, _ := strconv.ParseUint(os.Getenv(key), 10, 32)
	if n == 0 {
		return fallback
	}
	return uint32(n)
}
