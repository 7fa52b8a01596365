package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr              string
	DatabaseURL       string
	Redis             RedisConfig
	KafkaBrokers      []string
	NotifyTopic       string
	PublicBaseURL     string
	OperatorSigningKey string
	DrawWorkers       int
	DrawMaxAttempts   int
}

// RedisConfig holds connection tuning for the scheduler queue.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("FAIRDRAW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	baseURL := os.Getenv("FAIRDRAW_PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	signingKey := os.Getenv("OPERATOR_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("NOTIFY_TOPIC")
	if topic == "" {
		topic = "raffle-events"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis:         redisFromEnv(),
		KafkaBrokers:  splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:   topic,
		PublicBaseURL: baseURL,
		OperatorSigningKey: signingKey,
		DrawWorkers:        envInt("DRAW_WORKERS", 1),
		DrawMaxAttempts:    envInt("DRAW_MAX_ATTEMPTS", 5),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
