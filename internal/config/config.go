package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFeedURL is the JMA 防災情報XML long-term Atom feed (public, no auth).
const DefaultFeedURL = "https://www.data.jma.go.jp/developer/xml/feed/extra_l.xml"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL        string
	HoursThreshold int
	FetchTimeout   time.Duration
	CacheTTL       time.Duration

	RefreshInterval time.Duration // 0 disables the background refresh loop

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	UserAgent       string

	// Kafka publishing configuration. Publishing is enabled only when
	// brokers are configured.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// KafkaEnabled reports whether records should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	hours, err := parseIntEnv("HOURS_THRESHOLD", 48)
	if err != nil {
		return nil, err
	}
	if hours < 1 || hours > 168 {
		return nil, fmt.Errorf("HOURS_THRESHOLD must be between 1 and 168, got %d", hours)
	}

	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDurationEnv("CACHE_TTL", 600*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDurationEnv("REFRESH_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedURL:         envOrDefault("FEED_URL", DefaultFeedURL),
		HoursThreshold:  hours,
		FetchTimeout:    fetchTimeout,
		CacheTTL:        cacheTTL,
		RefreshInterval: refreshInterval,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		UserAgent:       envOrDefault("USER_AGENT", "jma-warnings-etl/1.0"),
		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic:  envOrDefault("KAFKA_SINK_TOPIC", "jma-warning-records"),
	}

	if cfg.FeedURL == "" {
		return nil, errors.New("FEED_URL must not be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("FETCH_TIMEOUT must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return nil, errors.New("CACHE_TTL must be positive")
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
