package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Reconcile ReconcileConfig
	Seed      SeedConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8083)
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoDBConfig struct {
	URI        string // URI подключения к MongoDB (журнал модерации)
	Database   string
	Collection string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers         []string // Список брокеров Kafka (формат: host:port)
	ReviewTopic     string   // REVIEW_CREATED, REVIEW_STATUS_CHANGED
	RatingTopic     string   // PRODUCT_RATING_UPDATED
	ConsumerGroup   string
	ConsumerEnabled bool // Консьюмер, повторно пересчитывающий рейтинг по событиям модерации
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int           // Лимит запросов на IP за окно
	Window   time.Duration // Длина окна
}

type ReconcileConfig struct {
	Schedule string // cron-выражение; пустая строка отключает сверку
	Timeout  time.Duration
}

type SeedConfig struct {
	Enabled bool // Создать схему и тестовые данные при старте
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load читает конфигурацию из переменных окружения
// Ошибка возвращается только для некорректных длительностей
func Load() (*Config, error) {
	tokenTTL, err := getEnvDuration("JWT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	window, err := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	reconcileTimeout, err := getEnvDuration("RECONCILE_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8083"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "product_reviews"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGODB_DATABASE", "reviews_service"),
			Collection: getEnv("MONGODB_AUDIT_COLLECTION", "moderation_audit"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:         splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			ReviewTopic:     getEnv("KAFKA_REVIEW_TOPIC", "review_events"),
			RatingTopic:     getEnv("KAFKA_RATING_TOPIC", "rating_events"),
			ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "reviews-rating-repair"),
			ConsumerEnabled: getEnvBool("KAFKA_CONSUMER_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			TokenTTL: tokenTTL,
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   window,
		},
		Reconcile: ReconcileConfig{
			Schedule: getEnvAllowEmpty("RECONCILE_SCHEDULE", "@every 10m"),
			Timeout:  reconcileTimeout,
		},
		Seed: SeedConfig{
			Enabled: getEnvBool("SEED_DATA", true),
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// DSN возвращает строку подключения в формате libpq, её понимают и pgx, и gorm
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty различает "не задано" и "задано пустым"
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
