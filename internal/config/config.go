package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kirvitchenko/finalProjectCrm/internal/domain/entity"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	DatabaseHost     string `envconfig:"DB_HOST" required:"true"`
	DatabasePort     string `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" required:"true"`
	DatabasePassword string `envconfig:"DB_PASSWORD" required:"true"`
	DatabaseName     string `envconfig:"DB_NAME" required:"true"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath   string `envconfig:"MIGRATIONS_PATH" default:"migrations"`

	AdminToken string        `envconfig:"ADMIN_TOKEN" required:"true"`
	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL     time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Пустой REDIS_ADDR: отозванные токены хранятся в PostgreSQL
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	MembershipPolicyRaw string `envconfig:"MEMBERSHIP_POLICY" default:"per_team"`
	EvaluationPolicyRaw string `envconfig:"EVALUATION_POLICY" default:"per_task"`

	MembershipPolicy entity.MembershipPolicy `ignored:"true"`
	EvaluationPolicy entity.EvaluationPolicy `ignored:"true"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load загружает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.parsePolicies(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) parsePolicies() error {
	membership, err := entity.ParseMembershipPolicy(c.MembershipPolicyRaw)
	if err != nil {
		return fmt.Errorf("invalid MEMBERSHIP_POLICY: %w", err)
	}

	evaluation, err := entity.ParseEvaluationPolicy(c.EvaluationPolicyRaw)
	if err != nil {
		return fmt.Errorf("invalid EVALUATION_POLICY: %w", err)
	}

	c.MembershipPolicy = membership
	c.EvaluationPolicy = evaluation
	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}
