package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	DB      DBConfig      `envPrefix:"DB_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	JWT     JWTConfig     `envPrefix:"JWT_"`
	Auth    AuthConfig
	Kafka   KafkaConfig   `envPrefix:"KAFKA_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	Swagger SwaggerConfig `envPrefix:"SWAGGER_"`
	Seed    SeedConfig    `envPrefix:"SEED_ADMIN_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`
}

type DBConfig struct {
	DSN      string `env:"DSN" envDefault:"file::memory:?cache=shared"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn" validate:"oneof=silent error warn info"`
	Reset    bool   `env:"RESET"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" validate:"omitempty,hostname_port"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0" validate:"gte=0"`
}

type JWTConfig struct {
	Secret   string `env:"SECRET,required" validate:"min=32"`
	Issuer   string `env:"ISSUER" envDefault:"readnest" validate:"required"`
	Audience string `env:"AUDIENCE" envDefault:"readnest-api" validate:"required"`
}

type AuthConfig struct {
	AccessTokenTTLMinutes int `env:"ACCESS_TOKEN_TTL_MINUTES" envDefault:"15" validate:"gt=0"`
	BcryptCost            int `env:"BCRYPT_COST" envDefault:"10" validate:"gte=4,lte=31"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"readnest.session-events" validate:"required"`
}

// Enabled reports whether at least one broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	Format string `env:"FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type SwaggerConfig struct {
	Host string `env:"HOST"`
}

// SeedConfig names the administrator the seeder creates. Leave Email empty to skip it.
type SeedConfig struct {
	Email     string `env:"EMAIL" validate:"omitempty,email"`
	Password  string `env:"PASSWORD" validate:"required_with=Email"`
	FirstName string `env:"FIRST_NAME" envDefault:"Library"`
	LastName  string `env:"LAST_NAME" envDefault:"Admin"`
}

// Load reads an optional .env file (path from ENV_FILE, default ".env"),
// then parses and validates the environment.
func Load() (*Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return Parse()
}

// Parse builds Config from the current environment without touching the filesystem.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DB.LogLevel = strings.ToLower(cfg.DB.LogLevel)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
