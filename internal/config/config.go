package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	OrdersTopic string   `yaml:"orders_topic"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// NewConfig builds the configuration from an optional .env file, an optional
// YAML file named by CONFIG_PATH and the process environment, in that order of
// increasing precedence.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "storefront"
	cfg.App.Port = "8080"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"
	cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	cfg.Kafka.OrdersTopic = "order.placed"
	return cfg
}

func loadYAML(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.Env, "APP_ENV")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONNS %q: %w", v, err)
		}
		cfg.Postgres.MaxConns = int32(n)
	}
	if v := os.Getenv("DB_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MIN_CONNS %q: %w", v, err)
		}
		cfg.Postgres.MinConns = int32(n)
	}
	if v := os.Getenv("DB_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONN_LIFETIME %q: %w", v, err)
		}
		cfg.Postgres.MaxConnLifetime = d
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_AUTO_MIGRATE %q: %w", v, err)
		}
		cfg.Postgres.AutoMigrate = b
	}

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", v, err)
		}
		cfg.Auth.TokenTTL = d
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Kafka.OrdersTopic, "KAFKA_ORDERS_TOPIC")

	return nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Postgres.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Postgres.Port == "" {
		missing = append(missing, "DB_PORT")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Postgres.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	return nil
}

// IsDevelopment reports whether human-readable console logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "" || c.App.Env == "development"
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
