// Package config loads runtime settings from the environment, optionally on top
// of a YAML file, and holds the domain constants shared across services.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration.
type Config struct {
	HTTPAddr         string `yaml:"httpAddr"`
	DatabaseDSN      string `yaml:"databaseDSN"`
	RedisAddr        string `yaml:"redisAddr"`
	RedisPassword    string `yaml:"redisPassword"`
	RedisDB          int    `yaml:"redisDB"`
	JWTSecret        string `yaml:"jwtSecret"`
	SessionTTL       string `yaml:"sessionTTL"`
	FCFSMaxAttempts  int    `yaml:"fcfsMaxAttempts"`
	LogLevel         string `yaml:"logLevel"`
	TelegramBotToken string `yaml:"telegramBotToken"`
	LocalizationDir  string `yaml:"localizationDir"`
	// AllowedOrigins are the browser origins allowed to open live views.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:        ":8080",
		RedisAddr:       "localhost:6380",
		SessionTTL:      DefaultSessionTTL.String(),
		FCFSMaxAttempts: DefaultFCFSMaxAttempts,
		LogLevel:        "info",
		LocalizationDir: "internal/localization",
	}
}

// Load reads the configuration with Read and validates it.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Read loads the YAML file named by CONFIG_PATH (if any) and then applies
// environment overrides. Nothing is validated.
func Read() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	} else if dsn := dsnFromParts(); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("FCFS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FCFSMaxAttempts = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramBotToken = v
	}
	if v := os.Getenv("LOCALIZATION_DIR"); v != "" {
		cfg.LocalizationDir = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dsnFromParts builds a Postgres DSN from DB_HOST, DB_USER, DB_PASSWORD,
// DB_NAME and DB_PORT. It returns "" when DB_HOST is unset.
func dsnFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host,
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		port,
	)
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("config: DATABASE_DSN (or DB_HOST) is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if _, err := c.SessionDuration(); err != nil {
		return err
	}
	if c.FCFSMaxAttempts < 1 {
		return fmt.Errorf("config: FCFS_MAX_ATTEMPTS must be positive, got %d", c.FCFSMaxAttempts)
	}
	return nil
}

// SessionDuration parses SessionTTL, falling back to DefaultSessionTTL.
func (c Config) SessionDuration() (time.Duration, error) {
	if strings.TrimSpace(c.SessionTTL) == "" {
		return DefaultSessionTTL, nil
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid SESSION_TTL %q", c.SessionTTL)
	}
	return d, nil
}
