package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	// Must match the default tags below.
	defaultAdminPass = "admin"
	defaultJWTSecret = "default_jwt_secret"
)

type Config struct {
	Address string `yaml:"address" default:"0.0.0.0" validate:"required"`
	Port    int    `yaml:"port" default:"7000" validate:"min=1,max=65535"`

	StorageDriver string `yaml:"storage_driver" default:"mongo" validate:"oneof=mongo memory"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDB       string `yaml:"mongo_db" default:"oura-staking" validate:"required"`

	AdminEmail string `yaml:"admin_email" default:"admin@oura.local" validate:"required,email"`
	AdminPass  string `yaml:"admin_pass" default:"admin" validate:"required"`

	JWTSecret string        `yaml:"jwt_secret" default:"default_jwt_secret" validate:"required"`
	TokenTTL  time.Duration `yaml:"token_ttl" default:"24h" validate:"gt=0"`

	TelegramBotToken    string `yaml:"telegram_bot_token"`
	TelegramAdminChatID int64  `yaml:"telegram_admin_chat_id"`

	InitialTokenPrice float64       `yaml:"initial_token_price" default:"0.5" validate:"gt=0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" default:"10s" validate:"gt=0"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
}

// TelegramEnabled reports whether admin notifications should go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramAdminChatID != 0
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment overrides. Defaults fill whatever is left unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.StorageDriver == DriverMongo && c.MongoURI == "" {
		return errors.New("MONGO_URI is required when STORAGE_DRIVER is mongo")
	}
	if c.StorageDriver == DriverMongo {
		if insecure := c.InsecureDefaults(); len(insecure) > 0 {
			return fmt.Errorf("%s must be changed from the default when STORAGE_DRIVER is mongo", strings.Join(insecure, " and "))
		}
	}
	return nil
}

// InsecureDefaults names the credentials still set to their built-in values.
func (c *Config) InsecureDefaults() []string {
	var out []string
	if c.JWTSecret == defaultJWTSecret {
		out = append(out, "JWT_SECRET")
	}
	if c.AdminPass == defaultAdminPass {
		out = append(out, "ADMIN_PASS")
	}
	return out
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"ADDRESS":            &cfg.Address,
		"STORAGE_DRIVER":     &cfg.StorageDriver,
		"MONGO_URI":          &cfg.MongoURI,
		"MONGO_DB":           &cfg.MongoDB,
		"ADMIN_EMAIL":        &cfg.AdminEmail,
		"ADMIN_PASS":         &cfg.AdminPass,
		"JWT_SECRET":         &cfg.JWTSecret,
		"TELEGRAM_BOT_TOKEN": &cfg.TelegramBotToken,
		"LOG_LEVEL":          &cfg.Logging.Level,
		"LOG_FORMAT":         &cfg.Logging.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("invalid PORT value")
		}
		cfg.Port = port
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("invalid TELEGRAM_ADMIN_CHAT_ID value")
		}
		cfg.TelegramAdminChatID = id
	}
	if v := os.Getenv("INITIAL_TOKEN_PRICE"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.New("invalid INITIAL_TOKEN_PRICE value")
		}
		cfg.InitialTokenPrice = price
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":       &cfg.TokenTTL,
		"REQUEST_TIMEOUT": &cfg.RequestTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s value", key)
			}
			*dst = d
		}
	}
	return nil
}
