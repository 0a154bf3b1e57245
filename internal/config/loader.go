package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Load sets default values, then overrides them with a .json config file (the path is stored in the
// CONFIG_PATH environment variable), then with environment variables, and validates the result.
// Every call returns a fresh value.
func Load() (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if err := loadFromJSON(cfg, getConfigPath()); err != nil {
		return nil, fmt.Errorf("failed to load config from JSON: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Server = ServerConfig{
		Port:            "8080",
		Host:            "0.0.0.0",
		ReadTimeout:     Duration(30 * time.Second),
		WriteTimeout:    Duration(30 * time.Second),
		ShutdownTimeout: Duration(10 * time.Second),
		SecureCookies:   true,
	}

	cfg.Database = DatabaseConfig{
		Host:           "localhost",
		Port:           "5432",
		User:           "postgres",
		Password:       "password",
		DBName:         "auth",
		SSLMode:        "disable",
		MigrationsPath: "migrations",
	}

	cfg.Redis = RedisConfig{
		Enabled: false,
		Addr:    "localhost:6379",
		DB:      0,
	}

	// Secrets have no default; Validate rejects a config without them.
	cfg.JWT = JWTConfig{
		AccessTokenTTL:  Duration(15 * time.Minute),
		RefreshTokenTTL: Duration(7 * 24 * time.Hour),
	}

	cfg.Password = PasswordConfig{Cost: 12}

	cfg.Log = LogConfig{Level: "info"}
}

func loadFromJSON(cfg *Config, configPath string) error {
	file, err := os.Open(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}

// getConfigPath reads path to .json config from CONFIG_PATH env variable
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return filepath.Join("config", "config.json")
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()

	// Custom validation for Duration type: must be greater than 0
	if err := validate.RegisterValidation("duration_gt0", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(Duration)
		return ok && d > 0
	}); err != nil {
		return err
	}

	return validate.Struct(cfg)
}
