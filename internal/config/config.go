package config

import (
	"fmt"
	"net"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server" envPrefix:"SERVER_" validate:"required"`
	Database DatabaseConfig `json:"database" envPrefix:"DB_" validate:"required"`
	Redis    RedisConfig    `json:"redis" envPrefix:"REDIS_"`
	JWT      JWTConfig      `json:"jwt" envPrefix:"JWT_" validate:"required"`
	Password PasswordConfig `json:"password" envPrefix:"PASSWORD_"`
	Log      LogConfig      `json:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port            string   `json:"port" env:"PORT" validate:"required,numeric"`
	Host            string   `json:"host" env:"HOST" validate:"required,hostname|ip"`
	ReadTimeout     Duration `json:"read_timeout" env:"READ_TIMEOUT" validate:"duration_gt0"`
	WriteTimeout    Duration `json:"write_timeout" env:"WRITE_TIMEOUT" validate:"duration_gt0"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"duration_gt0"`
	// SecureCookies marks auth cookies Secure; disable only for local plain-HTTP runs.
	SecureCookies bool `json:"secure_cookies" env:"SECURE_COOKIES"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type DatabaseConfig struct {
	Host           string `json:"host" env:"HOST" validate:"required,hostname|ip"`
	Port           string `json:"port" env:"PORT" validate:"required,numeric"`
	User           string `json:"user" env:"USER" validate:"required"`
	Password       string `json:"password" env:"PASSWORD" validate:"required"`
	DBName         string `json:"db_name" env:"NAME" validate:"required"`
	SSLMode        string `json:"ssl_mode" env:"SSL_MODE" validate:"required,oneof=disable require verify-ca verify-full"`
	MigrationsPath string `json:"migrations_path" env:"MIGRATIONS_PATH" validate:"required"`
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" env:"ENABLED"`
	Addr     string `json:"addr" env:"ADDR" validate:"omitempty,hostname_port"`
	Password string `json:"password" env:"PASSWORD" validate:"omitempty"`
	DB       int    `json:"db" env:"DB" validate:"gte=0"`
}

type JWTConfig struct {
	AccessSecret    string   `json:"access_secret" env:"ACCESS_SECRET" validate:"required,min=16"`
	RefreshSecret   string   `json:"refresh_secret" env:"REFRESH_SECRET" validate:"required,min=16,nefield=AccessSecret"`
	AccessTokenTTL  Duration `json:"access_token_ttl" env:"ACCESS_TOKEN_TTL" validate:"duration_gt0"`
	RefreshTokenTTL Duration `json:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" validate:"duration_gt0"`
	// CleanupInterval enables deletion of expired refresh records at this
	// interval. Zero keeps every record.
	CleanupInterval Duration `json:"cleanup_interval" env:"CLEANUP_INTERVAL" validate:"omitempty,duration_gt0"`
}

// TTLs returns the token lifetimes as plain durations.
func (j JWTConfig) TTLs() (access, refresh time.Duration) {
	return time.Duration(j.AccessTokenTTL), time.Duration(j.RefreshTokenTTL)
}

type PasswordConfig struct {
	Cost int `json:"cost" env:"COST" validate:"gte=4,lte=31"`
}

type LogConfig struct {
	Level string `json:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
}
