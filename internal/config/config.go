package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     string
	AllowedOrigins []string
	PollInterval   time.Duration
	LogLevel       log.Level
	FPP            struct {
		Host     string
		Port     int
		Username string
		Password string
		Timeout  time.Duration
	}
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.FPP.Host = os.Getenv("FPP_HOST")
	if cfg.FPP.Host == "" {
		return nil, fmt.Errorf("FPP_HOST is not set")
	}

	cfg.FPP.Port = 80
	if port := os.Getenv("FPP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid FPP_PORT %q", port)
		}
		cfg.FPP.Port = p
	}

	cfg.FPP.Username = os.Getenv("FPP_USERNAME")
	cfg.FPP.Password = os.Getenv("FPP_PASSWORD")

	cfg.FPP.Timeout = 10 * time.Second
	if timeout := os.Getenv("FPP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid FPP_TIMEOUT %q", timeout)
		}
		cfg.FPP.Timeout = d
	}

	cfg.ServerPort = os.Getenv("SERVER_PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3000"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		cfg.AllowedOrigins = strings.Split(allowedOrigins, ",")
	}

	cfg.PollInterval = 5 * time.Second
	if interval := os.Getenv("POLL_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q", interval)
		}
		cfg.PollInterval = d
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = log.DebugLevel
	case "warn":
		cfg.LogLevel = log.WarnLevel
	case "error":
		cfg.LogLevel = log.ErrorLevel
	default:
		cfg.LogLevel = log.InfoLevel
	}

	return cfg, nil
}
