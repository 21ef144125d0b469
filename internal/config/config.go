// Package config reads settings from the environment, optionally seeded
// from a .env file.
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

// Config holds every runtime setting.
type Config struct {
	BackendURL     string
	BackendToken   string
	BackendTimeout time.Duration

	Port int

	MongoURI string
	MongoDB  string

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	JWTSecret            string
	JWTExpiry            time.Duration
	OperatorUsername     string
	OperatorPasswordHash string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BackendURL:           getenv("BACKEND_URL", "http://localhost:5000"),
		BackendToken:         os.Getenv("BACKEND_TOKEN"),
		BackendTimeout:       10 * time.Second,
		Port:                 8080,
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDB:              getenv("MONGO_DB", "tollsim"),
		MQTTBroker:           os.Getenv("MQTT_BROKER"),
		MQTTClientID:         getenv("MQTT_CLIENT_ID", "tollsim"),
		MQTTTopicPrefix:      getenv("MQTT_TOPIC_PREFIX", "tollsim"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTExpiry:            24 * time.Hour,
		OperatorUsername:     getenv("OPERATOR_USERNAME", "operator"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "text"),
	}

	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid BACKEND_TIMEOUT %q", v)
		}
		cfg.BackendTimeout = d
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = n
	}
	if v := os.Getenv("JWT_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid JWT_EXPIRY %q", v)
		}
		cfg.JWTExpiry = d
	}
	return cfg, nil
}

// AuthEnabled reports whether the operator API requires a login.
func (c *Config) AuthEnabled() bool {
	return c.OperatorPasswordHash != ""
}

// Addr is the listen address for the operator API.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SetupLogging applies the configured level and format to the standard logger.
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
