package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// APIResponse is the standard error response format
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) error {
	return writeJSON(w, statusCode, data)
}

// decodeRequest reads a JSON body into v and checks its validate tags.
func decodeRequest(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := requestValidator.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return err
	}
	return nil
}

// applyEnvOverrides lets deployment variables win over the config file.
func applyEnvOverrides(config *indexsync.Config) {
	db := &config.Database
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnvInt("DB_PORT", db.Port)
	db.Database = getEnv("DB_NAME", db.Database)
	db.Username = getEnv("DB_USER", db.Username)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.SSLMode = getEnv("DB_SSL_MODE", db.SSLMode)
	db.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", db.MaxConnections)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.ConnMaxLifetime = getEnvSeconds("DB_CONN_MAX_LIFETIME_SECONDS", db.ConnMaxLifetime)
	db.ConnMaxIdleTime = getEnvSeconds("DB_CONN_MAX_IDLE_TIME_SECONDS", db.ConnMaxIdleTime)
	db.Timeout = getEnvSeconds("DB_TIMEOUT_SECONDS", db.Timeout)
	db.LinkField = getEnv("DB_LINK_FIELD", db.LinkField)

	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)
}

// newLogger builds a production logger honouring the configured level and
// encoding.
func newLogger(cfg indexsync.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zapCfg.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
