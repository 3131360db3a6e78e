package config

import (
	"errors"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	AutosaveDebounceMs    int    `mapstructure:"AUTOSAVE_DEBOUNCE_MS"`
	CommitTimeoutSec      int    `mapstructure:"COMMIT_TIMEOUT_SEC"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	OllamaBaseURL         string `mapstructure:"OLLAMA_BASE_URL"`
	SummaryModel          string `mapstructure:"SUMMARY_MODEL"`
	SummaryTimeoutSec     int    `mapstructure:"SUMMARY_TIMEOUT_SEC"`
	SummarizeRatePerMin   int    `mapstructure:"SUMMARIZE_RATE_PER_MIN"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	DevMode               bool   `mapstructure:"DEV_MODE"`
}

// Validation errors returned by Config.Validate.
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrDebounceRange           = errors.New("AUTOSAVE_DEBOUNCE_MS must be greater than 0")
	ErrCommitTimeoutRange      = errors.New("COMMIT_TIMEOUT_SEC must be greater than 0")
	ErrWSMaxSessionRange       = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrOllamaBaseURLEmpty      = errors.New("OLLAMA_BASE_URL cannot be empty")
	ErrSummaryModelEmpty       = errors.New("SUMMARY_MODEL cannot be empty")
	ErrSummaryTimeoutRange     = errors.New("SUMMARY_TIMEOUT_SEC must be greater than 0")
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "notedraft")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("AUTOSAVE_DEBOUNCE_MS", 2000)
	v.SetDefault("COMMIT_TIMEOUT_SEC", 10)
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	v.SetDefault("SUMMARY_MODEL", "llama3.1")
	v.SetDefault("SUMMARY_TIMEOUT_SEC", 120)
	// Summaries hit the model backend; zero disables the limiter.
	v.SetDefault("SUMMARIZE_RATE_PER_MIN", 10)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("DEV_MODE", false)

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	// DEV_MODE relaxes the JWT secret requirement so local tooling and
	// tests can boot without real credentials.
	if cfg.DevMode && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-jwt-secret-key-with-32-plus-chars"
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	// Cache the configuration
	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.JWTAlgorithm != "HS256" {
		return ErrJWTAlgorithmUnsupported
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.AutosaveDebounceMs <= 0 {
		return ErrDebounceRange
	}
	if c.CommitTimeoutSec <= 0 {
		return ErrCommitTimeoutRange
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSessionRange
	}
	if c.OllamaBaseURL == "" {
		return ErrOllamaBaseURLEmpty
	}
	if c.SummaryModel == "" {
		return ErrSummaryModelEmpty
	}
	if c.SummaryTimeoutSec <= 0 {
		return ErrSummaryTimeoutRange
	}
	return nil
}
