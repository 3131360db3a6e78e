package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// baseValidConfig returns a fully-valid configuration object that callers
// can tweak inside table tests.
func baseValidConfig() Config {
	return Config{
		AppPort:            8080,
		LogLevel:           "info",
		LogFormat:          "json",
		MongoURI:           "mongodb://localhost:27017",
		MongoDBName:        "test",
		JWTSecret:          "this-is-a-super-secret-jwt-key-with-32-plus-chars",
		JWTAlgorithm:       "HS256",
		AutosaveDebounceMs: 2000,
		CommitTimeoutSec:   10,
		WSMaxSessionSec:    900,
		OllamaBaseURL:      "http://localhost:11434",
		SummaryModel:       "llama3.1",
		SummaryTimeoutSec:  120,
	}
}

// clearConfigEnvVars removes every environment variable that the Config loader
// consumes so each test starts with a clean slate.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_PORT",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MONGO_URI",
		"MONGO_DB_NAME",
		"JWT_SECRET",
		"JWT_ALGORITHM",
		"AUTOSAVE_DEBOUNCE_MS",
		"COMMIT_TIMEOUT_SEC",
		"WS_MAX_SESSION_SEC",
		"OLLAMA_BASE_URL",
		"SUMMARY_MODEL",
		"SUMMARY_TIMEOUT_SEC",
		"SUMMARIZE_RATE_PER_MIN",
		"ROUTE_METRICS_ENABLED",
		"REQUEST_LOGGING_ENABLED",
		"DEV_MODE",
	} {
		if err := os.Unsetenv(k); err != nil {
			t.Logf("warning: failed to unset %s: %v", k, err)
		}
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("DEV_MODE", "true") // bypass JWT secret requirement

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "notedraft", cfg.MongoDBName)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 2000, cfg.AutosaveDebounceMs)
	assert.Equal(t, 10, cfg.CommitTimeoutSec)
	assert.Equal(t, 900, cfg.WSMaxSessionSec)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "llama3.1", cfg.SummaryModel)
	assert.Equal(t, 120, cfg.SummaryTimeoutSec)
	assert.Equal(t, 10, cfg.SummarizeRatePerMin)
	assert.True(t, cfg.RouteMetricsEnabled)
	assert.True(t, cfg.RequestLoggingEnabled)
}

func TestConfigLoadWithOverride(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("DEV_MODE", "true")
	t.Setenv("APP_PORT", "9999")
	t.Setenv("AUTOSAVE_DEBOUNCE_MS", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.AppPort)
	assert.Equal(t, 500, cfg.AutosaveDebounceMs)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "notedraft", cfg.MongoDBName)
	assert.True(t, cfg.DevMode)
}

func TestConfigCaching(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("DEV_MODE", "true")

	cfg1, err := Load()
	require.NoError(t, err)

	// second call should hit the cache
	cfg2, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg1, cfg2)
}

func TestConfigDevModeFillsSecret(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.JWTSecret)
	assert.GreaterOrEqual(t, len(cfg.JWTSecret), 32)
}

func TestConfigRequestLoggingDisabled(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()

	t.Setenv("DEV_MODE", "true")
	t.Setenv("REQUEST_LOGGING_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.RequestLoggingEnabled)
}

// -----------------------------------------------------------------------------
// Validate() unit tests (table-driven)
// -----------------------------------------------------------------------------

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config) // mutates the baseValidConfig
		wantErr error
	}{
		{
			name: "valid config",
			modify: func(*Config) {
				// No-op: baseValidConfig already returns a valid configuration.
			},
		},
		{
			name: "invalid port - zero",
			modify: func(c *Config) {
				c.AppPort = 0
			},
			wantErr: ErrAppPortRange,
		},
		{
			name: "invalid port - too high",
			modify: func(c *Config) {
				c.AppPort = 70000
			},
			wantErr: ErrAppPortRange,
		},
		{
			name: "empty log level",
			modify: func(c *Config) {
				c.LogLevel = ""
			},
			wantErr: ErrLogLevelEmpty,
		},
		{
			name: "empty JWT secret",
			modify: func(c *Config) {
				c.JWTSecret = ""
			},
			wantErr: ErrJWTSecretRequired,
		},
		{
			name: "JWT secret too short for HS256",
			modify: func(c *Config) {
				c.JWTSecret = "short"
			},
			wantErr: ErrJWTSecretTooShort,
		},
		{
			name: "invalid JWT algorithm",
			modify: func(c *Config) {
				c.JWTAlgorithm = "INVALID"
			},
			wantErr: ErrJWTAlgorithmUnsupported,
		},
		{
			name: "debounce must be positive",
			modify: func(c *Config) {
				c.AutosaveDebounceMs = 0
			},
			wantErr: ErrDebounceRange,
		},
		{
			name: "commit timeout must be positive",
			modify: func(c *Config) {
				c.CommitTimeoutSec = -1
			},
			wantErr: ErrCommitTimeoutRange,
		},
		{
			name: "ws session cap must be positive",
			modify: func(c *Config) {
				c.WSMaxSessionSec = 0
			},
			wantErr: ErrWSMaxSessionRange,
		},
		{
			name: "empty ollama base url",
			modify: func(c *Config) {
				c.OllamaBaseURL = ""
			},
			wantErr: ErrOllamaBaseURLEmpty,
		},
		{
			name: "empty summary model",
			modify: func(c *Config) {
				c.SummaryModel = ""
			},
			wantErr: ErrSummaryModelEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
