package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tracegate/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/tracegate"
	configFileName = "config.yaml"
)

// GetDefaultConfigPath returns the per-user configuration directory.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// LoadConfig loads configuration from the specified directory. The directory
// should contain config.yaml; when the file is absent, defaults are used.
// Environment overrides are applied on top in both cases.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return ApplyEnvOverrides(cfg), nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return ApplyEnvOverrides(cfg), nil
}

// Environment variable names. The auth/session names follow the original
// wandb-mcp-server deployment surface so existing deployments carry over.
const (
	EnvAuthDisabled      = "MCP_AUTH_DISABLED"
	EnvOperatorAPIKey    = "WANDB_API_KEY"
	EnvSessionTTL        = "SESSION_TTL_SECONDS"
	EnvMaxSessionsPerKey = "MAX_SESSIONS_PER_KEY"
	EnvHMACSessions      = "MCP_SERVER_ENABLE_HMAC_SHA256_SESSIONS"
	EnvSecretsProvider   = "MCP_SERVER_SECRETS_PROVIDER"
	EnvSecretsPath       = "MCP_SERVER_SECRETS_PATH"
	EnvLogLevel          = "MCP_SERVER_LOG_LEVEL"
	EnvWandBBaseURL      = "WANDB_BASE_URL"
	EnvTraceServerURL    = "WEAVE_TRACE_SERVER_URL"
	EnvWandbotBaseURL    = "WANDBOT_BASE_URL"
)

// ApplyEnvOverrides overlays environment variables on top of the loaded
// configuration. Malformed numeric values are ignored with a warning rather
// than failing startup.
func ApplyEnvOverrides(cfg Config) Config {
	if v := os.Getenv(EnvAuthDisabled); v != "" {
		cfg.Auth.Disabled = parseBool(EnvAuthDisabled, v, cfg.Auth.Disabled)
	}
	if v := os.Getenv(EnvOperatorAPIKey); v != "" {
		cfg.Auth.OperatorAPIKey = v
	}
	if v := os.Getenv(EnvSessionTTL); v != "" {
		cfg.Auth.SessionTTLSeconds = parseInt(EnvSessionTTL, v, cfg.Auth.SessionTTLSeconds)
	}
	if v := os.Getenv(EnvMaxSessionsPerKey); v != "" {
		cfg.Auth.MaxSessionsPerKey = parseInt(EnvMaxSessionsPerKey, v, cfg.Auth.MaxSessionsPerKey)
	}
	if v := os.Getenv(EnvHMACSessions); v != "" {
		cfg.Auth.HMACSessions = parseBool(EnvHMACSessions, v, cfg.Auth.HMACSessions)
	}
	if v := os.Getenv(EnvSecretsProvider); v != "" {
		cfg.Secrets.Provider = v
	}
	if v := os.Getenv(EnvSecretsPath); v != "" {
		cfg.Secrets.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvWandBBaseURL); v != "" {
		cfg.WandB.BaseURL = v
		cfg.WandB.GraphQLURL = v + "/graphql"
	}
	if v := os.Getenv(EnvTraceServerURL); v != "" {
		cfg.WandB.TraceServerURL = v
	}
	if v := os.Getenv(EnvWandbotBaseURL); v != "" {
		cfg.Wandbot.BaseURL = v
	}
	return cfg
}

func parseBool(name, value string, fallback bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("ConfigLoader", "Ignoring invalid boolean %s=%q", name, value)
		return fallback
	}
	return b
}

func parseInt(name, value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("ConfigLoader", "Ignoring invalid integer %s=%q", name, value)
		return fallback
	}
	return n
}
