package config

import "fmt"

// Validate checks the configuration for values the gateway cannot start
// with. It returns the first problem found.
func Validate(cfg Config) error {
	switch cfg.Transport {
	case TransportStreamableHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport %q (supported: %s, %s)",
			cfg.Transport, TransportStreamableHTTP, TransportStdio)
	}

	if cfg.Transport == TransportStreamableHTTP {
		if cfg.Port <= 0 || cfg.Port > 65535 {
			return fmt.Errorf("invalid port %d", cfg.Port)
		}
		if cfg.Host == "" {
			return fmt.Errorf("host cannot be empty for the %s transport", TransportStreamableHTTP)
		}
	}

	if cfg.Transport == TransportStdio && cfg.Auth.OperatorAPIKey == "" {
		return fmt.Errorf("the stdio transport requires an operator API key: set %s or auth.operatorAPIKey", EnvOperatorAPIKey)
	}

	if cfg.Auth.SessionTTLSeconds < 0 {
		return fmt.Errorf("auth.sessionTTLSeconds cannot be negative")
	}
	if cfg.Auth.MaxSessionsPerKey < 1 {
		return fmt.Errorf("auth.maxSessionsPerKey must be at least 1")
	}

	if cfg.Auth.HMACSessions && cfg.Secrets.Provider == "" {
		return fmt.Errorf("auth.hmacSessions requires a secrets provider: set secrets.provider or %s", EnvSecretsProvider)
	}

	if cfg.WandB.BaseURL == "" || cfg.WandB.GraphQLURL == "" {
		return fmt.Errorf("wandb.baseURL and wandb.graphqlURL cannot be empty")
	}

	return nil
}
