package config

// Default values applied when the config file omits a field.
const (
	DefaultHost              = "localhost"
	DefaultPort              = 8080
	DefaultSessionTTLSeconds = 3600
	DefaultMaxSessionsPerKey = 10
	DefaultHMACSecretID      = "tracegate-hmac-key"
	DefaultWandBBaseURL      = "https://api.wandb.ai"
	DefaultWandBGraphQLURL   = "https://api.wandb.ai/graphql"
	DefaultTraceServerURL    = "https://trace.wandb.ai"
	DefaultWandbotBaseURL    = "https://wandbot.wandb.ai"
)

// GetDefaultConfig returns the configuration used when no config file is
// present. Every field can be overridden by config.yaml and then by
// environment variables.
func GetDefaultConfig() Config {
	return Config{
		Host:      DefaultHost,
		Port:      DefaultPort,
		Transport: TransportStreamableHTTP,
		LogLevel:  "info",
		Auth: AuthConfig{
			SessionTTLSeconds:     DefaultSessionTTLSeconds,
			MaxSessionsPerKey:     DefaultMaxSessionsPerKey,
			HMACSecretID:          DefaultHMACSecretID,
			SessionIDPrefixLength: 8,
		},
		WandB: WandBConfig{
			BaseURL:        DefaultWandBBaseURL,
			GraphQLURL:     DefaultWandBGraphQLURL,
			TraceServerURL: DefaultTraceServerURL,
		},
		Wandbot: WandbotConfig{
			BaseURL: DefaultWandbotBaseURL,
		},
	}
}
