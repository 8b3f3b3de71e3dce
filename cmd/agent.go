package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tracegate/internal/agent"
	"tracegate/internal/config"
	"tracegate/internal/gateway"
	"tracegate/internal/wandb"
	"tracegate/pkg/logging"
)

var (
	agentEndpoint   string
	agentAPIKey     string
	agentConfigPath string
	agentVerbose    bool
)

// agentCmd connects to a running gateway as an MCP client and starts an
// interactive REPL.
var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Interactive MCP client for a running tracegate gateway",
	Long: `Connects to a tracegate gateway over the streamable HTTP transport
and starts an interactive REPL for exploring and calling the W&B tools.

The W&B API key is read from --api-key or the WANDB_API_KEY environment
variable and presented as a bearer token; the gateway creates an isolated
session for it.

By default the agent connects to the endpoint derived from the local
tracegate configuration. Override it with --endpoint to reach a remote
gateway.

Note: The gateway must be running (use 'tracegate serve') before using
this command.`,
	Args: cobra.NoArgs,
	RunE: runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	level := logging.LevelWarn
	if agentVerbose {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	endpoint := agentEndpoint
	if endpoint == "" {
		configDir := agentConfigPath
		if configDir == "" {
			if dir, err := config.GetDefaultConfigPath(); err == nil {
				configDir = dir
			}
		}
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		endpoint = cfg.ExternalURL() + gateway.MCPPath
	}

	apiKey := agentAPIKey
	if apiKey == "" {
		apiKey = os.Getenv(wandb.EnvAPIKey)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := agent.NewClient(endpoint, apiKey)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer client.Close()

	return agent.NewREPL(client).Run(ctx)
}

func init() {
	rootCmd.AddCommand(agentCmd)

	agentCmd.Flags().StringVar(&agentEndpoint, "endpoint", "", "Gateway MCP endpoint URL (default: from config)")
	agentCmd.Flags().StringVar(&agentAPIKey, "api-key", "", "W&B API key to authenticate with (env: WANDB_API_KEY)")
	agentCmd.Flags().StringVar(&agentConfigPath, "config-path", "", "Custom configuration directory path")
	agentCmd.Flags().BoolVar(&agentVerbose, "verbose", false, "Enable verbose logging")
}
