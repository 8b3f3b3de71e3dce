package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"tracegate/internal/config"
	"tracegate/internal/gateway"
	"tracegate/pkg/logging"
)

var (
	serveConfigPath string
	serveHost       string
	servePort       int
	serveTransport  string
	serveDebug      bool
)

// serveCmd starts the gateway. This is the main command of tracegate: it
// assembles the MCP server with the W&B toolset, puts the session registry
// and auth middleware in front, and serves over streamable HTTP or stdio.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracegate MCP gateway",
	Long: `Starts the tracegate gateway and serves the W&B toolset over MCP.

Transports:

1. streamable-http (default):
   - Multi-tenant mode. Every request under /mcp must carry a W&B API key
     as a bearer token; each key gets its own isolated session.
   - /health, /stats and the OAuth protected-resource metadata document
     are served unauthenticated.

2. stdio:
   - Single-tenant mode for local use (e.g. an MCP entry in an editor
     config). The operator API key, or WANDB_API_KEY from the
     environment, is used for all upstream calls.

Configuration:
  tracegate loads config.yaml from the user config directory
  (~/.config/tracegate) or from --config-path. Environment variables
  override file values. While serving, the config directory is watched
  and hot-reloadable settings (session TTL, log level) are applied live.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	configDir := serveConfigPath
	if configDir == "" {
		if dir, err := config.GetDefaultConfigPath(); err == nil {
			configDir = dir
		}
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags beat file and environment.
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("transport") {
		cfg.Transport = config.Transport(serveTransport)
	}
	if serveDebug {
		cfg.LogLevel = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The stdio transport owns stdout for the MCP protocol stream, so logs
	// always go to stderr.
	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	server, err := gateway.New(&cfg, configDir, rootCmd.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize gateway: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tell systemd we are up when running as a Type=notify unit. Outside of
	// systemd this is a no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Serve", "Could not notify service manager: %v", err)
	}
	defer daemon.SdNotify(false, daemon.SdNotifyStopping)

	return server.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Custom configuration directory path")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind the HTTP transport to")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port for the HTTP transport")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "Transport to use (streamable-http, stdio)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
