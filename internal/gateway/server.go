package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"tracegate/internal/auth"
	"tracegate/internal/config"
	"tracegate/internal/secrets"
	"tracegate/internal/tools"
	"tracegate/internal/wandb"
	"tracegate/pkg/logging"
)

// serverName identifies the gateway in the MCP initialize handshake.
const serverName = "tracegate"

// MCPPath is the protected endpoint namespace. Everything under it requires
// a bearer credential; everything outside passes through.
const MCPPath = "/mcp"

const shutdownTimeout = 5 * time.Second

// Server is the assembled gateway: the MCP server with the W&B toolset,
// the session registry, the auth middleware, and the transport in front.
type Server struct {
	cfg       *config.Config
	configDir string
	version   string

	registry   *auth.Registry
	middleware *auth.Middleware
	mcpServer  *server.MCPServer
	httpServer *http.Server
}

// New builds a gateway server from configuration. configDir, when
// non-empty, is watched for config.yaml changes and hot-reloadable settings
// are applied live. Keyed hashing resolves its HMAC key here, once; a
// missing or empty key fails construction so a misconfigured process never
// serves traffic.
func New(cfg *config.Config, configDir, version string) (*Server, error) {
	logging.SetSessionIDPrefixLength(cfg.Auth.SessionIDPrefixLength)

	hasher, err := buildHasher(cfg)
	if err != nil {
		return nil, err
	}

	registry := auth.NewRegistry(hasher,
		time.Duration(cfg.Auth.SessionTTLSeconds)*time.Second,
		cfg.Auth.MaxSessionsPerKey)

	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)
	client := wandb.NewClient(cfg.WandB, cfg.Wandbot)
	tools.Register(mcpServer, client)

	middleware := auth.NewMiddleware(registry, MCPPath)
	middleware.SetMetadataURL(cfg.ExternalURL() + auth.ProtectedResourceMetadataPath)
	if cfg.Auth.Disabled {
		middleware.DisableAuth(cfg.Auth.OperatorAPIKey)
	}

	return &Server{
		cfg:        cfg,
		configDir:  configDir,
		version:    version,
		registry:   registry,
		middleware: middleware,
		mcpServer:  mcpServer,
	}, nil
}

func buildHasher(cfg *config.Config) (*auth.Hasher, error) {
	if !cfg.Auth.HMACSessions {
		return auth.NewHasher(), nil
	}
	resolver, err := secrets.NewResolver(cfg.Secrets)
	if err != nil {
		return nil, fmt.Errorf("configuring secrets resolver: %w", err)
	}
	key, err := resolver.FetchSecret(cfg.Auth.HMACSecretID)
	if err != nil {
		return nil, fmt.Errorf("fetching HMAC key %q: %w", cfg.Auth.HMACSecretID, err)
	}
	return auth.NewKeyedHasher(key)
}

// Registry exposes the session registry for stats and tests.
func (s *Server) Registry() *auth.Registry {
	return s.registry
}

// Run serves until the context is cancelled. The stdio transport serves a
// single local operator; the streamable HTTP transport serves
// authenticated multi-tenant traffic.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		return s.runStdio(ctx)
	default:
		return s.runHTTP(ctx)
	}
}

// runStdio serves MCP over stdin/stdout. There is exactly one caller, the
// local operator, so their credential is bound for the whole connection and
// no session registry is involved.
func (s *Server) runStdio(ctx context.Context) error {
	operatorKey := s.cfg.Auth.OperatorAPIKey
	if operatorKey == "" {
		operatorKey = os.Getenv(wandb.EnvAPIKey)
	}
	if operatorKey != "" {
		ctx = auth.WithAPIKey(ctx, operatorKey)
	}

	logging.Info("Gateway", "Serving MCP over stdio")
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// buildHandler assembles the HTTP surface: open health, stats and
// discovery endpoints, and the credential-guarded MCP endpoint.
func (s *Server) buildHandler() http.Handler {
	// Stateless mode: the auth middleware owns the session ID header, so
	// the MCP layer must not mint competing session IDs of its own.
	streamable := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithStateLess(true),
	)

	mux := http.NewServeMux()
	mux.Handle("/health", s.healthHandler())
	mux.Handle("/stats", s.statsHandler())
	mux.Handle(auth.ProtectedResourceMetadataPath, auth.MetadataHandler(
		s.cfg.ExternalURL()+MCPPath, "https://wandb.ai/authorize"))
	mux.Handle(MCPPath, streamable)
	mux.Handle(MCPPath+"/", streamable)

	return s.middleware.Wrap(mux)
}

func (s *Server) runHTTP(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.registry.StartReaper()
	defer s.registry.StopReaper()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logging.Info("Gateway", "Serving MCP over streamable HTTP on %s%s", addr, MCPPath)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Gateway", err, "Error shutting down HTTP server")
		}
		return nil
	})

	if s.configDir != "" {
		watcher := config.NewWatcher(s.configDir, s.applyReload)
		if err := watcher.Start(groupCtx); err != nil {
			logging.Warn("Gateway", "Configuration watching disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	return group.Wait()
}

// applyReload applies the hot-reloadable subset of configuration: session
// TTL, log level and session ID display length. Transport, addresses and
// hashing mode require a restart.
func (s *Server) applyReload(cfg config.Config) {
	s.registry.SetTTL(time.Duration(cfg.Auth.SessionTTLSeconds) * time.Second)
	logging.SetSessionIDPrefixLength(cfg.Auth.SessionIDPrefixLength)
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.Info("Gateway", "Applied reloaded configuration")
}

func (s *Server) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": s.version,
		})
	})
}

// statsHandler exposes the session registry aggregates for monitoring. The
// payload contains only counters, never identifiers.
func (s *Server) statsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.registry.Stats()); err != nil {
			logging.Error("Gateway", err, "Failed to write stats")
		}
	})
}
