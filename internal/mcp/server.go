// Package mcp implements the MCP protocol server for ssh-session-mcp.
package mcp

import (
	"log/slog"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/adapters/realssh"
	"github.com/acolita/ssh-session-mcp/internal/config"
	"github.com/acolita/ssh-session-mcp/internal/recording"
	"github.com/acolita/ssh-session-mcp/internal/security"
	"github.com/acolita/ssh-session-mcp/internal/session"
	"github.com/acolita/ssh-session-mcp/internal/sshauth"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/crypto/ssh"
)

// Server wraps the MCP server implementation.
type Server struct {
	mcpServer *server.MCPServer
	sessions  sessionManager
	filter    *security.CommandFilter
	keyring   *security.KeyringStore
	audit     *recording.AuditLog
	config    *config.Config
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithSessionManager sets the session manager used by the handlers.
func WithSessionManager(sm sessionManager) ServerOption {
	return func(s *Server) { s.sessions = sm }
}

// WithKeyring sets the keyring store used for password fallback.
func WithKeyring(ks *security.KeyringStore) ServerOption {
	return func(s *Server) { s.keyring = ks }
}

// WithAuditLog sets the command audit log.
func WithAuditLog(a *recording.AuditLog) ServerOption {
	return func(s *Server) { s.audit = a }
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	mcpServer := server.NewMCPServer(
		"ssh-session-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	filter, err := security.NewCommandFilter(
		cfg.Security.CommandBlocklist,
		cfg.Security.CommandAllowlist,
	)
	if err != nil {
		slog.Warn("failed to initialize command filter, using permissive mode",
			slog.String("error", err.Error()),
		)
		filter, _ = security.NewCommandFilter(nil, nil)
	}

	s := &Server{
		mcpServer: mcpServer,
		filter:    filter,
		config:    cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sessions == nil {
		s.sessions = session.NewManager(
			session.WithDialer(realssh.NewDialer(realssh.Options{
				HostKeyCallback:   hostKeyCallback(cfg),
				DialTimeout:       cfg.SSH.DialTimeout,
				KeepaliveInterval: cfg.SSH.KeepaliveInterval,
			})),
			session.WithDefaultTimeout(time.Duration(cfg.Execution.DefaultTimeoutMs)*time.Millisecond),
		)
	}

	s.registerTools()
	s.registerFileTransferTools()

	return s
}

// hostKeyCallback builds the host key policy from config.
func hostKeyCallback(cfg *config.Config) ssh.HostKeyCallback {
	if cfg.SSH.InsecureHostKey {
		return sshauth.InsecureHostKeyCallback()
	}
	callback, err := sshauth.BuildHostKeyCallback(cfg.SSH.KnownHostsPath)
	if err != nil {
		slog.Warn("known_hosts unavailable, host keys will not be verified",
			slog.String("error", err.Error()),
		)
		return sshauth.InsecureHostKeyCallback()
	}
	return callback
}

// Run starts the MCP server on stdio transport.
func (s *Server) Run() error {
	slog.Info("starting MCP server on stdio transport")
	return server.ServeStdio(s.mcpServer)
}

// UpdateConfig applies a new configuration at runtime. The command filter,
// audit recording, and execution defaults are hot-reloaded; transport
// settings apply to the next connect.
func (s *Server) UpdateConfig(cfg *config.Config) {
	slog.Debug("applying config update")

	newFilter, err := security.NewCommandFilter(
		cfg.Security.CommandBlocklist,
		cfg.Security.CommandAllowlist,
	)
	if err != nil {
		slog.Warn("failed to update command filter, keeping previous",
			slog.String("error", err.Error()),
		)
	} else {
		s.filter = newFilter
		slog.Debug("command filter updated")
	}

	if s.audit != nil {
		if err := s.audit.Reconfigure(cfg.Recording.Path, cfg.Recording.Enabled); err != nil {
			slog.Warn("failed to reconfigure audit log",
				slog.String("error", err.Error()),
			)
		}
	}

	s.config = cfg

	slog.Info("configuration hot-reloaded successfully")
}
