package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/acolita/ssh-session-mcp/internal/config"
	"github.com/acolita/ssh-session-mcp/internal/recording"
	"github.com/acolita/ssh-session-mcp/internal/session"
	"github.com/acolita/ssh-session-mcp/internal/sshauth"
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the session lifecycle MCP tools with the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(sshConnectTool(), s.handleConnect)
	s.mcpServer.AddTool(sshExecuteTool(), s.handleExecute)
	s.mcpServer.AddTool(sshStatusTool(), s.handleStatus)
	s.mcpServer.AddTool(sshDisconnectTool(), s.handleDisconnect)
}

// Tool definitions

func sshConnectTool() mcp.Tool {
	return mcp.NewTool("ssh_connect",
		mcp.WithDescription("Connect to a remote host over SSH. Replaces any existing connection. "+
			"The host may be an address or a configured host alias."),
		mcp.WithString("host",
			mcp.Description("SSH hostname, IP address, or configured host alias (falls back to SSH_HOST)"),
		),
		mcp.WithNumber("port",
			mcp.Description("SSH port (default: 22)"),
		),
		mcp.WithString("username",
			mcp.Description("SSH username"),
		),
		mcp.WithString("password",
			mcp.Description("Password for password authentication"),
		),
		mcp.WithString("privateKey",
			mcp.Description("PEM-encoded private key material for key authentication"),
		),
		mcp.WithString("passphrase",
			mcp.Description("Passphrase for an encrypted private key"),
		),
		mcp.WithBoolean("savePassword",
			mcp.Description("Store the password in the OS keyring for future connects (default: false)"),
		),
	)
}

func sshExecuteTool() mcp.Tool {
	return mcp.NewTool("ssh_execute",
		mcp.WithDescription("Execute a command on the connected host and return stdout, stderr and exit code"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The command to execute"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Command timeout in milliseconds (default: 30000)"),
		),
		mcp.WithString("workingDirectory",
			mcp.Description("Directory to run the command in (letters, digits, /._- only)"),
		),
	)
}

func sshStatusTool() mcp.Tool {
	return mcp.NewTool("ssh_status",
		mcp.WithDescription("Report whether an SSH connection is active and to which host"),
	)
}

func sshDisconnectTool() mcp.Tool {
	return mcp.NewTool("ssh_disconnect",
		mcp.WithDescription("Close the active SSH connection, if any"),
	)
}

// Tool handlers

func (s *Server) handleConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host := mcp.ParseString(req, "host", "")
	port := mcp.ParseInt(req, "port", 0)
	username := mcp.ParseString(req, "username", "")
	password := mcp.ParseString(req, "password", "")
	privateKey := mcp.ParseString(req, "privateKey", "")
	passphrase := mcp.ParseString(req, "passphrase", "")
	savePassword := mcp.ParseBoolean(req, "savePassword", false)

	cfg := session.Config{
		Host:       host,
		Port:       port,
		User:       username,
		Password:   password,
		Passphrase: passphrase,
	}
	if privateKey != "" {
		cfg.PrivateKey = []byte(privateKey)
	}

	// No host argument: fall back to the SSH_* environment, the
	// environment-configured single-connection setup.
	if cfg.Host == "" {
		envCfg, ok := session.FromEnv()
		if !ok {
			return mcp.NewToolResultError("validation: host is required (or set SSH_HOST)"), nil
		}
		cfg = mergeConfig(envCfg, cfg)
	}

	// A configured host alias supplies address, user and key defaults.
	if alias := s.config.LookupHost(cfg.Host); alias != nil {
		if err := s.applyHostAlias(&cfg, alias); err != nil {
			return toolError(err), nil
		}
	}

	// Keyring fallback: resolve a stored password when no credential given.
	if cfg.Password == "" && len(cfg.PrivateKey) == 0 && s.keyringEnabled() {
		if stored, err := s.keyring.GetPassword(cfg.Host, cfg.User); err == nil && stored != nil {
			cfg.Password = string(stored)
			slog.Debug("using password from keyring",
				slog.String("host", cfg.Host),
				slog.String("user", cfg.User),
			)
		}
	}

	slog.Info("connecting",
		slog.String("host", cfg.Host),
		slog.String("user", cfg.User),
	)

	summary, err := s.sessions.Connect(cfg)
	if err != nil {
		return toolError(err), nil
	}

	if savePassword && password != "" && s.keyringEnabled() {
		if err := s.keyring.StorePassword(cfg.Host, cfg.User, []byte(password)); err != nil {
			slog.Warn("failed to store password in keyring",
				slog.String("error", err.Error()),
			)
		}
	}

	return jsonResult(summary)
}

// mergeConfig overlays explicit arguments on an environment-derived config.
func mergeConfig(base, override session.Config) session.Config {
	if override.User != "" {
		base.User = override.User
	}
	if override.Port > 0 {
		base.Port = override.Port
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	if len(override.PrivateKey) > 0 {
		base.PrivateKey = override.PrivateKey
	}
	if override.Passphrase != "" {
		base.Passphrase = override.Passphrase
	}
	return base
}

// applyHostAlias fills connection defaults from a configured host entry.
func (s *Server) applyHostAlias(cfg *session.Config, alias *config.HostConfig) error {
	cfg.Host = alias.Host
	if cfg.Port <= 0 && alias.Port > 0 {
		cfg.Port = alias.Port
	}
	if cfg.User == "" {
		cfg.User = alias.User
	}
	if len(cfg.PrivateKey) == 0 && cfg.Password == "" && alias.KeyPath != "" {
		key, err := sshauth.ReadKeyFile(alias.KeyPath)
		if err != nil {
			return fmt.Errorf("host alias %q: %w", alias.Name, err)
		}
		cfg.PrivateKey = key
		if cfg.Passphrase == "" && alias.PassphraseEnv != "" {
			cfg.Passphrase = os.Getenv(alias.PassphraseEnv)
		}
	}
	return nil
}

func (s *Server) keyringEnabled() bool {
	return s.config.Security.UseKeyring && s.keyring != nil && s.keyring.IsEnabled()
}

func (s *Server) handleExecute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command := mcp.ParseString(req, "command", "")
	timeoutMs := mcp.ParseInt(req, "timeout", 0)
	workingDir := mcp.ParseString(req, "workingDirectory", "")

	if allowed, reason := s.filter.IsAllowed(command); !allowed {
		return mcp.NewToolResultError("validation: " + reason), nil
	}

	// Resolve the configured default here so a hot-reloaded
	// execution.default_timeout_ms applies to the next execute.
	if timeoutMs <= 0 {
		timeoutMs = s.config.Execution.DefaultTimeoutMs
	}

	slog.Info("executing command",
		slog.String("command", command),
		slog.Int("timeout_ms", timeoutMs),
	)

	result, err := s.sessions.Execute(command, timeoutMs, workingDir)
	if err != nil {
		return toolError(err), nil
	}

	if s.audit != nil {
		if err := s.audit.Append(recording.Entry{
			Timestamp:   result.Timestamp,
			Host:        result.Host,
			User:        result.User,
			Command:     result.Command,
			ExitCode:    result.ExitCode,
			Success:     result.Success,
			StdoutBytes: len(result.Stdout),
			StderrBytes: len(result.Stderr),
		}); err != nil {
			slog.Warn("audit append failed", slog.String("error", err.Error()))
		}
	}

	return jsonResult(result)
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sessions.Status())
}

func (s *Server) handleDisconnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sessions.Disconnect())
}

// toolError converts a session error into a tool error with a
// machine-readable kind prefix.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", session.KindOf(err), err))
}

// jsonResult converts a value to a JSON tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
