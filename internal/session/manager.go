// Package session manages the single SSH session lifecycle for ssh-session-mcp.
package session

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/adapters/realclock"
	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/acolita/ssh-session-mcp/internal/security"
)

// workingDirPattern is the restrictive path-safe pattern for execute's
// workingDirectory argument. Anything outside it is rejected before the
// directory is ever interpolated into a shell command.
var workingDirPattern = regexp.MustCompile(`^[a-zA-Z0-9/._-]+$`)

// Manager owns the single live SSH connection and its lifecycle state.
//
// All operations are serialized behind one mutex covering the whole state:
// this is a single-tenant session, not a multiplexer, and connect,
// disconnect, status and execute are not designed to interleave.
type Manager struct {
	mu sync.Mutex

	dialer ports.Dialer
	clock  ports.Clock

	// conn and config are both nil (disconnected) or both set (connected).
	conn   ports.Conn
	config *Config

	// gen increments on every successful connect so a stale end-event
	// watcher never tears down a replacement connection.
	gen uint64

	defaultTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer sets the transport dialer.
func WithDialer(d ports.Dialer) ManagerOption {
	return func(m *Manager) { m.dialer = d }
}

// WithClock sets the clock used for timeouts and timestamps.
func WithClock(c ports.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithDefaultTimeout sets the execution timeout used when a call passes none.
func WithDefaultTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.defaultTimeout = d }
}

// NewManager creates a session manager. A dialer must be supplied via
// WithDialer before Connect is called.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		clock:          realclock.New(),
		defaultTimeout: DefaultTimeoutMs * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect establishes a new connection from cfg, replacing any live one.
//
// A live handle is torn down unconditionally before the new dial, so on
// failure the state is disconnected even if a prior connection existed.
func (m *Manager) Connect(cfg Config) (*ConnectSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()

	conn, err := m.dialer.Dial(ports.DialConfig{
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.User,
		Password:   cfg.Password,
		PrivateKey: cfg.PrivateKey,
		Passphrase: cfg.Passphrase,
	})
	if err != nil {
		return nil, connectionError("ssh connect failed", err)
	}

	m.conn = conn
	m.config = &cfg
	m.gen++

	go m.watchEnd(conn, m.gen)

	slog.Info("ssh session established",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("user", cfg.User),
		slog.String("auth_method", cfg.AuthMethod()),
	)

	return &ConnectSummary{
		Status:     "connected",
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.User,
		AuthMethod: cfg.AuthMethod(),
		Timestamp:  m.clock.Now(),
	}, nil
}

// Disconnect tears down the current connection. Idempotent: a second call
// reports "no_connection" rather than an error.
func (m *Manager) Disconnect() *DisconnectSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return &DisconnectSummary{
			Status:    "no_connection",
			Message:   "no active SSH connection",
			Timestamp: m.clock.Now(),
		}
	}

	host := m.config.Host
	m.teardownLocked()

	slog.Info("ssh session closed", slog.String("host", host))

	return &DisconnectSummary{
		Status:    "disconnected",
		Timestamp: m.clock.Now(),
	}
}

// Status reports the current session state. Never fails, no side effects.
func (m *Manager) Status() *StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &StatusSummary{Timestamp: m.clock.Now()}
	if m.conn != nil {
		s.Connected = true
		s.Host = m.config.Host
		s.Port = m.config.Port
		s.User = m.config.User
		s.AuthMethod = m.config.AuthMethod()
	}
	return s
}

// Execute runs one command on the current connection.
//
// The state lock is held for the whole run: operations on the session are
// serialized, and a status call during an in-flight execute observes the
// connected state as last known.
func (m *Manager) Execute(command string, timeoutMs int, workingDir string) (*ExecutionResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, validationErrorf("command must be a non-empty string")
	}
	if workingDir != "" && !workingDirPattern.MatchString(workingDir) {
		return nil, validationErrorf("workingDirectory contains unsafe characters (allowed: letters, digits, /._-)")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil, validationErrorf("not connected: call ssh_connect first")
	}

	timeout := m.defaultTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	result, err := runCommand(m.conn, command, workingDir, timeout, m.clock)
	if err != nil {
		if KindOf(err) == KindConnection {
			// The transport failed under us; reconcile the state so the
			// next status call reflects reality.
			m.teardownLocked()
		}
		return nil, err
	}

	result.Host = m.config.Host
	result.Port = m.config.Port
	result.User = m.config.User
	return result, nil
}

// FileTransfer returns the file-transfer client of the current connection.
func (m *Manager) FileTransfer() (ports.FileTransfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil, validationErrorf("not connected: call ssh_connect first")
	}

	ft, err := m.conn.OpenSFTP()
	if err != nil {
		return nil, connectionError("open sftp", err)
	}
	return ft, nil
}

// watchEnd waits for the connection's unsolicited end event and reconciles
// the state, unless the handle has already been replaced or torn down.
func (m *Manager) watchEnd(conn ports.Conn, gen uint64) {
	<-conn.Done()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen || m.conn == nil {
		return
	}

	host := m.config.Host
	m.teardownLocked()

	slog.Info("remote side ended the ssh session", slog.String("host", host))
}

// teardownLocked releases the current handle and clears the state.
// Must be called with m.mu held. Safe when already disconnected.
func (m *Manager) teardownLocked() {
	if m.conn == nil {
		return
	}

	if err := m.conn.Close(); err != nil {
		slog.Warn("closing ssh connection", slog.String("error", err.Error()))
	}
	m.conn = nil

	security.WipeBytes(m.config.PrivateKey)
	m.config = nil
}
