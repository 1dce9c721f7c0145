package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/config"
	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/acolita/ssh-session-mcp/internal/recording"
	"github.com/acolita/ssh-session-mcp/internal/security"
	"github.com/acolita/ssh-session-mcp/internal/session"
	"github.com/acolita/ssh-session-mcp/internal/testing/fakes/fakefs"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeSessions is a scriptable sessionManager for handler tests.
type fakeSessions struct {
	connectCfg     *session.Config
	connectSummary *session.ConnectSummary
	connectErr     error

	executeCommand    string
	executeTimeoutMs  int
	executeWorkingDir string
	executeResult     *session.ExecutionResult
	executeErr        error

	status     *session.StatusSummary
	disconnect *session.DisconnectSummary

	ft    ports.FileTransfer
	ftErr error
}

func (f *fakeSessions) Connect(cfg session.Config) (*session.ConnectSummary, error) {
	f.connectCfg = &cfg
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	if f.connectSummary != nil {
		return f.connectSummary, nil
	}
	return &session.ConnectSummary{
		Status:     "connected",
		Host:       cfg.Host,
		Port:       cfg.Port,
		User:       cfg.User,
		AuthMethod: cfg.AuthMethod(),
	}, nil
}

func (f *fakeSessions) Disconnect() *session.DisconnectSummary {
	if f.disconnect != nil {
		return f.disconnect
	}
	return &session.DisconnectSummary{Status: "disconnected"}
}

func (f *fakeSessions) Status() *session.StatusSummary {
	if f.status != nil {
		return f.status
	}
	return &session.StatusSummary{}
}

func (f *fakeSessions) Execute(command string, timeoutMs int, workingDir string) (*session.ExecutionResult, error) {
	f.executeCommand = command
	f.executeTimeoutMs = timeoutMs
	f.executeWorkingDir = workingDir
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	if f.executeResult != nil {
		return f.executeResult, nil
	}
	code := 0
	return &session.ExecutionResult{Command: command, ExitCode: &code, Success: true}, nil
}

func (f *fakeSessions) FileTransfer() (ports.FileTransfer, error) {
	if f.ftErr != nil {
		return nil, f.ftErr
	}
	return f.ft, nil
}

var _ sessionManager = (*fakeSessions)(nil)

func newTestServer(t *testing.T, cfg *config.Config, fs *fakeSessions) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return NewServer(cfg, WithSessionManager(fs))
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("tool result content is %T, want text", res.Content[0])
	}
	return tc.Text
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return out
}

func TestHandleConnect(t *testing.T) {
	fs := &fakeSessions{}
	s := newTestServer(t, nil, fs)

	res, err := s.handleConnect(context.Background(), makeRequest(map[string]any{
		"host":     "example.com",
		"port":     2222,
		"username": "deploy",
		"password": "pw",
	}))
	if err != nil {
		t.Fatalf("handleConnect() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleConnect() tool error: %s", resultText(t, res))
	}

	if fs.connectCfg == nil {
		t.Fatal("Connect was not called")
	}
	if fs.connectCfg.Host != "example.com" || fs.connectCfg.Port != 2222 {
		t.Errorf("connect config = %+v", fs.connectCfg)
	}
	if fs.connectCfg.User != "deploy" || fs.connectCfg.Password != "pw" {
		t.Errorf("connect credentials = %q/%q", fs.connectCfg.User, fs.connectCfg.Password)
	}

	out := resultJSON(t, res)
	if out["status"] != "connected" {
		t.Errorf("status = %v", out["status"])
	}
	if out["authMethod"] != "password" {
		t.Errorf("authMethod = %v", out["authMethod"])
	}
}

func TestHandleConnect_MissingHost(t *testing.T) {
	t.Setenv("SSH_HOST", "")

	fs := &fakeSessions{}
	s := newTestServer(t, nil, fs)

	res, err := s.handleConnect(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleConnect() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("handleConnect() should return a tool error without a host")
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "validation:") || !strings.Contains(text, "host is required") {
		t.Errorf("error text = %q", text)
	}
	if fs.connectCfg != nil {
		t.Error("Connect must not be called without a host")
	}
}

func TestHandleConnect_EnvFallback(t *testing.T) {
	t.Setenv("SSH_HOST", "env.example.com")
	t.Setenv("SSH_USER", "envuser")
	t.Setenv("SSH_PASSWORD", "envpw")

	fs := &fakeSessions{}
	s := newTestServer(t, nil, fs)

	res, err := s.handleConnect(context.Background(), makeRequest(map[string]any{
		"username": "override",
	}))
	if err != nil {
		t.Fatalf("handleConnect() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleConnect() tool error: %s", resultText(t, res))
	}

	if fs.connectCfg.Host != "env.example.com" {
		t.Errorf("Host = %q", fs.connectCfg.Host)
	}
	if fs.connectCfg.User != "override" {
		t.Errorf("User = %q, explicit argument should win over the environment", fs.connectCfg.User)
	}
	if fs.connectCfg.Password != "envpw" {
		t.Errorf("Password = %q", fs.connectCfg.Password)
	}
}

func TestHandleConnect_HostAlias(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Hosts = []config.HostConfig{
		{Name: "web1", Host: "web1.internal.example.com", Port: 2222, User: "deploy"},
	}

	fs := &fakeSessions{}
	s := newTestServer(t, cfg, fs)

	res, err := s.handleConnect(context.Background(), makeRequest(map[string]any{
		"host":     "web1",
		"password": "pw",
	}))
	if err != nil {
		t.Fatalf("handleConnect() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleConnect() tool error: %s", resultText(t, res))
	}

	if fs.connectCfg.Host != "web1.internal.example.com" {
		t.Errorf("Host = %q, alias should resolve", fs.connectCfg.Host)
	}
	if fs.connectCfg.Port != 2222 || fs.connectCfg.User != "deploy" {
		t.Errorf("alias defaults not applied: %+v", fs.connectCfg)
	}
}

func TestHandleConnect_ConnectError(t *testing.T) {
	fs := &fakeSessions{connectErr: &session.Error{Kind: session.KindConnection, Message: "ssh connect failed"}}
	s := newTestServer(t, nil, fs)

	res, err := s.handleConnect(context.Background(), makeRequest(map[string]any{
		"host":     "example.com",
		"username": "deploy",
		"password": "pw",
	}))
	if err != nil {
		t.Fatalf("handleConnect() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("handleConnect() should surface the connect failure")
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "connection:") {
		t.Errorf("error text = %q, want connection kind prefix", text)
	}
}

func TestHandleExecute(t *testing.T) {
	code := 0
	fs := &fakeSessions{
		executeResult: &session.ExecutionResult{
			Host:      "example.com",
			User:      "deploy",
			Command:   `cd "/tmp" && ls`,
			ExitCode:  &code,
			Stdout:    "file.txt\n",
			Success:   true,
			Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		},
	}
	s := newTestServer(t, nil, fs)

	res, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command":          "ls",
		"timeout":          5000,
		"workingDirectory": "/tmp",
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleExecute() tool error: %s", resultText(t, res))
	}

	if fs.executeCommand != "ls" || fs.executeTimeoutMs != 5000 || fs.executeWorkingDir != "/tmp" {
		t.Errorf("execute args = %q/%d/%q", fs.executeCommand, fs.executeTimeoutMs, fs.executeWorkingDir)
	}

	out := resultJSON(t, res)
	if out["success"] != true {
		t.Errorf("success = %v", out["success"])
	}
	if out["stdout"] != "file.txt\n" {
		t.Errorf("stdout = %v", out["stdout"])
	}
}

func TestHandleExecute_ConfiguredDefaultTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Execution.DefaultTimeoutMs = 5000

	fs := &fakeSessions{}
	s := newTestServer(t, cfg, fs)

	if _, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "uptime",
	})); err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if fs.executeTimeoutMs != 5000 {
		t.Errorf("timeout = %d, want configured default 5000", fs.executeTimeoutMs)
	}

	// An explicit timeout argument wins over the configured default.
	if _, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "uptime",
		"timeout": 1500,
	})); err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if fs.executeTimeoutMs != 1500 {
		t.Errorf("timeout = %d, want explicit 1500", fs.executeTimeoutMs)
	}

	// A hot-reloaded default applies to the next execute.
	updated := config.DefaultConfig()
	updated.Execution.DefaultTimeoutMs = 9000
	s.UpdateConfig(updated)

	if _, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "uptime",
	})); err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if fs.executeTimeoutMs != 9000 {
		t.Errorf("timeout = %d, want reloaded default 9000", fs.executeTimeoutMs)
	}
}

func TestUpdateConfig_ReconfiguresAuditLog(t *testing.T) {
	code := 0
	fs := &fakeSessions{
		executeResult: &session.ExecutionResult{
			Host:     "example.com",
			User:     "deploy",
			Command:  "uptime",
			ExitCode: &code,
			Success:  true,
		},
	}

	auditFS := fakefs.New()
	audit := recording.NewAuditLog("/log/old.jsonl", true, auditFS)
	s := NewServer(config.DefaultConfig(), WithSessionManager(fs), WithAuditLog(audit))

	updated := config.DefaultConfig()
	updated.Recording.Enabled = true
	updated.Recording.Path = "/log/new.jsonl"
	s.UpdateConfig(updated)

	if _, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "uptime",
	})); err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}

	if _, err := auditFS.ReadFile("/log/new.jsonl"); err != nil {
		t.Errorf("entry should land at the reloaded path: %v", err)
	}
	if _, err := auditFS.ReadFile("/log/old.jsonl"); err == nil {
		t.Error("old audit path should not be written after reload")
	}
}

func TestHandleExecute_BlockedCommand(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Security.CommandBlocklist = security.DefaultBlocklist()

	fs := &fakeSessions{}
	s := newTestServer(t, cfg, fs)

	res, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "rm -rf /",
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("handleExecute() should block the command")
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "validation:") || !strings.Contains(text, "blocked") {
		t.Errorf("error text = %q", text)
	}
	if fs.executeCommand != "" {
		t.Error("blocked command must not reach the session manager")
	}
}

func TestHandleExecute_AppendsAuditEntry(t *testing.T) {
	code := 0
	fs := &fakeSessions{
		executeResult: &session.ExecutionResult{
			Host:     "example.com",
			User:     "deploy",
			Command:  "uptime",
			ExitCode: &code,
			Stdout:   "up 3 days",
			Success:  true,
		},
	}

	auditFS := fakefs.New()
	audit := recording.NewAuditLog("/log/audit.jsonl", true, auditFS)
	s := NewServer(config.DefaultConfig(), WithSessionManager(fs), WithAuditLog(audit))

	if _, err := s.handleExecute(context.Background(), makeRequest(map[string]any{
		"command": "uptime",
	})); err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}

	data, err := auditFS.ReadFile("/log/audit.jsonl")
	if err != nil {
		t.Fatalf("audit log not written: %v", err)
	}
	var entry recording.Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	if entry.Command != "uptime" || !entry.Success || entry.StdoutBytes != len("up 3 days") {
		t.Errorf("audit entry = %+v", entry)
	}
}

func TestHandleStatus(t *testing.T) {
	fs := &fakeSessions{
		status: &session.StatusSummary{Connected: true, Host: "example.com", Port: 22, User: "deploy", AuthMethod: "key"},
	}
	s := newTestServer(t, nil, fs)

	res, err := s.handleStatus(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handleStatus() error = %v", err)
	}

	out := resultJSON(t, res)
	if out["connected"] != true || out["host"] != "example.com" || out["authMethod"] != "key" {
		t.Errorf("status = %v", out)
	}
}

func TestHandleDisconnect(t *testing.T) {
	fs := &fakeSessions{
		disconnect: &session.DisconnectSummary{Status: "no_connection", Message: "no active SSH connection"},
	}
	s := newTestServer(t, nil, fs)

	res, err := s.handleDisconnect(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handleDisconnect() error = %v", err)
	}

	out := resultJSON(t, res)
	if out["status"] != "no_connection" {
		t.Errorf("status = %v", out["status"])
	}
	if out["message"] != "no active SSH connection" {
		t.Errorf("message = %v", out["message"])
	}
}
