// Package config handles configuration parsing for ssh-session-mcp.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default config file path:
// $XDG_CONFIG_HOME/ssh-session-mcp/config.yaml or ~/.config/ssh-session-mcp/config.yaml
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ssh-session-mcp", "config.yaml")
}

// Config represents the top-level configuration.
type Config struct {
	Hosts     []HostConfig    `yaml:"hosts"`
	SSH       SSHConfig       `yaml:"ssh"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Recording RecordingConfig `yaml:"recording"`
	Execution ExecutionConfig `yaml:"execution"`
}

// HostConfig defines a named SSH host alias usable in ssh_connect.
type HostConfig struct {
	Name          string `yaml:"name"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	KeyPath       string `yaml:"key_path"`
	PassphraseEnv string `yaml:"passphrase_env"` // env var containing key passphrase
}

// SSHConfig defines transport settings.
type SSHConfig struct {
	KnownHostsPath    string        `yaml:"known_hosts_path"`
	InsecureHostKey   bool          `yaml:"insecure_host_key"` // skip host key verification
	DialTimeout       time.Duration `yaml:"dial_timeout"`
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	CommandBlocklist []string `yaml:"command_blocklist"` // Regex patterns for blocked commands
	CommandAllowlist []string `yaml:"command_allowlist"` // If set, only these patterns allowed
	UseKeyring       bool     `yaml:"use_keyring"`       // Use OS keyring for password fallback
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // "debug", "info", "warn", "error"
	Sanitize bool   `yaml:"sanitize"` // sanitize sensitive data from logs
}

// RecordingConfig defines command audit log settings.
type RecordingConfig struct {
	Enabled bool   `yaml:"enabled"` // enable the command audit log
	Path    string `yaml:"path"`    // audit log file path
}

// ExecutionConfig defines command execution settings.
type ExecutionConfig struct {
	DefaultTimeoutMs int `yaml:"default_timeout_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SSH: SSHConfig{
			DialTimeout:       30 * time.Second,
			KeepaliveInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Sanitize: true,
		},
		Execution: ExecutionConfig{
			DefaultTimeoutMs: 30000,
		},
	}
}

// Load loads configuration from a YAML file.
// An optional FileSystem can be passed for testing; if omitted, the real OS is used.
func Load(path string, fsys ...ports.FileSystem) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	var data []byte
	var err error
	if len(fsys) > 0 && fsys[0] != nil {
		data, err = fsys[0].ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet; return defaults (add-host will create it).
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration and applies fallback defaults.
func (c *Config) Validate() error {
	if c.Execution.DefaultTimeoutMs <= 0 {
		c.Execution.DefaultTimeoutMs = 30000
	}
	for _, h := range c.Hosts {
		if h.Name == "" || h.Host == "" {
			return fmt.Errorf("host entries need both name and host")
		}
	}
	return nil
}

// LookupHost returns the host config with the given alias, or nil.
func (c *Config) LookupHost(name string) *HostConfig {
	for i := range c.Hosts {
		if c.Hosts[i].Name == name {
			return &c.Hosts[i]
		}
	}
	return nil
}

// AddHost adds a host alias to the configuration.
// Returns an error if a host with the same name already exists.
func (c *Config) AddHost(host HostConfig) error {
	for _, h := range c.Hosts {
		if h.Name == host.Name {
			return fmt.Errorf("host %q already exists", host.Name)
		}
	}
	c.Hosts = append(c.Hosts, host)
	return nil
}

// Save writes the configuration to a YAML file.
// An optional FileSystem can be passed for testing; if omitted, the real OS is used.
func Save(cfg *Config, path string, fsys ...ports.FileSystem) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if len(fsys) > 0 && fsys[0] != nil {
		return fsys[0].WriteFile(path, data, 0644)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
