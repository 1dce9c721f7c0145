package session

import (
	"os"
	"strconv"
)

// DefaultPort is the SSH port used when none is given.
const DefaultPort = 22

// Config holds the immutable per-connection parameters. It is constructed
// fresh on each successful connect and discarded on disconnect.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey []byte // PEM-encoded private key material
	Passphrase string // passphrase for an encrypted private key
}

// Validate checks the connect preconditions: host and user non-empty,
// at least one credential present. It also applies the port default.
func (c *Config) Validate() error {
	if c.Host == "" {
		return validationErrorf("host is required")
	}
	if c.User == "" {
		return validationErrorf("username is required")
	}
	if c.Password == "" && len(c.PrivateKey) == 0 {
		return validationErrorf("either password or privateKey is required")
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	return nil
}

// AuthMethod reports the inferred auth method: "key" when private key
// material is present (it takes precedence even if a password was also
// supplied), else "password".
func (c *Config) AuthMethod() string {
	if len(c.PrivateKey) > 0 {
		return "key"
	}
	return "password"
}

// FromEnv populates a Config from SSH_* environment variables. The second
// return value reports whether SSH_HOST was set at all. This is the
// environment-driven way to fill in connection parameters; the result still
// goes through the same Validate and Connect paths as explicit arguments.
func FromEnv() (Config, bool) {
	host := os.Getenv("SSH_HOST")
	if host == "" {
		return Config{}, false
	}

	cfg := Config{
		Host:       host,
		Port:       DefaultPort,
		User:       os.Getenv("SSH_USER"),
		Password:   os.Getenv("SSH_PASSWORD"),
		Passphrase: os.Getenv("SSH_PASSPHRASE"),
	}
	if key := os.Getenv("SSH_PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = []byte(key)
	}
	if p := os.Getenv("SSH_PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			cfg.Port = port
		}
	}
	return cfg, true
}
