// Package realssh implements the SSH transport ports on golang.org/x/crypto/ssh.
package realssh

import (
	"fmt"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/acolita/ssh-session-mcp/internal/sshauth"
	"golang.org/x/crypto/ssh"
)

// Options configures transport behavior shared by all connections.
type Options struct {
	HostKeyCallback   ssh.HostKeyCallback
	DialTimeout       time.Duration
	KeepaliveInterval time.Duration
}

// Dialer implements ports.Dialer using ssh.Dial.
type Dialer struct {
	opts Options
}

// NewDialer creates a Dialer with the given options.
func NewDialer(opts Options) *Dialer {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 30 * time.Second
	}
	if opts.KeepaliveInterval == 0 {
		opts.KeepaliveInterval = 30 * time.Second
	}
	if opts.HostKeyCallback == nil {
		opts.HostKeyCallback = sshauth.InsecureHostKeyCallback()
	}
	return &Dialer{opts: opts}
}

// Dial establishes an SSH connection from raw dial config.
func (d *Dialer) Dial(cfg ports.DialConfig) (ports.Conn, error) {
	methods, err := sshauth.BuildAuthMethods(sshauth.Credentials{
		Password:   cfg.Password,
		PrivateKey: cfg.PrivateKey,
		Passphrase: cfg.Passphrase,
	})
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            methods,
		HostKeyCallback: d.opts.HostKeyCallback,
		Timeout:         d.opts.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}

	return newConn(client, d.opts.KeepaliveInterval), nil
}

// Ensure Dialer implements ports.Dialer.
var _ ports.Dialer = (*Dialer)(nil)
