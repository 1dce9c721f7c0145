package realssh

import (
	"fmt"
	"sync"
	"time"

	"github.com/acolita/ssh-session-mcp/internal/ports"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// conn wraps one live *ssh.Client and implements ports.Conn.
type conn struct {
	client *ssh.Client
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	sftpc  *sftp.Client
}

func newConn(client *ssh.Client, keepaliveInterval time.Duration) *conn {
	c := &conn{
		client: client,
		done:   make(chan struct{}),
	}

	// Wait returns when the remote side ends the connection (or we close it);
	// closing done delivers the unsolicited end event exactly once.
	go func() {
		c.client.Wait()
		close(c.done)
	}()

	go c.keepalive(keepaliveInterval)

	return c
}

// keepalive sends periodic keepalive requests to prevent connection timeout.
func (c *conn) keepalive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// A failed keepalive is detected by the next operation;
			// don't close anything here.
			_, _, _ = c.client.SendRequest("keepalive@openssh.com", true, nil)
		}
	}
}

// OpenExec opens a command-execution channel on the connection.
func (c *conn) OpenExec() (ports.ExecChannel, error) {
	sess, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &execChannel{sess: sess}, nil
}

// OpenSFTP returns the lazily initialized SFTP client.
func (c *conn) OpenSFTP() (ports.FileTransfer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connection closed")
	}
	if c.sftpc == nil {
		client, err := sftp.NewClient(c.client)
		if err != nil {
			return nil, fmt.Errorf("create sftp client: %w", err)
		}
		c.sftpc = client
	}
	return &fileTransfer{client: c.sftpc}, nil
}

// Close releases the SFTP subsystem and the underlying transport.
func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.sftpc != nil {
		c.sftpc.Close()
		c.sftpc = nil
	}

	return c.client.Close()
}

// Done returns the end-event channel.
func (c *conn) Done() <-chan struct{} {
	return c.done
}

// Ensure conn implements ports.Conn.
var _ ports.Conn = (*conn)(nil)
