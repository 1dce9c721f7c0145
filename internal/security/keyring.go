package security

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used for keyring entries.
const KeyringService = "ssh-session-mcp"

// KeyringStore provides OS keyring integration for SSH password storage.
// It uses the system keyring (macOS Keychain, Linux Secret Service,
// Windows Credential Manager).
type KeyringStore struct {
	enabled bool
	mu      sync.RWMutex
}

// NewKeyringStore creates a new keyring store.
// If the system keyring is not available, the store will be disabled.
func NewKeyringStore() *KeyringStore {
	ks := &KeyringStore{enabled: true}

	// Probe availability with a dummy entry.
	testKey := "__ssh_session_mcp_test__"
	if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
		slog.Debug("keyring not available, password fallback disabled",
			slog.String("error", err.Error()),
		)
		ks.enabled = false
		return ks
	}
	_ = keyring.Delete(KeyringService, testKey)

	slog.Debug("keyring storage enabled")
	return ks
}

// IsEnabled returns true if the keyring is available and enabled.
func (ks *KeyringStore) IsEnabled() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.enabled
}

// SetEnabled allows enabling/disabling keyring usage.
func (ks *KeyringStore) SetEnabled(enabled bool) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.enabled = enabled
}

// StorePassword stores an SSH password for user@host in the keyring.
func (ks *KeyringStore) StorePassword(host, user string, password []byte) error {
	if !ks.IsEnabled() {
		return fmt.Errorf("keyring not available")
	}

	encoded := base64.StdEncoding.EncodeToString(password)
	key := fmt.Sprintf("ssh:%s@%s", user, host)

	if err := keyring.Set(KeyringService, key, encoded); err != nil {
		return fmt.Errorf("store ssh password: %w", err)
	}

	slog.Debug("stored ssh password in keyring",
		slog.String("user", user),
		slog.String("host", host),
	)
	return nil
}

// GetPassword retrieves an SSH password for user@host from the keyring.
// A missing entry is not an error; it returns (nil, nil).
func (ks *KeyringStore) GetPassword(host, user string) ([]byte, error) {
	if !ks.IsEnabled() {
		return nil, fmt.Errorf("keyring not available")
	}

	key := fmt.Sprintf("ssh:%s@%s", user, host)
	encoded, err := keyring.Get(KeyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get ssh password: %w", err)
	}

	password, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode ssh password: %w", err)
	}
	return password, nil
}

// DeletePassword removes an SSH password for user@host from the keyring.
func (ks *KeyringStore) DeletePassword(host, user string) error {
	if !ks.IsEnabled() {
		return fmt.Errorf("keyring not available")
	}

	key := fmt.Sprintf("ssh:%s@%s", user, host)
	if err := keyring.Delete(KeyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return fmt.Errorf("delete ssh password: %w", err)
	}
	return nil
}
