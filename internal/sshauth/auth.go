// Package sshauth builds SSH authentication methods and host key callbacks.
package sshauth

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Credentials holds raw credential material for one connection attempt.
type Credentials struct {
	Password   string
	PrivateKey []byte // PEM-encoded private key material
	Passphrase string // passphrase for an encrypted private key
}

// BuildAuthMethods constructs SSH auth methods from raw credentials.
// Private key material takes precedence over a password when both are set,
// but a password is still offered as a fallback method.
func BuildAuthMethods(creds Credentials) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if len(creds.PrivateKey) > 0 {
		keyAuth, err := privateKeyAuth(creds.PrivateKey, creds.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("private key auth: %w", err)
		}
		methods = append(methods, keyAuth)
	}

	if creds.Password != "" {
		methods = append(methods, ssh.Password(creds.Password))
		methods = append(methods, keyboardInteractiveAuth(creds.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no authentication methods available")
	}

	return methods, nil
}

// privateKeyAuth returns a public-key auth method from PEM key material.
func privateKeyAuth(keyData []byte, passphrase string) (ssh.AuthMethod, error) {
	var signer ssh.Signer
	var err error
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// keyboardInteractiveAuth answers every challenge with the password.
// Some servers only offer keyboard-interactive even for plain passwords.
func keyboardInteractiveAuth(password string) ssh.AuthMethod {
	return ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}
		return answers, nil
	})
}

// BuildHostKeyCallback creates a host key callback from known_hosts.
// If the file does not exist, the callback accepts any host key.
func BuildHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		knownHostsPath = "~/.ssh/known_hosts"
	}

	expanded := expandPath(knownHostsPath)

	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return nil
		}, nil
	}

	callback, err := knownhosts.New(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse known_hosts: %w", err)
	}

	return callback, nil
}

// InsecureHostKeyCallback returns a callback that accepts any host key.
// Use only for testing or when host key verification is explicitly disabled.
func InsecureHostKeyCallback() ssh.HostKeyCallback {
	return ssh.InsecureIgnoreHostKey()
}

// ReadKeyFile loads private key material from a path, expanding a leading ~.
func ReadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
