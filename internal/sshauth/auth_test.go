package sshauth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// testKeyPEM generates a fresh ed25519 private key in OpenSSH PEM format.
func testKeyPEM(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("MarshalPrivateKey() error = %v", err)
	}
	return pem.EncodeToMemory(block)
}

func TestBuildAuthMethods_PasswordOnly(t *testing.T) {
	methods, err := BuildAuthMethods(Credentials{Password: "pw"})
	if err != nil {
		t.Fatalf("BuildAuthMethods() error = %v", err)
	}
	// Password plus keyboard-interactive fallback.
	if len(methods) != 2 {
		t.Errorf("len(methods) = %d, want 2", len(methods))
	}
}

func TestBuildAuthMethods_KeyOnly(t *testing.T) {
	methods, err := BuildAuthMethods(Credentials{PrivateKey: testKeyPEM(t)})
	if err != nil {
		t.Fatalf("BuildAuthMethods() error = %v", err)
	}
	if len(methods) != 1 {
		t.Errorf("len(methods) = %d, want 1", len(methods))
	}
}

func TestBuildAuthMethods_KeyAndPassword(t *testing.T) {
	methods, err := BuildAuthMethods(Credentials{PrivateKey: testKeyPEM(t), Password: "pw"})
	if err != nil {
		t.Fatalf("BuildAuthMethods() error = %v", err)
	}
	if len(methods) != 3 {
		t.Errorf("len(methods) = %d, want key + password + keyboard-interactive", len(methods))
	}
}

func TestBuildAuthMethods_NoCredentials(t *testing.T) {
	_, err := BuildAuthMethods(Credentials{})
	if err == nil {
		t.Fatal("BuildAuthMethods() = nil error, want failure")
	}
	if !strings.Contains(err.Error(), "no authentication methods") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildAuthMethods_BadKeyMaterial(t *testing.T) {
	_, err := BuildAuthMethods(Credentials{PrivateKey: []byte("not a key")})
	if err == nil {
		t.Fatal("BuildAuthMethods() = nil error, want parse failure")
	}
	if !strings.Contains(err.Error(), "private key") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildHostKeyCallback_MissingFileAcceptsAny(t *testing.T) {
	callback, err := BuildHostKeyCallback(filepath.Join(t.TempDir(), "known_hosts"))
	if err != nil {
		t.Fatalf("BuildHostKeyCallback() error = %v", err)
	}
	if callback == nil {
		t.Fatal("callback = nil")
	}
	if err := callback("example.com:22", nil, testPublicKey(t)); err != nil {
		t.Errorf("callback should accept any key when known_hosts is missing: %v", err)
	}
}

func TestBuildHostKeyCallback_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(path, []byte("not a known_hosts line\x00"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := BuildHostKeyCallback(path); err == nil {
		t.Error("BuildHostKeyCallback() should reject a malformed known_hosts file")
	}
}

func TestReadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_ed25519")
	key := testKeyPEM(t)
	if err := os.WriteFile(path, key, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := ReadKeyFile(path)
	if err != nil {
		t.Fatalf("ReadKeyFile() error = %v", err)
	}
	if string(got) != string(key) {
		t.Error("ReadKeyFile() content mismatch")
	}

	if _, err := ReadKeyFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadKeyFile() should fail for a missing file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	if got := expandPath("~/.ssh/id_ed25519"); got != filepath.Join(home, ".ssh/id_ed25519") {
		t.Errorf("expandPath() = %q", got)
	}
	if got := expandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("expandPath() = %q, want passthrough", got)
	}
}

func testPublicKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	key, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("NewPublicKey() error = %v", err)
	}
	return key
}
