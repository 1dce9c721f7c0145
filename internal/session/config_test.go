package session

import (
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing host",
			cfg:     Config{User: "deploy", Password: "pw"},
			wantErr: "host is required",
		},
		{
			name:    "missing user",
			cfg:     Config{Host: "example.com", Password: "pw"},
			wantErr: "username is required",
		},
		{
			name:    "missing credentials",
			cfg:     Config{Host: "example.com", User: "deploy"},
			wantErr: "either password or privateKey is required",
		},
		{
			name: "password only",
			cfg:  Config{Host: "example.com", User: "deploy", Password: "pw"},
		},
		{
			name: "key only",
			cfg:  Config{Host: "example.com", User: "deploy", PrivateKey: []byte("key material")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error %q", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
			if KindOf(err) != KindValidation {
				t.Errorf("KindOf() = %q, want %q", KindOf(err), KindValidation)
			}
		})
	}
}

func TestConfig_Validate_DefaultPort(t *testing.T) {
	cfg := Config{Host: "example.com", User: "deploy", Password: "pw"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Port != 22 {
		t.Errorf("Port = %d, want 22", cfg.Port)
	}

	cfg = Config{Host: "example.com", Port: 2222, User: "deploy", Password: "pw"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Port != 2222 {
		t.Errorf("Port = %d, want 2222", cfg.Port)
	}
}

func TestConfig_AuthMethod(t *testing.T) {
	cfg := Config{Password: "pw"}
	if got := cfg.AuthMethod(); got != "password" {
		t.Errorf("AuthMethod() = %q, want %q", got, "password")
	}

	cfg = Config{PrivateKey: []byte("key material")}
	if got := cfg.AuthMethod(); got != "key" {
		t.Errorf("AuthMethod() = %q, want %q", got, "key")
	}

	// Key material takes precedence when both are supplied.
	cfg = Config{Password: "pw", PrivateKey: []byte("key material")}
	if got := cfg.AuthMethod(); got != "key" {
		t.Errorf("AuthMethod() with both = %q, want %q", got, "key")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SSH_HOST", "env.example.com")
	t.Setenv("SSH_PORT", "2200")
	t.Setenv("SSH_USER", "envuser")
	t.Setenv("SSH_PASSWORD", "envpw")

	cfg, ok := FromEnv()
	if !ok {
		t.Fatal("FromEnv() ok = false, want true")
	}
	if cfg.Host != "env.example.com" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 2200 {
		t.Errorf("Port = %d, want 2200", cfg.Port)
	}
	if cfg.User != "envuser" {
		t.Errorf("User = %q", cfg.User)
	}
	if cfg.Password != "envpw" {
		t.Errorf("Password = %q", cfg.Password)
	}
}

func TestFromEnv_NoHost(t *testing.T) {
	t.Setenv("SSH_HOST", "")

	if _, ok := FromEnv(); ok {
		t.Error("FromEnv() ok = true without SSH_HOST, want false")
	}
}
