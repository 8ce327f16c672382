package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"htem/fanc/pkg/config"
)

func TestAuthMethod(t *testing.T) {
	dir := t.TempDir()
	openKey := filepath.Join(dir, "open_key")
	if err := os.WriteFile(openKey, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}
	badKey := filepath.Join(dir, "bad_key")
	if err := os.WriteFile(badKey, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     config.GitAuthConfig
		wantNil bool
		wantErr string
	}{
		{name: "empty type", cfg: config.GitAuthConfig{}, wantNil: true},
		{name: "none", cfg: config.GitAuthConfig{Type: "none"}, wantNil: true},
		{name: "token", cfg: config.GitAuthConfig{Type: "token", Token: "ghp_abc"}},
		{name: "token missing", cfg: config.GitAuthConfig{Type: "token"}, wantErr: "requires a token"},
		{name: "ssh missing path", cfg: config.GitAuthConfig{Type: "ssh"}, wantErr: "ssh_key_path"},
		{name: "ssh no such file", cfg: config.GitAuthConfig{Type: "ssh", SSHKeyPath: filepath.Join(dir, "nope")}, wantErr: "failed to access"},
		{name: "ssh open permissions", cfg: config.GitAuthConfig{Type: "ssh", SSHKeyPath: openKey}, wantErr: "too open"},
		{name: "ssh invalid key", cfg: config.GitAuthConfig{Type: "ssh", SSHKeyPath: badKey}, wantErr: "failed to load SSH key"},
		{name: "unknown", cfg: config.GitAuthConfig{Type: "kerberos"}, wantErr: "unknown auth type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := AuthMethod(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("AuthMethod() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AuthMethod() error = %v", err)
			}
			if (auth == nil) != tt.wantNil {
				t.Errorf("AuthMethod() = %v, wantNil %v", auth, tt.wantNil)
			}
		})
	}
}

func TestAuthMethod_TokenIsPassword(t *testing.T) {
	auth, err := AuthMethod(config.GitAuthConfig{Type: "token", Token: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	basic, ok := auth.(*http.BasicAuth)
	if !ok {
		t.Fatalf("AuthMethod() = %T, want *http.BasicAuth", auth)
	}
	if basic.Password != "secret" || basic.Username != "git" {
		t.Errorf("BasicAuth = %+v", basic)
	}
}
