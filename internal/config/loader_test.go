// internal/config/loader_test.go
//
// Loader precedence, secret resolution, and validation.  Each test points
// MOVIENEST_ROOT at a temp dir holding its own conf/global.yaml.

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if body != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(body), 0o644); err != nil {
			t.Fatalf("write yaml: %v", err)
		}
	}
	t.Setenv("MOVIENEST_ROOT", root)
	return root
}

func TestLoad_DefaultsWithoutYAML(t *testing.T) {
	root := writeYAML(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:4000" {
		t.Errorf("BaseURL = %q, want default", cfg.API.BaseURL)
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Paths.Root != root {
		t.Errorf("Root = %q, want %q", cfg.Paths.Root, root)
	}
	if Get() != cfg {
		t.Error("Get() does not return the cached config")
	}
}

func TestLoad_YAMLThenEnvPrecedence(t *testing.T) {
	writeYAML(t, `
http:
  listen_addr: ":9000"
api:
  base_url: "http://yaml.example:4000/"
  timeout: 3s
session:
  lifetime: 2h
`)
	t.Setenv("API_BASE_URL", "http://legacy.example:4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.API.BaseURL != "http://legacy.example:4000" {
		t.Errorf("API_BASE_URL should beat YAML, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Session.Lifetime != 2*time.Hour {
		t.Errorf("Lifetime = %v", cfg.Session.Lifetime)
	}

	t.Setenv("MOVIENEST_API__BASE_URL", "http://env.example:4000/")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example:4000" {
		t.Errorf("prefixed env should win and lose the trailing slash, got %q", cfg.API.BaseURL)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	writeYAML(t, `
session:
  backend: mysql
`)

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error for mysql backend without dsn")
	}
	if !strings.Contains(err.Error(), "Session.DSN") {
		t.Errorf("error should name the field, got %v", err)
	}
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	return f[ref], nil
}

func TestLoad_ResolvesVaultReferences(t *testing.T) {
	writeYAML(t, `
security:
  csrf_key: "vault:secret/movienest#csrf_key"
`)
	orig := newResolver
	t.Cleanup(func() { newResolver = orig })
	newResolver = func() (SecretResolver, error) {
		return fakeResolver{"vault:secret/movienest#csrf_key": "resolved-key"}, nil
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Security.CSRFKey != "resolved-key" {
		t.Errorf("CSRFKey = %q, want resolved-key", cfg.Security.CSRFKey)
	}
}
