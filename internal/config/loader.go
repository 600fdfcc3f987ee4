// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from these layers (highest
precedence last):

  1. Compiled defaults (`Defaults()`).
  2. Optional `.env` file at `<root>/conf/.env`.
  3. `conf/global.yaml` (optional; defaults cover a bare checkout).
  4. `API_BASE_URL`, kept so the variable the browser client used still
     works.
  5. Environment variables prefixed `MOVIENEST_`, where `__` maps to “.”
     (e.g., `MOVIENEST_API__BASE_URL → api.base_url`).

After merging, every string that starts with `vault:` is swapped for the
secret it names, the tree is unmarshalled into typed structs, validated,
enriched with the runtime root path, and cached in an `atomic.Pointer` for
lock-free reads.  `Reload()` simply calls `Load()` again and swaps the
pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/movienest/internal/vault"
)

const envPrefix = "MOVIENEST_"

var current atomic.Pointer[Config]

// SecretResolver turns a `vault:` reference into its plain value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// newResolver is swapped by tests.  The Vault client is only built when a
// `vault:` value is actually present.
var newResolver = func() (SecretResolver, error) {
	return vault.New(5 * time.Minute)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves MOVIENEST_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv("MOVIENEST_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml missing, using defaults", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if legacy := os.Getenv("API_BASE_URL"); legacy != "" {
		_ = k.Set("api.base_url", legacy)
	}

	// Env overrides: MOVIENEST_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(k); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"api_base_url", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every `vault:` string in k with its secret value.
func resolveSecrets(k *koanf.Koanf) error {
	var refs []string
	for key, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vault.Prefix) {
			refs = append(refs, key)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	res, err := newResolver()
	if err != nil {
		return fmt.Errorf("vault client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, key := range refs {
		plain, err := res.Resolve(ctx, k.String(key))
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if err := k.Set(key, plain); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
