// internal/vault/vault.go
//
// Vault client wrapper for MovieNest.
//
// Context
// -------
//   - Resolves `vault:` references found in configuration (CSRF key, session
//     DSN password) at boot.  Nothing else in the process talks to Vault.
//   - KV-v2 only.  References use the form `vault:<mount>/<path>#<key>`,
//     e.g. `vault:secret/movienest#csrf_key`.
//   - Values are cached per reference for the TTL passed to New, so a
//     config Reload() does not hammer the server.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ttl)             // reads VAULT_ADDR, VAULT_TOKEN.
//  2. val, err := cli.Resolve(ctx, ref)      // ref without the "vault:" prefix.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// Prefix marks a configuration value that must be resolved through Vault.
const Prefix = "vault:"

// ErrBadReference is returned for references without a "#key" suffix.
var ErrBadReference = errors.New("vault reference must look like <mount>/<path>#<key>")

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	ttl time.Duration

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a client from the standard Vault environment.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token used for every read.
func New(ttl time.Duration) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	return &Client{
		api:   apiCli,
		ttl:   ttl,
		cache: make(map[string]cached),
	}, nil
}

// Resolve reads the secret named by ref ("<mount>/<path>#<key>", with or
// without the "vault:" prefix).
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, err := ParseReference(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, path, key)
}

// GetKV fetches a single key from a KV-v2 secret, honouring the cache TTL.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if c.ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if c.ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(c.ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

//
// SECTION 2.  Helpers
//

// ParseReference splits "vault:secret/movienest#csrf_key" into
// ("secret/movienest", "csrf_key").
func ParseReference(ref string) (path, key string, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), Prefix)
	i := strings.LastIndexByte(ref, '#')
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return ref[:i], ref[i+1:], nil
}

func splitMount(p string) (mount, rel string) {
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
