// internal/form/csrf.go
//
// MovieNest – Forms subsystem: session-bound CSRF tokens.
//
// Context
//   Every rendered form embeds a hidden `csrf_token` input.  The server
//   verifies it on POST before any field is validated, so only forms this
//   process rendered *for this browser session* are accepted:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro+binding) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  binding – a random value kept in the visitor's session and carried
//      on the request context (WithBinding).  It never appears in the
//      token, so a token minted for one session fails in every other.
//
//   Validation checks the signature and ensures the timestamp is within
//   maxAge.  Several instances behind a load balancer only need to share
//   `security.csrf_key` and the session store.
//
// Workflow
//   •  SetSecret(key)          → called once at boot with the configured key.
//   •  WithBinding(ctx, b)     → session middleware, once per request.
//   •  GenerateToken(ctx)      → returns token string for the renderer.
//   •  VerifyToken(ctx, tok)   → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	csrfField  = "csrf_token"
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig
	maxAge     = 2 * time.Hour        // token valid window
)

var (
	secretMu  sync.RWMutex
	secretKey []byte
)

// SetSecret installs the HMAC key.  Keys shorter than 32 bytes are
// rejected and a random key is used instead.
func SetSecret(key []byte) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if len(key) >= 32 {
		secretKey = append([]byte(nil), key...)
		return
	}
	secretKey = randomKey()
	zap.S().Warnw("csrf key missing or shorter than 32 bytes; using random key",
		"len", len(key))
}

// ErrNoBinding means the request did not pass through the session
// middleware, so there is nothing to bind a token to.
var ErrNoBinding = errors.New("csrf: no session binding on context")

type bindingKey struct{}

// WithBinding returns ctx carrying the session's CSRF binding.
func WithBinding(ctx context.Context, binding string) context.Context {
	return context.WithValue(ctx, bindingKey{}, binding)
}

func bindingFrom(ctx context.Context) string {
	b, _ := ctx.Value(bindingKey{}).(string)
	return b
}

// GenerateToken creates a new CSRF token for the session on ctx.  Call once
// per form render.
func GenerateToken(ctx context.Context) (string, error) {
	binding := bindingFrom(ctx)
	if binding == "" {
		return "", ErrNoBinding
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sign(nonce, ts, binding)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks for the
// session on ctx.
func VerifyToken(ctx context.Context, tok string) bool {
	binding := bindingFrom(ctx)
	if tok == "" || binding == "" {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	// Future timestamp (clock skew) or older than maxAge.
	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > maxAge || time.Until(issued) > time.Minute {
		return false
	}

	return hmac.Equal(sig, sign(nonce, tsBytes, binding))
}

func sign(nonce, ts []byte, binding string) []byte {
	mac := hmac.New(sha256.New, fetchSecret())
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(binding))
	return mac.Sum(nil)
}

// fetchSecret returns the process-wide secret, generating an ephemeral one
// when SetSecret was never called (tests, misconfigured boots).
func fetchSecret() []byte {
	secretMu.RLock()
	sec := secretKey
	secretMu.RUnlock()
	if sec != nil {
		return sec
	}

	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey == nil {
		secretKey = randomKey()
	}
	return secretKey
}

func randomKey() []byte {
	k := make([]byte, 32)
	_, _ = rand.Read(k)
	return k
}
