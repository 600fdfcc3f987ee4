// internal/config/model.go
//
// Typed configuration model for MovieNest.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • optional `conf/.env`                        – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `API_BASE_URL`                              – legacy single setting,
//   • `MOVIENEST_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.  TrustedProxies are IPs or CIDR ranges
// whose X-Forwarded-For / X-Real-IP headers are believed.
type HTTP struct {
	ListenAddr     string   `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS     bool     `koanf:"force_https"`
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr|ip"`
}

//
// API section
//

// API describes the upstream movie REST service.  BaseURL is the one
// setting operators are expected to change.
type API struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// Session section
//

// Session configures the per-browser session that carries the API token.
//
// Backend "memory" keeps sessions in process (lost on restart).  Backend
// "mysql" stores them in the `sessions` table reachable through DSN.
type Session struct {
	Backend    string        `koanf:"backend"     validate:"oneof=memory mysql"`
	DSN        string        `koanf:"dsn"         validate:"required_if=Backend mysql"`
	CookieName string        `koanf:"cookie_name" validate:"required"`
	Lifetime   time.Duration `koanf:"lifetime"    validate:"gt=0"`
}

//
// Security section
//

// Security holds the CSRF key, extra hosts trusted to post cross-origin,
// and the login throttle.
//
// CSRFKey is base64url (no padding) and should decode to at least 32 bytes.
// When empty, a random key is generated at boot, which invalidates open
// forms on every restart.
type Security struct {
	CSRFKey        string   `koanf:"csrf_key"`
	TrustedOrigins []string `koanf:"trusted_origins" validate:"dive,required"`
	LoginRate      float64  `koanf:"login_rate"  validate:"gte=0"`
	LoginBurst     int      `koanf:"login_burst" validate:"gte=0"`
}

//
// Log section
//

// Log controls the zap level for both file and console cores.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  The loader discovers `Root` (repo root or
// MOVIENEST_ROOT override) so later code can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	API      API      `koanf:"api"`
	Session  Session  `koanf:"session"`
	Security Security `koanf:"security"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the values used for any key missing from every layer.
func Defaults() Config {
	return Config{
		HTTP: HTTP{ListenAddr: ":8080"},
		API: API{
			BaseURL: "http://localhost:4000",
			Timeout: 15 * time.Second,
		},
		Session: Session{
			Backend:    "memory",
			CookieName: "movienest_session",
			Lifetime:   14 * 24 * time.Hour,
		},
		Security: Security{LoginRate: 1, LoginBurst: 5},
		Log:      Log{Level: "info"},
	}
}
