// cmd/web/main.go
//
// MovieNest – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → MOVIENEST_* env,
//     with vault: references resolved).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Install the CSRF key and, for the mysql session backend, open the
//     database and apply component migrations.
//
//  4. Build the shared Deps (movie API client, session store, view
//     engine, login throttle) and Init every registered component.
//
//  5. Root router:
//
//     • request info + access log  – requestinfo.Enrich
//     • panic recovery             – chi Recoverer
//     • HTTPS redirect, headers    – middleware.ForceHTTPS, Security
//     • /metrics, /static/*, modules (e.g. /healthz)
//     • component pages            – inside the session middleware
//
//  6. Serve until SIGINT/SIGTERM, then shut down gracefully.  SIGHUP
//     reloads the configuration.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/movienest/internal/api"
	"github.com/yanizio/movienest/internal/component"
	"github.com/yanizio/movienest/internal/config"
	"github.com/yanizio/movienest/internal/database"
	"github.com/yanizio/movienest/internal/form"
	"github.com/yanizio/movienest/internal/logger"
	"github.com/yanizio/movienest/internal/middleware"
	"github.com/yanizio/movienest/internal/module"
	"github.com/yanizio/movienest/internal/requestinfo"
	"github.com/yanizio/movienest/internal/server"
	"github.com/yanizio/movienest/internal/session"
	"github.com/yanizio/movienest/internal/view"

	_ "github.com/yanizio/movienest/components/auth"
	_ "github.com/yanizio/movienest/components/movies"
	_ "github.com/yanizio/movienest/modules/health"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "movienest",
		Usage:   "Server-rendered client for the movie catalog API",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "override http.listen_addr",
				Sources: cli.EnvVars("MOVIENEST_LISTEN"),
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "re-parse templates on every request",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the MySQL session table and exit",
				Action: migrate,
			},
			{
				Name:   "check-config",
				Usage:  "Load and validate configuration, print the effective values",
				Action: checkConfig,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("movienest: %v", err)
	}
}

/*──────────────────────────── serve ────────────────────────────────────────*/

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if l := cmd.String("listen"); l != "" {
		cfg.HTTP.ListenAddr = l
	}

	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer logOut.Sync() //nolint:errcheck

	key := csrfKey(cfg.Security.CSRFKey, logOut)
	form.SetSecret(key)

	//
	// ── 1.  Session store (optionally MySQL-backed) ─────────────────────
	//
	var db *sqlx.DB
	if cfg.Session.Backend == "mysql" {
		logOut.Infow("connecting to session DB")
		if db, err = database.Open(cfg.Session.DSN); err != nil {
			return fmt.Errorf("connect session DB: %w", err)
		}
		defer db.Close()
		if err := runMigrations(ctx, db); err != nil {
			return err
		}
	}
	sopts := session.Options{
		Backend:    cfg.Session.Backend,
		CookieName: cfg.Session.CookieName,
		Lifetime:   cfg.Session.Lifetime,
		Secure:     cfg.HTTP.ForceHTTPS,
	}
	if db != nil {
		sopts.DB = db.DB
	}
	sess, err := session.New(sopts)
	if err != nil {
		return err
	}

	//
	// ── 2.  Components ──────────────────────────────────────────────────
	//
	views := view.New()
	views.NoCache = cmd.Bool("dev")
	throttle := middleware.NewThrottle(cfg.Security.LoginRate, cfg.Security.LoginBurst)
	deps := component.Deps{
		API:      api.New(cfg.API.BaseURL, sess, api.WithTimeout(cfg.API.Timeout)),
		Sessions: sess,
		Views:    views,
		Throttle: throttle.Handler,
	}
	comps := component.All()
	for _, c := range comps {
		if err := c.Init(deps); err != nil {
			return fmt.Errorf("init component %s: %w", c.Name(), err)
		}
	}

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	proxies, err := requestinfo.ParseProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return err
	}
	r := chi.NewRouter()
	r.Use(
		requestinfo.Enrich(logOut, proxies),
		chimw.Recoverer,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security(cfg.API.BaseURL, cfg.HTTP.ForceHTTPS),
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(view.Static())))
	for _, p := range module.Paths() {
		r.Handle(p, module.Lookup(p))
	}

	var mountErr error
	r.Group(func(r chi.Router) {
		r.Use(middleware.CrossOrigin(key, cfg.Security.TrustedOrigins), sess.LoadAndSave)
		mountErr = component.Mount(r, comps)
	})
	if mountErr != nil {
		return fmt.Errorf("mount components: %w", mountErr)
	}

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "api", cfg.API.BaseURL, "version", version)
		return server.Run(gctx, srv)
	})
	g.Go(func() error {
		watchReload(gctx, logOut)
		return nil
	})
	g.Go(func() error {
		throttle.Sweep(gctx)
		return nil
	})

	err = g.Wait()
	logOut.Infow("shut down", "err", err)
	return err
}

// watchReload re-reads configuration on SIGHUP.  Only values read through
// config.Get() at request time (e.g. /healthz) pick up changes; listener,
// session, and API client settings need a restart.
func watchReload(ctx context.Context, logOut *zap.SugaredLogger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := config.Reload(); err != nil {
				logOut.Warnw("config reload failed; keeping previous values", "err", err)
				continue
			}
			logOut.Infow("config reloaded")
		}
	}
}

/*──────────────────────────── subcommands ──────────────────────────────────*/

func migrate(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Session.Backend != "mysql" {
		return fmt.Errorf("session backend is %q; nothing to migrate", cfg.Session.Backend)
	}
	db, err := database.Open(cfg.Session.DSN)
	if err != nil {
		return fmt.Errorf("connect session DB: %w", err)
	}
	defer db.Close()
	if err := runMigrations(ctx, db); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

func checkConfig(context.Context, *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Printf("root:            %s\n", cfg.Paths.Root)
	fmt.Printf("listen:          %s\n", cfg.HTTP.ListenAddr)
	fmt.Printf("api:             %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout)
	fmt.Printf("session backend: %s\n", cfg.Session.Backend)
	fmt.Printf("log level:       %s\n", cfg.Log.Level)
	return nil
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// runMigrations applies every component's DDL in name order.
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, c := range component.All() {
		if err := database.Migrate(ctx, db, c.Migrations()); err != nil {
			return fmt.Errorf("migrate %s: %w", c.Name(), err)
		}
	}
	return nil
}

// csrfKey decodes the configured key.  An empty or malformed key yields nil,
// which makes the form package generate a random one.
func csrfKey(raw string, logOut *zap.SugaredLogger) []byte {
	if raw == "" {
		return nil
	}
	key, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		logOut.Warnw("security.csrf_key is not base64url; using a random key", "err", err)
		return nil
	}
	return key
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
