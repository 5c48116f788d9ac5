package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/superadmin/internal/auth"
	"github.com/playperu/superadmin/internal/config"
	"github.com/playperu/superadmin/internal/database"
	"github.com/playperu/superadmin/internal/events"
	"github.com/playperu/superadmin/internal/games"
	"github.com/playperu/superadmin/internal/gateway"
	"github.com/playperu/superadmin/internal/handler/health"
	"github.com/playperu/superadmin/internal/lifecycle"
	"github.com/playperu/superadmin/internal/logging"
	"github.com/playperu/superadmin/internal/metrics"
	"github.com/playperu/superadmin/internal/migrations"
	"github.com/playperu/superadmin/internal/server"
	"github.com/playperu/superadmin/internal/sessions"
)

// CLI is the command tree. Settings come from the environment; see
// internal/config.
type CLI struct {
	Serve        ServeCmd        `cmd:"" default:"1" help:"Run the HTTP server."`
	CreateAdmin  CreateAdminCmd  `cmd:"" help:"Create an administrator account."`
	RegisterGame RegisterGameCmd `cmd:"" help:"Register a remote game server."`
}

// globals is bound into every command's Run method.
type globals struct {
	ctx    context.Context
	stdout io.Writer
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("superadmin"),
		kong.Description("Control plane for sessions hosted by remote game servers."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := kctx.Run(&globals{ctx: ctx, stdout: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type ServeCmd struct{}

func (ServeCmd) Run(g *globals) error {
	return run(g.ctx, g.stdout)
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(stdout, cfg.LogLevel, cfg.LogFormat)
	clock := quartz.NewReal()

	// --- SQLite ---
	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	admins := auth.NewAdmins(db, clock)
	if cfg.BootstrapEmail != "" {
		created, err := admins.SeedIfEmpty(ctx, cfg.BootstrapEmail, cfg.BootstrapPassword)
		if err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
		if created {
			logger.Info("bootstrap admin created", "email", cfg.BootstrapEmail)
		}
	}

	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	// --- Admin sessions: Redis when configured, SQLite otherwise ---
	var adminSessions auth.SessionStore = auth.NewSQLSessions(db, clock, cfg.SessionTTL)
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		adminSessions = auth.NewRedisSessions(rdb, cfg.SessionTTL)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}

	// --- Domain ---
	m := metrics.New(cfg.MetricsNamespace)
	broker := events.NewBroker()
	registry := games.NewRegistry(db, clock)
	svc := lifecycle.New(lifecycle.Deps{
		Games:     registry,
		Sessions:  sessions.NewStore(db),
		Gateway:   gateway.New(nil, logger, m),
		Passwords: admins,
		Events:    broker,
		Clock:     clock,
		Metrics:   m,
		Logger:    logger,
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Lifecycle:    svc,
		Games:        registry,
		Admins:       admins,
		Sessions:     adminSessions,
		Broker:       broker,
		Metrics:      m,
		Checks:       checks,
		SPADir:       cfg.SPADir,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

type CreateAdminCmd struct {
	Email    string `arg:"" help:"Login email."`
	Password string `env:"ADMIN_PASSWORD" required:"" help:"Login password."`
}

func (c *CreateAdminCmd) Run(g *globals) error {
	db, err := openFromEnv(g.ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	admin, err := auth.NewAdmins(db, quartz.NewReal()).Create(g.ctx, c.Email, c.Password)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	fmt.Fprintf(g.stdout, "created admin %s (%s)\n", admin.Email, admin.ID)
	return nil
}

type RegisterGameCmd struct {
	GameID    string            `arg:"" name:"game-id" help:"Stable identifier used by the dashboard."`
	Name      string            `arg:"" help:"Display name."`
	ServerURL string            `arg:"" name:"server-url" help:"Base URL of the game server."`
	Endpoints map[string]string `short:"e" name:"endpoint" help:"Operation path, as operation=path. Repeatable."`
}

func (c *RegisterGameCmd) Run(g *globals) error {
	db, err := openFromEnv(g.ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	game, err := games.NewRegistry(db, quartz.NewReal()).Register(g.ctx, games.RegisterParams{
		GameID:    c.GameID,
		Name:      c.Name,
		ServerURL: c.ServerURL,
		Endpoints: c.Endpoints,
	})
	if err != nil {
		return fmt.Errorf("registering game: %w", err)
	}
	fmt.Fprintf(g.stdout, "registered game %s (%s)\n", game.GameID, game.ID)
	return nil
}

func openFromEnv(ctx context.Context) (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return openDB(ctx, cfg.DBPath)
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

