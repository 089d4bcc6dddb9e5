package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"swapslot/backend/config"
	"swapslot/backend/internal/api/handler"
	"swapslot/backend/internal/api/router"
	"swapslot/backend/internal/repository"
	"swapslot/backend/internal/service"
	"swapslot/backend/pkg/database"
	"swapslot/backend/pkg/jwt"
	applogger "swapslot/backend/pkg/logger"
	"swapslot/backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "swapslot",
		Usage: "Calendar slot swap negotiation service.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a config file (env SWAPSLOT_* still wins)",
				EnvVars: []string{"SWAPSLOT_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "swapslot: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Apply pending migrations and run the HTTP API.",
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema.",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations.",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *database.Migrator) error { return m.Up() })
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the latest migration.",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *database.Migrator) error { return m.Down() })
				},
			},
			{
				Name:  "version",
				Usage: "Print the current schema version.",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(m *database.Migrator) error {
						version, dirty, ok, err := m.Version()
						if err != nil {
							return err
						}
						if !ok {
							fmt.Println("no migration applied")
							return nil
						}
						fmt.Printf("version=%d dirty=%t\n", version, dirty)
						return nil
					})
				},
			},
		},
	}
}

// bootstrap loads config, the logger and the database connection shared by every command.
func bootstrap(c *cli.Context) (*config.Config, *zap.Logger, *gorm.DB, *sql.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return cfg, logger, db, sqlDB, nil
}

func withMigrator(c *cli.Context, fn func(m *database.Migrator) error) error {
	_, logger, _, sqlDB, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer sqlDB.Close()

	m, err := database.NewMigrator(sqlDB, logger)
	if err != nil {
		return err
	}
	return fn(m)
}

func serve(c *cli.Context) error {
	cfg, logger, db, sqlDB, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer sqlDB.Close()

	logger.Info("starting swapslot",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis is optional: without it logout revocation and rate limiting are disabled
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without token blacklist", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)
	var cache handler.CachePinger
	if rdb != nil {
		cache = rdb
	}
	h := handler.NewHandler(svc, sqlDB, cache)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
