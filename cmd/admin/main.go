package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-blog/internal/core/auth"
	"go-gin-blog/internal/core/config"
	"go-gin-blog/internal/core/database"
	"go-gin-blog/internal/core/logger"
	"go-gin-blog/internal/core/server"
	"go-gin-blog/internal/repo"
	"go-gin-blog/internal/transport/http/router"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "blog-admin",
	Short:         "Blog administration CLI",
	Long:          "Admin HTTP server, migrations and user maintenance for the blog API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env 命令共用的依赖
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	cleanup func()
}

func (e *env) Close() {
	if e.db != nil {
		_ = database.Close(e.db)
	}
	e.cleanup()
}

func setup() (*env, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	db, err := database.Open(database.OptsFromConfig(cfg.DB), log)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("db open: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db, cleanup: cleanup}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, usersCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP API (/admin/v1)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		ttl, _ := e.cfg.JWT.TTL()
		r := router.NewAdminEngine(router.Deps{
			Log:     e.log,
			Config:  e.cfg,
			Users:   repo.NewUserRepo(e.db),
			Posts:   repo.NewPostRepo(e.db),
			Tokens:  auth.NewTokenService(e.cfg.JWT.Secret, e.cfg.JWT.Issuer, ttl),
			Metrics: prometheus.NewRegistry(),
		})

		addr := server.Addr(e.cfg.App.Admin.Host, e.cfg.App.Admin.Port)
		srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

		errCh := make(chan error, 1)
		go func() { errCh <- server.StartHTTP(srv, e.log) }()
		e.log.Info("admin api started", zap.String("addr", addr), zap.String("admin_v1", "http://"+addr+"/admin/v1"))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}
		if err := server.Shutdown(srv, 10*time.Second); err != nil {
			e.log.Warn("admin shutdown", zap.Error(err))
		}
		e.log.Info("admin api stopped gracefully")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()
		if err := repo.Migrate(e.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrate done")
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
