package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	ttl, _ := cfg.JWT.TTL()
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, ttl)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 路由（用户端）
	r := router.NewAPIEngine(router.Deps{
		Log:     log,
		Config:  cfg,
		Users:   repo.NewUserRepo(db),
		Posts:   repo.NewPostRepo(db),
		Tokens:  tokens,
		Metrics: reg,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("blog api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/api/v1/health"),
		zap.String("docs", baseURL+"/api/v1/docs/index.html"),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("blog api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭：先停 HTTP，再关数据库
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil && err != http.ErrServerClosed {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("db close", zap.Error(err))
	}
	log.Info("blog api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.Open(database.OptsFromConfig(cfg.DB), l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
