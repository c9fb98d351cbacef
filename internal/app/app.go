package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dealdesk/core/internal/config"
	"github.com/dealdesk/core/internal/database"
	"github.com/dealdesk/core/internal/middleware"
	"github.com/dealdesk/core/internal/pkg/jwt"
	"github.com/dealdesk/core/internal/pkg/metrics"
	pkgredis "github.com/dealdesk/core/internal/pkg/redis"
	"github.com/dealdesk/core/internal/pkg/sealbox"
	"github.com/dealdesk/core/internal/pkg/taskqueue"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
	queue  *taskqueue.Queue
	stats  *metrics.Metrics
	signer *jwt.Signer
	box    *sealbox.Box
	logger *zap.Logger
	cancel context.CancelFunc
}

// New initializes the application: config → DB → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	signer, err := jwt.NewSigner(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	box, err := sealbox.New(cfg.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("credential key: %w", err)
	}
	if cfg.CredentialKey == "" {
		logger.Warn("credential_key is empty, partner credentials cannot be stored or revealed")
	}

	db, err := database.Connect(cfg, logger, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	// Redis only backs the public rate limiter; run without it rather than
	// refuse to start.
	rdb, err := pkgredis.Connect(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, intake rate limiting disabled", zap.Error(err))
		rdb = nil
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	stats := metrics.New()
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("HTTP")))
	router.Use(middleware.Metrics(stats))
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())
	queue := taskqueue.New(logger, cfg.Notify.Workers, cfg.Notify.QueueSize)
	queue.Observe(stats)
	queue.Start(ctx)

	app := &App{
		cfg:    cfg,
		router: router,
		db:     db,
		rdb:    rdb,
		queue:  queue,
		stats:  stats,
		signer: signer,
		box:    box,
		logger: logger,
		cancel: cancel,
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown drains queued notifications and releases connections. Call it
// after the HTTP server has stopped accepting requests.
func (a *App) Shutdown() {
	a.queue.Close()
	a.cancel()
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}
