package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"

	"github.com/replyforge/replyforge/autoreply/classifier"
	"github.com/replyforge/replyforge/autoreply/engine"
	"github.com/replyforge/replyforge/autoreply/platform"
	"github.com/replyforge/replyforge/autoreply/quotastore"
	"github.com/replyforge/replyforge/store"
)

type Server struct {
	logger *slog.Logger
	db     *gorm.DB
	store  *store.Store
	engine *engine.Engine
	echo   *echo.Echo

	dispatchWorkers int
}

type Config struct {
	Logger          *slog.Logger
	RedisURL        string
	ClassifierHost  string
	ClassifierToken string
	PlatformHost    string
	WebhookURL      string
	DispatchWorkers int
	SendRateLimit   int
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	st, err := store.NewStore(db, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	var quotas quotastore.QuotaStore
	if config.RedisURL != "" {
		q, err := quotastore.NewRedisQuotaStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis quota store: %w", err)
		}
		quotas = q
		logger.Info("using redis quota store")
	} else {
		quotas = quotastore.NewGormQuotaStore(db)
	}

	var cls classifier.Client
	if config.ClassifierHost != "" {
		logger.Info("configuring classifier client", "host", config.ClassifierHost)
		cls = classifier.NewHTTPClient(config.ClassifierHost, config.ClassifierToken)
	}

	var adapter platform.Adapter
	if config.PlatformHost != "" {
		adapter = platform.NewHTTPAdapter(config.PlatformHost)
	} else {
		// without a platform gateway only log_only and webhook rules can
		// actually complete; reply actions will record terminal failures
		logger.Warn("no platform gateway configured")
		adapter = platform.NewMockAdapter()
	}

	dispatcher := engine.NewDispatcher(db, engine.DispatcherConfig{
		Adapter:       adapter,
		WebhookURL:    config.WebhookURL,
		Logger:        logger,
		SendRateLimit: config.SendRateLimit,
	})

	eng := &engine.Engine{
		Logger:     logger,
		DB:         db,
		Rules:      st,
		Quotas:     quotas,
		Matcher:    engine.NewMatcher(cls),
		Dispatcher: dispatcher,
	}

	s := &Server{
		logger:          logger,
		db:              db,
		store:           st,
		engine:          eng,
		dispatchWorkers: config.DispatchWorkers,
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) RunAPI(ctx context.Context, listen string) error {
	s.engine.Dispatcher.Start(ctx, s.dispatchWorkers)

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(s.logger))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := 500
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if !c.Response().Committed {
			c.JSON(code, map[string]any{"error": err.Error()})
		}
	}

	e.GET("/_health", s.handleHealthCheck)

	e.POST("/events/comment", s.handleCommentEvent)

	admin := e.Group("/admin")
	admin.POST("/rules", s.handleCreateRule)
	admin.GET("/rules", s.handleListRules)
	admin.GET("/rules/:id", s.handleGetRule)
	admin.PUT("/rules/:id", s.handleUpdateRule)
	admin.DELETE("/rules/:id", s.handleDeleteRule)
	admin.POST("/rules/:id/toggle", s.handleToggleRule)
	admin.GET("/logs", s.handleListLogs)
	admin.GET("/stats", s.handleStats)

	s.echo = e
	s.logger.Info("starting auto-reply API daemon", "bind", listen)
	return s.echo.Start(listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
