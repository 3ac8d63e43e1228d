package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/marketplace/internal/audit/domain"
	"github.com/smallbiznis/marketplace/internal/authorization"
	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/consumer"
	licensedomain "github.com/smallbiznis/marketplace/internal/license/domain"
	"github.com/smallbiznis/marketplace/internal/marketplace/client"
	"github.com/smallbiznis/marketplace/internal/observability"
	obsmiddleware "github.com/smallbiznis/marketplace/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/marketplace/internal/observability/metrics"
	obstracing "github.com/smallbiznis/marketplace/internal/observability/tracing"
	"github.com/smallbiznis/marketplace/internal/plugins"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	authzSvc   authorization.Service
	tokens     *authorization.TokenRegistry
	licenseSvc licensedomain.Service
	pluginSvc  *plugins.Service
	consumers  *consumer.Factory
	downloader Downloader
	auditSvc   auditdomain.Service
}

// Downloader stores a plugin archive at target.
type Downloader interface {
	Download(ctx context.Context, name string, target string) error
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	AuthzSvc   authorization.Service
	Tokens     *authorization.TokenRegistry
	LicenseSvc licensedomain.Service
	PluginSvc  *plugins.Service
	Consumers  *consumer.Factory
	Client     *client.Client
	AuditSvc   auditdomain.Service `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		authzSvc:   p.AuthzSvc,
		tokens:     p.Tokens,
		licenseSvc: p.LicenseSvc,
		pluginSvc:  p.PluginSvc,
		consumers:  p.Consumers,
		downloader: p.Client,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api/marketplace")
	api.Use(s.Authenticate())
	api.Use(s.MarketplaceEnabled())

	// -------- License --------
	api.GET("/license", s.RequireSuperUser(), s.GetLicense)
	api.PUT("/license", s.RequireSuperUser(), s.SaveLicense)
	api.DELETE("/license", s.RequireSuperUser(), s.DeleteLicense)
	if s.auditSvc != nil {
		api.GET("/audit", s.RequireSuperUser(), s.ListAuditLogs)
	}

	// -------- Catalogue --------
	api.GET("/consumer", s.RequireAuthenticated(), s.GetConsumer)
	api.GET("/overview", s.RequireAuthenticated(), s.GetOverview)
	api.GET("/plugins/:name", s.RequireAuthenticated(), s.GetPlugin)
	api.GET("/plugins/:name/download",
		s.authorize(authorization.ObjectPlugin, authorization.ActionPluginDownload),
		s.DownloadPlugin,
	)
}
