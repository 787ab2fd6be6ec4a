package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/warrantyhub/internal/audit/domain"
	"github.com/smallbiznis/warrantyhub/internal/authorization"
	"github.com/smallbiznis/warrantyhub/internal/config"
	"github.com/smallbiznis/warrantyhub/internal/observability"
	obsmiddleware "github.com/smallbiznis/warrantyhub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/warrantyhub/internal/observability/tracing"
	"github.com/smallbiznis/warrantyhub/internal/ratelimit"
	warrantydomain "github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewTokenVerifier),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
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
	r.Use(CorrelationID())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
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
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	verifier    *TokenVerifier
	warrantySvc warrantydomain.Service
	auditSvc    auditdomain.Service
	authzSvc    authorization.Service
	limiter     *ratelimit.ClaimWriteLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Verifier    *TokenVerifier
	WarrantySvc warrantydomain.Service
	AuditSvc    auditdomain.Service
	AuthzSvc    authorization.Service
	Limiter     *ratelimit.ClaimWriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("http.server"),
		verifier:    p.Verifier,
		warrantySvc: p.WarrantySvc,
		auditSvc:    p.AuditSvc,
		authzSvc:    p.AuthzSvc,
		limiter:     p.Limiter,
	}

	svc.RegisterRoutes()
	return svc
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/ready", s.Ready)

	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	claims := api.Group("/warranty-claims")
	claims.Use(s.RateLimitClaimWrites())
	claims.POST("", s.CreateWarrantyClaim)
	claims.GET("", s.ListWarrantyClaims)
	claims.GET("/stats", s.GetWarrantyClaimStats)
	claims.GET("/:id", s.GetWarrantyClaim)
	claims.PATCH("/:id", s.UpdateWarrantyClaim)
	claims.DELETE("/:id", s.DeleteWarrantyClaim)
	claims.POST("/:id/submit", s.SubmitWarrantyClaim)
	claims.POST("/:id/review", s.ReviewWarrantyClaim)
	claims.POST("/:id/respond", s.RespondToInfoRequest)
	claims.POST("/:id/assign", s.AssignWarrantyClaim)
	claims.POST("/:id/close", s.CloseWarrantyClaim)
	claims.GET("/:id/notes", s.ListWarrantyClaimNotes)
	claims.POST("/:id/notes", s.AddWarrantyClaimNote)
	claims.GET("/:id/history", s.ListWarrantyClaimHistory)

	api.GET("/audit-logs", s.ListAuditLogs)
}

// Ready reports whether the database answers.
func (s *Server) Ready(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Warn("readiness check failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
