package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loaneye/internal/alert"
	"github.com/loaneye/internal/auth"
	"github.com/loaneye/internal/catalog"
	"github.com/loaneye/internal/models"
	"github.com/loaneye/internal/monitor"
	"github.com/loaneye/internal/notify"
	"github.com/loaneye/internal/report"
	"github.com/loaneye/internal/rule"
	"github.com/loaneye/internal/store"
)

type Options struct {
	Store    *store.Store
	Catalog  *catalog.Catalog
	Sessions *rule.Manager
	Rules    *alert.RuleManager
	Reports  *report.Generator
	Notifier *notify.Manager
	Auth     *auth.Service
	Metrics  *monitor.Metrics
	Logger   *zap.Logger
}

type Server struct {
	store    *store.Store
	catalog  *catalog.Catalog
	vars     *catalog.Binding
	sessions *rule.Manager
	rules    *alert.RuleManager
	reports  *report.Generator
	notifier *notify.Manager
	auth     *auth.Service
	metrics  *monitor.Metrics
	logger   *zap.Logger
	router   *gin.Engine
	http     *http.Server
}

func NewServer(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		catalog:  opts.Catalog,
		vars:     opts.Catalog.Bind(opts.Store),
		sessions: opts.Sessions,
		rules:    opts.Rules,
		reports:  opts.Reports,
		notifier: opts.Notifier,
		auth:     opts.Auth,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		router:   gin.New(),
	}

	s.router.Use(gin.Recovery(), s.requestLogger(), s.metrics.Middleware())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(s.auth.Middleware())

	view := auth.RequirePermission(models.PermViewAlerts)
	api.GET("/alerts", view, s.listAlerts)
	api.GET("/alerts/:id/details", view, s.alertDetails)

	signals := api.Group("/signals", view)
	{
		signals.GET("", s.listSignals)
		signals.GET("/:code/variables", s.signalVariables)
		signals.GET("/:code/alerts/:id/details", s.signalAlertDetails)
	}

	sessions := api.Group("/sessions", auth.RequirePermission(models.PermComposeRules))
	{
		sessions.POST("", s.createSession)
		sessions.GET("/:id", s.getSession)
		sessions.DELETE("/:id", s.deleteSession)
		sessions.PUT("/:id/signal", s.switchSignal)
		sessions.GET("/:id/variables", s.sessionVariables)
		sessions.POST("/:id/blocks/:block/pieces", s.addPiece)
		sessions.POST("/:id/blocks/:block/reset", s.resetBlock)
		sessions.POST("/:id/blocks/:block/save", s.saveBlock)
		sessions.POST("/:id/publish", auth.RequirePermission(models.PermPublishRules), s.publishSession)
	}

	// Rule management endpoints
	rules := api.Group("/rules")
	{
		rules.GET("", view, s.listRules)
		rules.GET("/export", auth.RequireRole(models.RoleAdmin), s.exportRules)
		rules.GET("/:id", view, s.getRule)
		rules.DELETE("/:id", auth.RequireRole(models.RoleAdmin), s.deleteRule)
		rules.PUT("/:id/enable", auth.RequireRole(models.RoleAdmin), s.enableRule)
		rules.PUT("/:id/disable", auth.RequireRole(models.RoleAdmin), s.disableRule)
		rules.POST("/import", auth.RequireRole(models.RoleAdmin), s.importRules)
	}

	api.GET("/dashboard", auth.RequirePermission(models.PermViewDashboard), s.dashboard)
	api.POST("/dashboard/notify", auth.RequirePermission(models.PermSendDigest), s.notifyDashboard)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on port until Shutdown is called.
func (s *Server) Start(port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server listening", zap.Int("port", port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)

		c.Next()

		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user", c.GetString(auth.ContextUsername)),
		)
	}
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var ve *models.ValidationError
	var le *models.LoadError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &le):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": le.Error()})
	case errors.Is(err, models.ErrSessionNotFound),
		errors.Is(err, models.ErrRuleNotFound),
		errors.Is(err, models.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"alerts":   len(s.store.Alerts()),
		"sessions": s.sessions.Count(),
	})
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := s.auth.Login(loginReq.Username, loginReq.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
