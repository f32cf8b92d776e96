// Package httpapi serves the admin HTTP API: the server side of the
// persistence gateway used by remote edit sessions and the CLI.
//
// Routes:
//
//	GET    /health
//	GET    /metrics (when Options.Metrics is set)
//	GET    /api/device-types/:objectId/profiles
//	PUT    /api/device-types/:objectId/profiles
//	GET    /api/event-conditions?objectId=
//	PUT    /api/event-conditions
//	POST   /api/event-conditions/validate
//	DELETE /api/event-conditions/:id?objectId=
//
// PUT re-runs set validation against the stored catalog before replacing,
// so a client that skipped its own save gate cannot persist invalid rules.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/core/metrics"
	"github.com/solatis/parkwatch/internal/session"
	"github.com/solatis/parkwatch/internal/types"
)

// Backend is the storage the API fronts. Implemented by *store.Store.
type Backend interface {
	session.Gateway
	session.ProfileSource
	ReplaceProfiles(ctx context.Context, objectID types.ObjectID, profiles []types.DeviceProfile) error
	ConditionObject(ctx context.Context, id types.ConditionID) (types.ObjectID, error)
}

// Invalidator drops cached reads after a write. Implemented by *cache.Cache.
type Invalidator interface {
	Invalidate(ctx context.Context, objectID types.ObjectID) error
}

// Options tunes the server. Zero values take defaults.
type Options struct {
	Version        string
	MaxConditions  int
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Logger         *zap.Logger

	// Profiles overrides the catalog source used for validation, normally a
	// cached view of the backend.
	Profiles session.ProfileSource
	// Cache, if set, is invalidated after every write.
	Cache Invalidator
	// Metrics, if set, records requests and saves and serves GET /metrics.
	Metrics *metrics.Metrics
}

// Server is the admin HTTP API.
type Server struct {
	echo     *echo.Echo
	backend  Backend
	profiles session.ProfileSource
	cache    Invalidator
	metrics  *metrics.Metrics
	opts     Options
	logger   *zap.Logger
}

// New creates the server and registers its routes.
func New(backend Backend, opts Options) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if opts.MaxConditions <= 0 || opts.MaxConditions > types.MaxConditionsPerObject {
		opts.MaxConditions = types.MaxConditionsPerObject
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		echo:     echo.New(),
		backend:  backend,
		profiles: opts.Profiles,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		opts:     opts,
		logger:   opts.Logger,
	}
	if s.profiles == nil {
		s.profiles = backend
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	e := s.echo
	e.HTTPErrorHandler = errorHandler(s.logger)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error("handler panic", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	if s.metrics != nil {
		e.Use(s.observe)
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(s.opts.MaxBodyBytes, 10)))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      s.opts.RequestTimeout,
		ErrorMessage: "request timeout",
	}))
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET("/health", s.handleHealth)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	profiles := e.Group("/api/device-types/:objectId/profiles")
	profiles.GET("", s.handleListProfiles)
	profiles.PUT("", s.handleReplaceProfiles)

	conditions := e.Group("/api/event-conditions")
	conditions.GET("", s.handleListConditions)
	conditions.PUT("", s.handleReplaceConditions)
	conditions.POST("/validate", s.handleValidateConditions)
	conditions.DELETE("/:id", s.handleDeleteCondition)
}

// observe records the route pattern and final status of every request.
// The error handler runs after the middleware chain, so the status of a
// failed request is taken from the error.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			var apiErr *APIError
			var httpErr *echo.HTTPError
			switch {
			case errors.As(err, &apiErr):
				status = apiErr.Status
			case errors.As(err, &httpErr):
				status = httpErr.Code
			default:
				status = http.StatusInternalServerError
			}
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request().Method, route, status, time.Since(start))
		return err
	}
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("admin api listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve admin api: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// invalidate is best-effort: the cache TTL bounds staleness on failure.
func (s *Server) invalidate(ctx context.Context, objectID types.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, objectID); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("object_id", objectID), zap.Error(err))
	}
}

func objectIDParam(v string) (types.ObjectID, *APIError) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", NewValidationError("objectId is required", "objectId")
	}
	return v, nil
}
