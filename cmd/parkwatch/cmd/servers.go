package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/solatis/parkwatch/internal/core/api"
	"github.com/solatis/parkwatch/internal/core/auth"
	"github.com/solatis/parkwatch/internal/core/cache"
	"github.com/solatis/parkwatch/internal/core/config"
	"github.com/solatis/parkwatch/internal/core/httpapi"
	"github.com/solatis/parkwatch/internal/core/metrics"
	"github.com/solatis/parkwatch/internal/core/server"
)

// shutdownTimeout bounds draining of the HTTP servers.
const shutdownTimeout = 30 * time.Second

// openMetrics returns nil when metrics are disabled.
func openMetrics() (*metrics.Metrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

func adminAddr() string {
	return net.JoinHostPort(cfg.AdminAPI.Host, strconv.Itoa(cfg.AdminAPI.Port))
}

// buildAdminServer wires the store, the optional cache and metrics into the
// HTTP admin API.
func buildAdminServer(l *local, c *cache.Cache, m *metrics.Metrics) (*httpapi.Server, error) {
	opts := httpapi.Options{
		Version:        Version,
		MaxConditions:  cfg.AdminAPI.MaxConditions,
		MaxBodyBytes:   cfg.AdminAPI.MaxBodyBytes,
		RequestTimeout: cfg.AdminAPI.RequestTimeout,
		Logger:         zlog,
		Metrics:        m,
	}
	if c != nil {
		opts.Profiles = c.Profiles(l.store)
		opts.Cache = c
	}
	srv, err := httpapi.New(l.store, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin api: %w", err)
	}
	return srv, nil
}

// buildSensorServer wires authentication, cached reads and metrics into the
// gRPC sensor API.
func buildSensorServer(l *local, c *cache.Cache, m *metrics.Metrics) (*server.GRPCServer, error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, fmt.Errorf("%w (set PW_HMAC_SECRET)", auth.ErrNoSecrets)
	}
	authenticator, err := auth.NewAuthenticator(secrets, l.queries, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	var (
		conditions api.ConditionFetcher = l.store
		profiles   api.ProfileLister    = l.store
	)
	if c != nil {
		conditions = c.Conditions(l.store)
		profiles = c.Profiles(l.store)
	}

	service, err := api.NewSensorAPIService(conditions, profiles, &cfg.SensorAPI, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	service.SetMetrics(m)

	grpcServer, err := server.NewGRPCServer(&cfg.SensorAPI, service, authenticator, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create sensor api: %w", err)
	}
	return grpcServer, nil
}

// metricsServer serves m on addr for processes without the admin API.
func metricsServer(addr string, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// serveMetrics runs srv until it is shut down.
func serveMetrics(srv *http.Server) error {
	zlog.Info("metrics listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve metrics: %w", err)
	}
	return nil
}

func shutdownHTTP(name string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down %s: %w", name, err)
	}
	return nil
}
