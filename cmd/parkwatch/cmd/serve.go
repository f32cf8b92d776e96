package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/parkwatch/internal/core/cache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API and the sensor API in one process",
	Long: `Serve runs both APIs against one database. Without Redis they share an
in-process cache, which the admin API invalidates on every write.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := openLocal(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	m, err := openMetrics()
	if err != nil {
		return err
	}
	c, closeCache, err := openCache(ctx, m)
	if err != nil {
		return err
	}
	defer closeCache()
	if c == nil {
		c = cache.NewMemory(cfg.Redis.KeyPrefix, cfg.Redis.TTL, zlog)
		if m != nil {
			c.SetRecorder(m)
		}
	}

	admin, err := buildAdminServer(l, c, m)
	if err != nil {
		return err
	}
	sensor, err := buildSensorServer(l, c, m)
	if err != nil {
		return err
	}

	zlog.Info("starting parkwatch",
		zap.String("version", Version),
		zap.String("admin_addr", adminAddr()),
		zap.String("sensor_host", cfg.SensorAPI.Host),
		zap.Int("sensor_port", cfg.SensorAPI.Port),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return admin.Start(adminAddr())
	})
	g.Go(func() error {
		return sensor.Start(gctx)
	})
	// The first failure, or a signal, stops both servers.
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down gracefully")
		adminErr := shutdownHTTP("admin api", admin.Shutdown)
		if err := sensor.Shutdown(context.Background()); err != nil {
			return err
		}
		return adminErr
	})
	return g.Wait()
}
