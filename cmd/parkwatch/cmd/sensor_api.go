package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sensorAPICmd = &cobra.Command{
	Use:   "sensor-api",
	Short: "Start gRPC sensor API service",
	RunE:  runSensorAPI,
}

func init() {
	rootCmd.AddCommand(sensorAPICmd)
	sensorAPICmd.Flags().String("host", "", "gRPC server host (default from config)")
	sensorAPICmd.Flags().Int("port", 0, "gRPC server port (default from config)")
}

func runSensorAPI(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("host") {
		cfg.SensorAPI.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.SensorAPI.Port, _ = cmd.Flags().GetInt("port")
	}

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
	// Without Redis there is no cache: a private one would miss the admin
	// API's invalidations and serve stale rules until the TTL.
	c, closeCache, err := openCache(ctx, m)
	if err != nil {
		return err
	}
	defer closeCache()

	grpcServer, err := buildSensorServer(l, c, m)
	if err != nil {
		return err
	}

	zlog.Info("starting sensor api",
		zap.String("version", Version),
		zap.String("host", cfg.SensorAPI.Host),
		zap.Int("port", cfg.SensorAPI.Port),
	)
	errChan := make(chan error, 2)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	if m != nil && cfg.Metrics.Addr != "" {
		ms := metricsServer(cfg.Metrics.Addr, m)
		go func() {
			if err := serveMetrics(ms); err != nil {
				errChan <- err
			}
		}()
		defer shutdownHTTP("metrics", ms.Shutdown)
	}

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		zlog.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}
