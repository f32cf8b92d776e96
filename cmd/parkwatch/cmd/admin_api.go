package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var adminAPICmd = &cobra.Command{
	Use:   "admin-api",
	Short: "Start the HTTP admin API",
	RunE:  runAdminAPI,
}

func init() {
	rootCmd.AddCommand(adminAPICmd)
	adminAPICmd.Flags().String("host", "", "HTTP server host (default from config)")
	adminAPICmd.Flags().Int("port", 0, "HTTP server port (default from config)")
}

func runAdminAPI(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("host") {
		cfg.AdminAPI.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.AdminAPI.Port, _ = cmd.Flags().GetInt("port")
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
	c, closeCache, err := openCache(ctx, m)
	if err != nil {
		return err
	}
	defer closeCache()

	srv, err := buildAdminServer(l, c, m)
	if err != nil {
		return err
	}

	addr := adminAddr()
	zlog.Info("starting admin api", zap.String("version", Version), zap.String("addr", addr))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(addr)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		zlog.Info("shutting down gracefully")
		if err := shutdownHTTP("admin api", srv.Shutdown); err != nil {
			return err
		}
		return <-errChan
	}
}
