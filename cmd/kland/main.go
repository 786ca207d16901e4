package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sleepstars/kland/internal/config"
	"github.com/sleepstars/kland/internal/logging"
	"github.com/sleepstars/kland/internal/objectstore"
	"github.com/sleepstars/kland/internal/proxy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "kland",
		Short:        "Serve kland images from object storage",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.ValidateProxy(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	return cmd
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (objectstore.Store, func() error, error) {
	if cfg.Storage.Backend == "dir" {
		d, err := objectstore.NewDir(cfg.Storage.StaticDir, cfg.Storage.Cache, logger)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}

	s, err := objectstore.NewS3(ctx, objectstore.S3Options{
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, func() error { return nil }, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h := proxy.NewHandler(store, logger, proxy.NewMetrics(reg))

	srv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: proxy.NewRouter(h, reg),
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()
	logger.Info("running", zap.String("addr", srv.Addr), zap.String("backend", cfg.Storage.Backend))

	// 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigChan:
		logger.Info("shutting down...", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
