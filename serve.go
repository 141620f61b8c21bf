package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	_ "newsharvest/docs"
	"newsharvest/internal/api"
	"newsharvest/internal/cache"
	"newsharvest/internal/dataset"
	"newsharvest/internal/enrich"
	"newsharvest/internal/runner"
)

var servePort int

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve collected datasets over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if cfg.LogLevel != "debug" && logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	cacheManager := cache.NewManager(cfg.Extract.CacheTTL)
	run := runner.New(cfg, logger)
	server := api.NewServer(cfg,
		dataset.NewService(cfg.Output.RawPath, cacheManager, logger),
		enrich.New(logger, enrich.WithVersion(cfg.Enrich.Version)),
		run,
		cacheManager,
		logger,
	)

	logger.Info("starting newsharvest server",
		"port", cfg.Port,
		"dataset", cfg.Output.RawPath,
		"snapshots", cfg.Output.SnapshotDir,
		"swagger", cfg.EnableSwagger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.StartWithContext(ctx)
	logger.Info("stopping background collection")
	run.Stop()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
