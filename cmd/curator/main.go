package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytesip-hq/bytesip-news-curator/internal/app"
	"github.com/bytesip-hq/bytesip-news-curator/internal/config"
	"github.com/bytesip-hq/bytesip-news-curator/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "curator start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	// Access tokens stay out of the startup log.
	logger.InfoObj("curator starting", "config", map[string]any{
		"app_name":    cfg.AppName,
		"app_env":     cfg.Env,
		"listen_addr": cfg.ListenAddr,
		"cache_type":  cfg.CacheType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	curatorApp, err := app.NewCurator(ctx, cfg)
	if err != nil {
		logger.ErrorObj("failed to initialize curator", "error", err)
		return err
	}

	if err := curatorApp.Run(ctx); err != nil {
		return fmt.Errorf("curator run: %w", err)
	}

	return nil
}
