package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aq2208/gorder-storefront/cmd/storefront/app"
	"github.com/aq2208/gorder-storefront/configs"
	"github.com/aq2208/gorder-storefront/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}
	configDir := os.Getenv("STOREFRONT_CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}

	cfg, err := configs.Load(configDir, env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "storefront: load config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := app.InitWithConfig(ctx, cfg)
	if err != nil {
		logging.Base().Error("startup_failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Base().Error("server_failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}
