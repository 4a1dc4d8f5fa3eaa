// Package main modelcfg API
// @title modelcfg API
// @version 1.0
// @description Structural checks for model accuracy-benchmark and compression descriptors
// @contact.name API Support
// @license.name Apache 2.0
// @license.url https://opensource.org/licenses/Apache-2.0
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/DjordjeVuckovic/modelcfg/docs"
	"github.com/DjordjeVuckovic/modelcfg/internal/api/router"
	"github.com/DjordjeVuckovic/modelcfg/internal/api/server"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage/factory"
	pkgserver "github.com/DjordjeVuckovic/modelcfg/pkg/server"
	"github.com/labstack/echo/v4"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	storageCfg, err := factory.LoadEnv()
	if err != nil {
		slog.Error("Failed to load storage config", "error", err)
		os.Exit(1)
	}

	strict := os.Getenv("STRICT_CHECKS") == "true"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := factory.NewStore(ctx, storageCfg)
	cancel()
	if err != nil {
		slog.Error("Failed to create store", "type", storageCfg.Type, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	s := server.New(sCfg, pkgserver.NewPingHealthChecker(store, 2*time.Second)).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupMetrics("/metrics").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "modelcfg API is running")
	})

	router.NewCheckRouter(s.Echo, store, router.WithDefaultStrict(strict)).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
