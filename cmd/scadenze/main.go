package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"scadenze/internal/cli"
	"scadenze/internal/config"
	apphttp "scadenze/internal/http"
	"scadenze/internal/log"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := run(logger, cfg); err != nil {
		logger.ErrorContext(context.Background(), "Server error",
			log.FieldError, err.Error(),
			"port", cfg.Port)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// Migration failures exit here, before the listener opens.
	b := cli.InitBackend(ctx, logger, cfg)
	defer b.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Entries:     b.Entries,
		Aggregator:  b.Aggregation,
		Dashboard:   b.Dashboard,
		Reports:     b.Reports,
		Settings:    b.Settings,
		Maintenance: b.Maintenance,
		Ready:       b,
	}, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		EnableHSTS:         cfg.EnableHSTS,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting scadenze server",
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath,
			"rounding", cfg.InstallmentRounding,
			"timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cli.GracefulShutdown(gctx, logger, 30*time.Second, srv.Shutdown)
	})

	return g.Wait()
}
