package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hallowtide/atelier/catalog"
	"github.com/hallowtide/atelier/config"
	"github.com/hallowtide/atelier/economy"
	"github.com/hallowtide/atelier/handlers"
	"github.com/hallowtide/atelier/logger"
	"github.com/hallowtide/atelier/metrics"
	"github.com/hallowtide/atelier/retry"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultHTTPAddr = "0.0.0.0:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	httpAddrFlag := flag.String("http-addr", defaultHTTPAddr, "Address to listen on (or set HTTP_ADDR env var)")
	seedFlag := flag.String("seed", "", "Path to a catalog YAML to apply before serving (or set CATALOG_SEED env var)")
	devModeFlag := flag.Bool("dev-mode", false, "Enable development endpoints like token grants (or set DEV_MODE=true env var)")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 30*time.Second, "Maximum time to wait for in-flight requests during graceful shutdown")

	flag.Parse()

	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	if envHTTPAddr := os.Getenv("HTTP_ADDR"); envHTTPAddr != "" {
		*httpAddrFlag = envHTTPAddr
	}
	if envSeed := os.Getenv("CATALOG_SEED"); envSeed != "" {
		*seedFlag = envSeed
	}
	if os.Getenv("DEV_MODE") == "true" {
		*devModeFlag = true
	}

	log := logger.New(*verboseFlag)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return config.LoadPostgres(log)
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer config.ClosePostgres()

	if *seedFlag != "" {
		c, err := catalog.Load(*seedFlag)
		if err != nil {
			return err
		}
		if err := c.Apply(ctx, log, config.PgPool); err != nil {
			return fmt.Errorf("apply catalog: %w", err)
		}
	}

	svc, err := economy.New(economy.Config{
		Logger: log,
		Pool:   config.PgPool,
	})
	if err != nil {
		return err
	}

	srv, err := handlers.NewServer(handlers.Config{
		Logger:  log,
		Service: svc,
		DevMode: *devModeFlag,
	})
	if err != nil {
		return err
	}
	if *devModeFlag {
		log.Warn("dev mode enabled, token-grant endpoint is live")
	}

	httpServer := &http.Server{
		Addr:         *httpAddrFlag,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "address", *httpAddrFlag, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeoutFlag)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
