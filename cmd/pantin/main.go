// Package main provides the entry point for pantin.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skarab42/pantin-go/internal/config"
	"github.com/skarab42/pantin-go/internal/handlers"
	"github.com/skarab42/pantin-go/internal/metrics"
	"github.com/skarab42/pantin-go/internal/middleware"
	"github.com/skarab42/pantin-go/internal/pool"
	"github.com/skarab42/pantin-go/pkg/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pantin %s\n", version.Full())
		return
	}

	cfg := config.Load()

	setupLogging(cfg.LogLevel)
	printBanner()

	metrics.SetBuildInfo(version.Full(), version.GoVersion())

	memStop := make(chan struct{})
	go metrics.StartMemoryCollector(15*time.Second, memStop)

	log.Info().Int("max_size", cfg.BrowserPoolMaxSize).Str("program", cfg.BrowserProgram).
		Msg("initializing browser pool")

	browserPool := pool.New(pool.Config{
		MaxSize:         cfg.BrowserPoolMaxSize,
		MaxAge:          cfg.BrowserMaxAge,
		MaxRecycleCount: cfg.BrowserMaxRecycleCount,
		BrowserProgram:  cfg.BrowserProgram,
		Trace:           cfg.LogLevel == "trace",
	})

	poolMetricsStop := make(chan struct{})
	go collectPoolMetrics(browserPool, cfg, poolMetricsStop)

	handler := handlers.New(browserPool, cfg)

	var finalHandler http.Handler = handler.Mux()
	finalHandler = middleware.Logging(finalHandler)
	finalHandler = middleware.Recovery(finalHandler)

	addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           finalHandler,
		ReadTimeout:       cfg.RequestTimeout + 10*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", addr).Msg("pantin is ready to accept requests")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	signal.Stop(quit)

	log.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	close(poolMetricsStop)
	close(memStop)

	log.Info().Msg("draining browser pool")
	browserPool.Drain()

	log.Info().Msg("shutdown complete")
}

// collectPoolMetrics periodically pushes pool occupancy into the
// Prometheus gauges; the pool itself stays metrics-agnostic.
func collectPoolMetrics(p *pool.Pool, cfg *config.Config, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			available := p.Available()
			size := p.Size()
			metrics.UpdatePoolMetrics(int64(cfg.BrowserPoolMaxSize), available, size-available)
		case <-stop:
			return
		}
	}
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func printBanner() {
	banner := `
 ____             _   _
|  _ \ __ _ _ __ | |_(_)_ __
| |_) / _' | '_ \| __| | '_ \
|  __/ (_| | | | | |_| | | | |
|_|   \__,_|_| |_|\__|_|_| |_|
`
	fmt.Println(banner)
	log.Info().
		Str("version", version.Full()).
		Str("go_version", version.GoVersion()).
		Msg("starting pantin")
}
