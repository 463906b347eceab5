package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/orbitalworks/demands-service/core"
	"github.com/orbitalworks/demands-service/internal/api"
	"github.com/orbitalworks/demands-service/internal/config"
	"github.com/orbitalworks/demands-service/internal/logging"
	"github.com/orbitalworks/demands-service/internal/observability"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the demands API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewAPICollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	engine, err := core.NewSpaceNetEngine(log, cfg.JavaPath, cfg.EnginePath)
	if err != nil {
		log.Error(ctx, "failed to configure engine", logging.String("error", err.Error()))
		os.Exit(1)
	}

	analyzer := core.NewAnalyzer(engine, log, core.WithMetricsRecorder(collector))
	server := api.NewServer(analyzer, cfg.Timeout, log, collector)

	apiSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: server.Handler(),
	}

	log.Info(ctx, "starting demands API server",
		logging.String("addr", *httpAddr),
		logging.String("engine", cfg.EnginePath),
		logging.Duration("engine_timeout", cfg.Timeout),
	)
	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "API server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down demands API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.APICollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	return srv
}
