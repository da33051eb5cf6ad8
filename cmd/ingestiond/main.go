// Command ingestiond is the data-lake ingestion service's long-running
// daemon entrypoint: it loads host configuration, wires the C1–C10
// components, starts the scheduler and the ops HTTP surface, and blocks
// until signaled to stop.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/r3e-network/datalake-ingestion/internal/certprovider"
	"github.com/r3e-network/datalake-ingestion/internal/config"
	"github.com/r3e-network/datalake-ingestion/internal/connresolve"
	"github.com/r3e-network/datalake-ingestion/internal/datasource"
	"github.com/r3e-network/datalake-ingestion/internal/ledger"
	"github.com/r3e-network/datalake-ingestion/internal/logging"
	"github.com/r3e-network/datalake-ingestion/internal/metrics"
	"github.com/r3e-network/datalake-ingestion/internal/opsserver"
	"github.com/r3e-network/datalake-ingestion/internal/scheduler"
	"github.com/r3e-network/datalake-ingestion/internal/secretstore"
	"github.com/r3e-network/datalake-ingestion/internal/transform"
	"github.com/r3e-network/datalake-ingestion/internal/upload"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("ingestiond: fatal config error: " + err.Error() + "\n")
		return 1
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Path:   cfg.Logging.Path,
	})
	log.WithField("environment", cfg.Environment).Info("ingestiond: starting")

	certs := certprovider.NewStatic()

	secretClient, err := secretstore.New(secretstore.Config{
		Provider:      cfg.Secrets.Provider,
		BaseURL:       cfg.Secrets.BaseURL,
		Token:         cfg.Secrets.Token,
		APIKey:        cfg.Secrets.APIKey,
		MutualTLS:     cfg.Secrets.MutualTLS,
		Thumbprint:    cfg.Secrets.Thumbprint,
		SubjectName:   cfg.Secrets.SubjectName,
		StoreName:     cfg.Secrets.StoreName,
		StoreLocation: cfg.Secrets.StoreLocation,
		RateLimitPerS: cfg.Secrets.RateLimitPerS,
	}, certs)
	if err != nil {
		// spec §6.6 scopes vault misconfiguration to failing only the
		// execution that needed a secret, not the whole daemon: run with a
		// client that fails every GetSecret instead of exiting, so the
		// error surfaces per-execution once a dataset actually resolves a
		// connection template.
		log.WithField("error", err).Error("ingestiond: failed to build secret store client, datasets will fail at resolve time")
		secretClient = secretstore.Failing(err)
	}

	resolver := connresolve.New(secretClient, cfg.Secrets.CacheTTL)
	registry := transform.NewRegistry(log)

	var ledgerSink ledger.Sink = ledger.NoOp{}
	if cfg.Ledger.DSN != "" {
		sink, err := ledger.NewPostgresSink(cfg.Ledger.DSN, cfg.Ledger.MigrationsPath)
		if err != nil {
			log.WithField("error", err).Error("ingestiond: ledger unavailable, continuing without execution history")
		} else {
			ledgerSink = sink
			defer sink.Close()
		}
	}

	promReg := prometheus.NewRegistry()
	metricsRegistry := metrics.New(promReg)

	ops := opsserver.New(cfg.Ops.ListenAddr, promReg)
	opsErrCh := ops.Start()

	sched := scheduler.New(scheduler.Dependencies{
		Resolver:          resolver,
		Registry:          registry,
		DataSourceFactory: datasource.NewFactory(),
		UploadFactory: &upload.Factory{
			FSBasePath:     cfg.Upload.FSBasePath,
			BlobAccountURL: cfg.Upload.BlobAccountURL,
			BlobContainer:  cfg.Upload.BlobContainer,
		},
		Ledger:              ledgerSink,
		Metrics:             metricsRegistry,
		Log:                 log,
		Environment:         cfg.Environment,
		ConnectionTemplates: cfg.ConnectionTemplates,
		DatasetsDir:         cfg.Datasets.Directory,
		HotReload:           cfg.Datasets.HotReload,
		PollInterval:        cfg.Datasets.PollInterval,
		StopGracePeriod:     cfg.Datasets.StopGracePeriod,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.WithField("error", err).Error("ingestiond: scheduler failed to start")
		return 1
	}
	ops.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("ingestiond: shutdown signal received")
	case err := <-opsErrCh:
		if err != nil {
			log.WithField("error", err).Error("ingestiond: ops server failed")
		}
	}

	ops.SetReady(false)
	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Datasets.StopGracePeriod)
	defer shutdownCancel()
	_ = ops.Shutdown(shutdownCtx)

	log.Info("ingestiond: stopped")
	return 0
}
