package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/catalog"
	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/opendata-catalog-etl/internal/adapter/kafka"
	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/opendata-catalog-etl/internal/config"
	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
	"github.com/couchcryptid/opendata-catalog-etl/internal/observability"
	"github.com/couchcryptid/opendata-catalog-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}()

	if err := store.ResetSchema(ctx); err != nil {
		return err
	}
	seeded, err := store.SeedTaxonomy(ctx, domain.GeoTaxonomy())
	if err != nil {
		return err
	}
	logger.Info("geo taxonomy seeded", "version", domain.TaxonomyVersion, "inserted", seeded)

	// Catalog event sink, feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.RecordPublisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	client := catalog.NewClient(catalog.Options{
		BaseURL:  cfg.CatalogBaseURL,
		PageSize: cfg.CatalogPageSize,
		Sort:     cfg.CatalogSort,
		Timeout:  cfg.CatalogTimeout,
	}, logger)

	p := pipeline.New(client, store, publisher, logger, metrics, cfg.MaxPages)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(store, p), p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("ingestion: %w", err)
	}

	counts, err := csvexport.NewExporter(store, logger).ExportAll(ctx, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("export complete", "dir", cfg.OutputDir, "files", counts)
	return nil
}
