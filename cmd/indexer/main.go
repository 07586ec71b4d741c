// Command indexer consumes ingest events from Kafka and writes them into
// the partitioned index.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shardex/shardex/internal/engine"
	"github.com/shardex/shardex/internal/indexer/consumer"
	"github.com/shardex/shardex/internal/store"
	"github.com/shardex/shardex/internal/tokenizer"
	"github.com/shardex/shardex/pkg/config"
	"github.com/shardex/shardex/pkg/kafka"
	"github.com/shardex/shardex/pkg/logger"
	"github.com/shardex/shardex/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"driver", cfg.Storage.Driver,
		"partitions", cfg.Index.Partitions,
	)

	st, err := store.Open(cfg.Storage, cfg.Index.Partitions)
	if err != nil {
		slog.Error("failed to open index store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("index store opened", "partitions", st.Partitions())

	eng := engine.New(st)
	tok := tokenizer.New(cfg.Index.Stopwords)

	m := metrics.New()
	var stopMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		stopMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := consumer.HandleMessage(eng, tok, m)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentIngest,
		handler,
	)

	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	if stopMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := stopMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}

	slog.Info("indexer service stopped")
}
