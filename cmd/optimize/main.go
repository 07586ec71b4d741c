// Command optimize rewrites every partition table in (hash, doc_id,
// position) order so postings for the same word are stored contiguously.
// Run it offline after bulk indexing; queries answered during a rewrite may
// briefly contend with it.
//
// Usage:
//
//	go run ./cmd/optimize [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shardex/shardex/internal/store"
	"github.com/shardex/shardex/pkg/config"
	"github.com/shardex/shardex/pkg/logger"
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

	st, err := store.Open(cfg.Storage, cfg.Index.Partitions)
	if err != nil {
		slog.Error("failed to open index store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("optimizing index",
		"driver", cfg.Storage.Driver,
		"partitions", st.Partitions(),
	)
	start := time.Now()
	if err := st.Optimize(ctx); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
	slog.Info("optimize complete", "elapsed", time.Since(start).Round(time.Millisecond))
}
