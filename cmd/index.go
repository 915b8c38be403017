package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/DaBoB6868/dorm-ra-bot/internal/app"
	"github.com/DaBoB6868/dorm-ra-bot/internal/config"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// runIndex chunks every document in the configured document directory,
// embeds the chunks, and stores them in the vector store. Safe to re-run;
// each source's previous chunks are replaced in the same transaction.
func runIndex(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	chunks, err := a.Populator.Chunks(ctx)
	if err != nil {
		return fmt.Errorf("chunking documents: %w", err)
	}
	if len(chunks) == 0 {
		logger.Warn("no documents found", "dir", cfg.DocumentDir)
		fmt.Println("No documents to index.")
		return nil
	}

	logger.Info("indexing chunks", "count", len(chunks))
	if err := a.Knowledge.Add(ctx, chunks); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	total, err := a.Knowledge.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}

	fmt.Printf("Indexed %d chunks (%d total in store).\n", len(chunks), total)
	return nil
}
