package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/cli"
	"github.com/hyperjump/tfexplorer/internal/config"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/storage"
)

func openStore(cfg *config.Config) *storage.SQLiteStorage {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath,
		storage.WithHistoryLimit(cfg.Storage.HistoryLimit))
	if err != nil {
		fatalf("Failed to open database: %v", err)
	}
	return store
}

// importSource resolves the embedding table to import: the configured table when
// arg is empty, the configured file name inside arg when arg is a directory, or arg itself.
func importSource(cfg *config.Config, arg string) string {
	if arg == "" {
		return filepath.Join(cfg.Data.Dir, cfg.Data.Files.Full)
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return filepath.Join(arg, cfg.Data.Files.Full)
	}
	return arg
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, false, false)
	defer logger.Sync()

	path := importSource(cfg, fs.Arg(0))
	idx, err := dataset.LoadTable(path)
	if err != nil {
		fatalf("Failed to read embedding table: %v", err)
	}

	store := openStore(cfg)
	defer store.Close()

	n, err := store.ImportEmbeddings(context.Background(), idx.Entries())
	if err != nil {
		fatalf("Import failed: %v", err)
	}
	logger.Info("embeddings imported",
		zap.String("source", path),
		zap.String("database", store.Path()),
		zap.Int("words", n),
		zap.Int("dimensions", idx.Dimensions()))
	fmt.Printf("Imported %d words (%d dimensions) from %s\n", n, idx.Dimensions(), path)
}

func runHistory() {
	sub := "list"
	args := os.Args[2:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		sub, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of entries to list")
	output := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(args))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, _, logger := setup(*configPath, false, true)
	defer logger.Sync()
	store := openStore(cfg)
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		entries, err := store.ListHistory(ctx, *limit)
		if err != nil {
			fatalf("List failed: %v", err)
		}
		if err := cli.WriteHistory(os.Stdout, entries, format); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "show":
		if fs.NArg() < 1 {
			fmt.Println("Usage: tfexplorer history show <id>")
			os.Exit(1)
		}
		entry, err := store.GetHistory(ctx, fs.Arg(0))
		if err != nil {
			fatalf("Show failed: %v", err)
		}
		if err := cli.WriteHistory(os.Stdout, []*storage.HistoryEntry{entry}, cli.OutputJSON); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "clear":
		n, err := store.ClearHistory(ctx)
		if err != nil {
			fatalf("Clear failed: %v", err)
		}
		fmt.Printf("Cleared %d entries\n", n)
	default:
		fmt.Printf("Unknown history subcommand: %s\n", sub)
		fmt.Println("Usage: tfexplorer history <list|show|clear> [flags]")
		os.Exit(1)
	}
}
