// Package main is the tfexplorer CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/attention"
	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/config"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/mcp"
	"github.com/hyperjump/tfexplorer/internal/server"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/tokenizer"
	"github.com/hyperjump/tfexplorer/internal/vector"
	"github.com/hyperjump/tfexplorer/internal/viewport"
	"github.com/hyperjump/tfexplorer/internal/watcher"
	"github.com/hyperjump/tfexplorer/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tfexplorer/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present, and a missing default file falls back to
// built-in defaults plus environment overrides.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "neighbors":
		runNeighbors()
	case "analogy":
		runAnalogy()
	case "tokenize":
		runTokenize()
	case "camera":
		runCamera()
	case "import":
		runImport()
	case "history":
		runHistory()
	case "mcp":
		runMCP()
	case "version", "--version", "-v":
		fmt.Printf("tfexplorer version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config and builds a logger. Quiet commands only log warnings.
func setup(configPath string, debug, quiet bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || debug
	var logger *zap.Logger
	if quiet && !debugMode {
		logger, err = utils.NewQuietLogger()
	} else {
		logger, err = utils.NewLogger(debugMode)
	}
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (dataset reloads, query details)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug, false)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("data_dir", cfg.Data.Dir),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{
		history:        true,
		allowNoDataset: true,
	})
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Data.Watch {
		w := watcher.NewWatcher(
			cfg.Data.Dir,
			dataset.Files(cfg.Data.Files).Names(),
			components.Holder.Reload,
			watcher.WithLogger(logger),
			watcher.WithDebounce(time.Duration(cfg.Data.DebounceMS)*time.Millisecond),
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Warn("dataset watcher not started", zap.String("dir", cfg.Data.Dir), zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	registry := viewport.NewRegistry(
		cfg.Camera.ViewportCapacity,
		camera.NewSanitizer(cfg.Camera.MinDistance),
		cfg.Camera.Default,
	)
	srv := server.NewServer(components.Engine, registry, components.Store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	history := fs.Bool("history", false, "record tool queries in the history database")
	_ = fs.Parse(os.Args[2:])

	cfg, _, logger := setup(*configPath, false, true)
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger, componentOptions{history: *history})
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	s, _ := mcp.NewServer(
		components.Engine,
		camera.NewSanitizer(cfg.Camera.MinDistance),
		cfg.Camera.Default,
		version,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(s)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("mcp server stopped", zap.Error(err))
		}
	}
}

// Components holds initialized services.
type Components struct {
	Holder *dataset.Holder
	Store  storage.Store
	Engine *explorer.Engine
}

// Close releases the engine and the history database.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

type componentOptions struct {
	// history opens the database and records queries in it.
	history bool
	// fromDB serves embeddings imported into the database instead of the data directory.
	fromDB bool
	// allowNoDataset starts even when the data directory has no artifacts yet.
	allowNoDataset bool
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts componentOptions) (*Components, error) {
	c := &Components{
		Holder: dataset.NewHolder(cfg.Data.Dir, dataset.Files(cfg.Data.Files), logger),
	}

	if opts.history || opts.fromDB {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath,
			storage.WithHistoryLimit(cfg.Storage.HistoryLimit))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Store = store
	}

	if opts.fromDB {
		entries, err := c.Store.LoadEmbeddings(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to load stored embeddings: %w", err)
		}
		idx, err := vector.New(entries)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to build index from stored embeddings: %w", err)
		}
		c.Holder.Set(dataset.FromIndex(idx))
	} else if err := c.Holder.Reload(); err != nil {
		if !opts.allowNoDataset {
			c.Close()
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		logger.Warn("starting without a dataset", zap.String("dir", cfg.Data.Dir), zap.Error(err))
	}

	engineOpts := []explorer.Option{
		explorer.WithLimits(cfg.Embedding.NeighborCount, cfg.Embedding.AnalogyCount, cfg.Embedding.MaxTopN),
		explorer.WithSuggestions(cfg.Embedding.SuggestCount, cfg.Embedding.SuggestFuzziness),
		explorer.WithAttentionOptions(
			attention.WithTemperatureEpsilon(cfg.Attention.TemperatureEpsilon),
			attention.WithTemperatureRange(cfg.Attention.MinTemperature, cfg.Attention.MaxTemperature),
		),
	}
	if opts.history && c.Store != nil {
		engineOpts = append(engineOpts, explorer.WithStore(c.Store))
	}
	if cfg.Tokenizer.Live {
		engineOpts = append(engineOpts, explorer.WithLiveTokenizer(tokenizer.NewHashTokenizer(curatedVocab(c.Holder))))
	}
	c.Engine = explorer.NewEngine(c.Holder, logger, engineOpts...)
	return c, nil
}

// curatedVocab returns the primary tokenizer's vocabulary size, or 0 when unknown.
func curatedVocab(h *dataset.Holder) int {
	data, err := h.Current().TokenizerExamples()
	if err != nil {
		return 0
	}
	return data.Metadata.PrimaryTokenizer.VocabSize
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so flag.Parse sees them. Go's flag package stops at the
// first non-flag argument, so "tfexplorer neighbors king -n 5" would otherwise
// leave -n unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins positional args with spaces so multi-word input works with or
// without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printUsage() {
	fmt.Println(`tfexplorer - Word embedding, tokenizer and attention explorer

Usage:
  tfexplorer server [flags]                 Start the HTTP server
  tfexplorer neighbors [flags] <word>       Nearest neighbors of a word
  tfexplorer analogy [flags] <a> <b> <c>    Solve "a is to b as c is to ?"
  tfexplorer tokenize [flags] <text>        Tokenize text (or --file)
  tfexplorer camera [flags]                 Validate and repair a camera pose
  tfexplorer import [flags] [path]          Import an embedding table into the database
  tfexplorer history [list|show|clear]      Inspect recorded queries
  tfexplorer mcp [flags]                    Serve MCP tools over stdio
  tfexplorer version                        Show version
  tfexplorer help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/tfexplorer/config.yaml)
  --debug            Enable debug logging

Query Flags (neighbors, analogy):
  --config string    Config file path
  --server string    Server URL, e.g. http://localhost:8080 (default: load the dataset directly)
  --n int            Number of results (default from config)
  --output string    Output format: text, compact, or json (default: text)
  --xlsx string      Also export results to this .xlsx file
  --from-db          Use embeddings imported into the database
  --record           Record the query in history (direct mode)

Tokenize Flags:
  --file string      Read text from a .txt, .md, .pdf, .docx or .xlsx file
  --output string    Output format: text, compact, or json

Camera Flags:
  --eye x,y,z        Eye position (components may be left empty)
  --center x,y,z     Look-at point
  --up x,y,z         Up direction (missing components come from the fallback)
  --min-distance f   Minimum eye-to-center distance (default from config)

Examples:
  tfexplorer server
  tfexplorer neighbors king
  tfexplorer neighbors --n 20 --xlsx king.xlsx king
  tfexplorer analogy king man woman
  tfexplorer analogy --server http://localhost:8080 --output json paris france italy
  tfexplorer tokenize "Hello world"
  tfexplorer tokenize --file notes.pdf
  tfexplorer camera --eye 0,0,0 --center 0,0,0
  tfexplorer import ./data/embeddings_full.json
  tfexplorer history list --limit 20`)
}
