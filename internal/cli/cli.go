// Package cli parses the set grouper command line and runs one batch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/phrazzld/setgrouper/internal/aggregate"
	"github.com/phrazzld/setgrouper/internal/cachestore"
	"github.com/phrazzld/setgrouper/internal/cardcache"
	"github.com/phrazzld/setgrouper/internal/config"
	"github.com/phrazzld/setgrouper/internal/decklist"
	"github.com/phrazzld/setgrouper/internal/export"
	"github.com/phrazzld/setgrouper/internal/platform/logger"
	"github.com/phrazzld/setgrouper/internal/platform/scryfall"
	"github.com/phrazzld/setgrouper/internal/service"
	"github.com/spf13/pflag"
)

// Options holds the command-line settings.
type Options struct {
	ConfigPath      string
	Input           string
	CSV             bool
	Exclude         []string
	Progress        bool
	CacheStats      bool
	ClearCache      bool
	Backend         string
	Concurrency     int
	IncludeUnpriced bool
}

// ParseOptions parses args into Options.
// The single optional positional argument is the deck-list file; "-" or
// none reads standard input.
func ParseOptions(fs *pflag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "path to a config file (default ./config.yaml when present)")
	fs.BoolVar(&opts.CSV, "csv", false, "write results as CSV")
	fs.StringArrayVar(&opts.Exclude, "exclude", nil, "remove a card from every set (repeatable)")
	fs.BoolVar(&opts.Progress, "progress", false, "report progress on stderr")
	fs.BoolVar(&opts.CacheStats, "cache-stats", false, "print cache statistics")
	fs.BoolVar(&opts.ClearCache, "clear-cache", false, "remove every cached entry")
	fs.StringVar(&opts.Backend, "backend", "", "override the cache backend (sqlite, postgres, redis, memory)")
	fs.IntVar(&opts.Concurrency, "concurrency", 0, "override the number of names resolved at once")
	fs.BoolVar(&opts.IncludeUnpriced, "include-unpriced", false, "keep prints without a market price")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.Input = fs.Arg(0)
	default:
		return Options{}, fmt.Errorf("expected at most one deck-list file, got %d arguments", fs.NArg())
	}
	return opts, nil
}

// maintenanceOnly reports whether the run only manages the cache.
func (o Options) maintenanceOnly() bool {
	return (o.CacheStats || o.ClearCache) && o.Input == ""
}

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run loads configuration, resolves the deck list and writes the result.
func Run(ctx context.Context, opts Options, streams Streams) error {
	return run(ctx, opts, streams, nil)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		cfg.Cache.Backend = opts.Backend
	}
	if opts.Concurrency > 0 {
		cfg.Pipeline.Concurrency = opts.Concurrency
	}
	if opts.IncludeUnpriced {
		cfg.Pipeline.ExcludeZeroPrice = false
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts Options, streams Streams, searcher scryfall.Searcher) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logger.SetupWithWriter(cfg.Server, streams.Err).With(slog.String("component", "cli"))

	entryStore, err := cachestore.Open(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := entryStore.Close(); err != nil {
			log.Error("error closing cache store", slog.String("error", err.Error()))
		}
	}()

	cache := cardcache.New(entryStore,
		cardcache.WithExpiration(cfg.Cache.Expiration),
		cardcache.WithRetention(cfg.Cache.RetentionCount),
		cardcache.WithLogger(log),
	)

	if opts.ClearCache {
		cache.Clear(ctx)
		fmt.Fprintln(streams.Out, "cache cleared")
	}
	if opts.CacheStats {
		writeStats(streams.Out, cache.Stats(ctx))
	}
	if opts.maintenanceOnly() {
		return nil
	}

	text, err := readInput(opts.Input, streams.In)
	if err != nil {
		return err
	}
	names := decklist.ExtractCardNames(text)
	if len(names) == 0 {
		return service.ErrNoNames
	}

	if searcher == nil {
		searcher = scryfall.NewClient(cfg.Scryfall, scryfall.WithLogger(log))
	}
	svc, err := service.NewCardSetService(cache, searcher, service.Config{
		Concurrency: cfg.Pipeline.Concurrency,
		Policy:      service.Policy{ExcludeZeroPrice: cfg.Pipeline.ExcludeZeroPrice},
	}, log, nil)
	if err != nil {
		return err
	}

	var onProgress service.ProgressFunc
	if opts.Progress {
		total := len(names)
		onProgress = func(n int) { fmt.Fprintf(streams.Err, "%d/%d\n", n, total) }
	}
	collection := svc.FetchCardSets(ctx, names, onProgress)

	for _, name := range opts.Exclude {
		collection = aggregate.Prune(collection, name)
	}

	if opts.CSV {
		return export.WriteCSV(streams.Out, collection)
	}
	if len(collection) == 0 {
		_, err := fmt.Fprintln(streams.Out, "no sets found")
		return err
	}
	return export.WriteText(streams.Out, collection)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		if stdin == nil {
			return "", errors.New("no deck list on standard input")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read deck list: %w", err)
	}
	return string(b), nil
}

func writeStats(w io.Writer, stats cardcache.Stats) {
	fmt.Fprintf(w, "entries: %d\n", stats.Count)
	fmt.Fprintf(w, "approx bytes: %d\n", stats.ApproxBytes)
	if stats.Oldest != nil {
		fmt.Fprintf(w, "oldest: %s\n", stats.Oldest.UTC().Format(time.RFC3339))
	}
}
