package cli

import (
	"fmt"
	"os"

	"github.com/davidvella/barrace"
	"github.com/davidvella/barrace/internal/config"
	"github.com/davidvella/barrace/metrics"
	"github.com/davidvella/barrace/monitoring"
	"github.com/davidvella/barrace/storage"
	"github.com/davidvella/barrace/storage/memory"
	"github.com/davidvella/barrace/storage/pebble"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath    string
	verbose       bool
	backend       string
	path          string
	topN          int
	interpolation int
	keepOverflow  bool

	logger *zap.Logger
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "barrace",
		Short:        "Store measurements and build ranked bar chart race keyframes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			zc := zap.NewProductionConfig()
			if g.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			g.logger = l
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	f.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&g.backend, "backend", "", "storage backend: memory or pebble (overrides config)")
	f.StringVar(&g.path, "path", "", "pebble database path (overrides config)")
	f.IntVar(&g.topN, "top", 0, "rank only the N largest values per frame (overrides config)")
	f.IntVar(&g.interpolation, "interpolation", 0, "frames inserted between dates (overrides config)")
	f.BoolVar(&g.keepOverflow, "keep-overflow", false, "keep entries beyond --top unranked")

	cmd.AddCommand(importCmd(g), keyframesCmd(g), ranksCmd(g))
	return cmd
}

// loadConfig reads the config file and applies flags the user set.
func (g *globals) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Storage.Backend = g.backend
	}
	if flags.Changed("path") {
		cfg.Storage.Path = g.path
	}
	if flags.Changed("top") {
		cfg.Keyframes.TopN = g.topN
	}
	if flags.Changed("interpolation") {
		cfg.Keyframes.Interpolation = g.interpolation
	}
	if flags.Changed("keep-overflow") {
		cfg.Keyframes.KeepOverflow = g.keepOverflow
	}

	return cfg, cfg.Validate()
}

func openStorage(cfg config.Storage) (storage.Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewMemoryStorage(), nil
	case config.BackendPebble:
		return pebble.NewStorage(pebble.StorageOptions{
			Path:         cfg.Path,
			CacheSize:    cfg.CacheSize,
			MaxOpenFiles: cfg.MaxOpenFiles,
			Sync:         cfg.Sync,
		}, nil)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// session is an open store plus a builder configured over it.
type session struct {
	store   storage.Storage
	builder *barrace.Builder
	stats   *metrics.Registry
}

func (g *globals) open(cmd *cobra.Command) (*session, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	logger := g.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := metrics.NewRegistry()
	opts := []barrace.Option{
		barrace.WithTopN(cfg.Keyframes.TopN),
		barrace.WithInterpolation(cfg.Keyframes.Interpolation),
		barrace.WithBatchSize(cfg.Ingest.BatchSize),
		barrace.WithLogger(monitoring.NewLogger("barrace", logger)),
		barrace.WithStats(monitoring.NewStats(registry)),
	}
	if cfg.Keyframes.KeepOverflow {
		opts = append(opts, barrace.WithUnrankedOverflow())
	}

	b, err := barrace.NewBuilder(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("storage opened", zap.String("backend", cfg.Storage.Backend), zap.String("path", cfg.Storage.Path))
	return &session{store: store, builder: b, stats: registry}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
