// Blunderscan finds and classifies tactical blunders in PGN game
// collections with a UCI engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hailam/blunderscan/internal/analysis"
	"github.com/hailam/blunderscan/internal/batch"
	"github.com/hailam/blunderscan/internal/book"
	"github.com/hailam/blunderscan/internal/config"
	"github.com/hailam/blunderscan/internal/evaluator"
	"github.com/hailam/blunderscan/internal/storage"
)

const evalCacheSize = 4096

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "blunderscan",
		Short:         "Chess blunder detection engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newAnalyzeCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newAnalyzeCmd() *cobra.Command {
	var (
		pgnPath    string
		player     string
		enginePath string
		thinkMs    int
		workers    int
		batchSize  int
		poolSize   int
		bookPath   string
		asJSON     bool
		noStore    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a PGN file for one player's blunders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger()

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if enginePath != "" {
				cfg.EnginePath = enginePath
			}
			if thinkMs > 0 {
				cfg.ThinkTimeMs = thinkMs
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if batchSize > 0 {
				cfg.BatchSize = batchSize
			}
			if poolSize > 0 {
				cfg.PoolSize = poolSize
			}
			if bookPath != "" {
				cfg.BookPath = bookPath
			}
			if cfg.EnginePath == "" {
				return fmt.Errorf("no engine: set --engine or engine_path in the config")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runAnalyze(ctx, log, cfg, pgnPath, player, asJSON, noStore)
		},
	}

	cmd.Flags().StringVar(&pgnPath, "pgn", "", "PGN file to analyze")
	cmd.Flags().StringVar(&player, "player", "", "player name as it appears in the game tags")
	cmd.Flags().StringVar(&enginePath, "engine", "", "path to a UCI engine binary")
	cmd.Flags().IntVar(&thinkMs, "think", 0, "per-position think time in milliseconds")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent batch workers")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "games per batch")
	cmd.Flags().IntVar(&poolSize, "pool", 0, "engine pool size")
	cmd.Flags().StringVar(&bookPath, "book", "", "polyglot opening book")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "skip the persistent evaluation cache")
	_ = cmd.MarkFlagRequired("pgn")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}

func runAnalyze(ctx context.Context, log zerolog.Logger, cfg config.Config, pgnPath, player string, asJSON, noStore bool) error {
	games, err := readGames(pgnPath)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return fmt.Errorf("no games in %s", pgnPath)
	}
	log.Info().Int("games", len(games)).Str("player", player).Msg("starting analysis")

	var bk *book.Book
	if cfg.BookPath != "" {
		bk, err = book.LoadPolyglot(cfg.BookPath)
		if err != nil {
			return fmt.Errorf("loading book: %w", err)
		}
		log.Info().Int("entries", bk.Size()).Msg("opening book loaded")
	}

	var store *storage.Store
	if !noStore {
		store, err = openStore(cfg.DataDir)
		if err != nil {
			log.Warn().Err(err).Msg("persistent cache unavailable, continuing without it")
		} else {
			defer store.Close()
		}
	}

	engineCfg := evaluator.EngineConfig{
		Path:    cfg.EnginePath,
		HashMB:  cfg.EngineHashMB,
		Threads: cfg.EngineThreads,
		MultiPV: cfg.MultiPV,
	}
	factory := func() (evaluator.Engine, error) {
		inner, err := evaluator.NewUCIEngine(engineCfg)
		if err != nil {
			return nil, err
		}
		var ps evaluator.PersistentStore
		if store != nil {
			ps = store
		}
		return evaluator.NewCached(inner, evalCacheSize, ps), nil
	}

	pool := evaluator.NewPool(cfg.PoolSize, factory, log)
	defer pool.Shutdown()

	analyzer := analysis.NewAnalyzer(cfg.Thresholds, bk, log)

	start := time.Now()
	report := batch.AnalyzeBatches(ctx, pool, games, player, analyzer, batch.Options{
		ThinkTime:      cfg.ThinkTime(),
		Workers:        cfg.Workers,
		BatchSize:      cfg.BatchSize,
		BatchTimeout:   cfg.BatchTimeout(),
		AcquireTimeout: cfg.AcquireTimeout(),
		Logger:         log,
	})
	elapsed := time.Since(start)

	if store != nil {
		if err := store.RecordRun(storage.RunResult{
			GamesAnalyzed: report.GamesAnalyzed,
			Blunders:      countByCategory(report.Blunders),
			Duration:      elapsed,
		}); err != nil {
			log.Warn().Err(err).Msg("recording run statistics")
		}
	}

	// A run where every batch failed to obtain an engine produced nothing
	// and will keep producing nothing; surface it as a hard failure.
	if report.GamesAnalyzed == 0 && allUnavailable(report.Failures) {
		return fmt.Errorf("no batch could obtain an engine: %w", evaluator.ErrUnavailable)
	}

	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}
	printReport(report, elapsed)
	return nil
}

func allUnavailable(failures []batch.Failure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if !errors.Is(f.Err, evaluator.ErrUnavailable) {
			return false
		}
	}
	return true
}

func readGames(path string) ([]*chess.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var games []*chess.Game
	scanner := chess.NewScanner(f)
	for scanner.Scan() {
		games = append(games, scanner.Next())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return games, nil
}

func openStore(dataDir string) (*storage.Store, error) {
	if dataDir != "" {
		return storage.Open(dataDir)
	}
	return storage.NewStore()
}

func countByCategory(records []analysis.BlunderRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[string(r.Category)]++
	}
	return counts
}

func printReport(report batch.Report, elapsed time.Duration) {
	fmt.Printf("Analyzed %d games in %s\n", report.GamesAnalyzed, elapsed.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Printf("  batch %d failed (%d games): %v\n", f.BatchIndex, f.Games, f.Err)
	}

	if len(report.Blunders) == 0 {
		fmt.Println("No blunders found.")
		return
	}

	sorted := append([]analysis.BlunderRecord(nil), report.Blunders...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MoveNumber < sorted[j].MoveNumber
	})
	fmt.Printf("\n%d blunders:\n", len(sorted))
	for _, b := range sorted {
		fmt.Printf("  move %3d  %-20s %s (-%.0f%% win)\n",
			b.MoveNumber, b.Category, b.Description, b.WinProbDrop)
	}
}

func newStatsCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cumulative analysis statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := openStore(dataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.LoadStats()
			if err != nil {
				return err
			}

			fmt.Printf("Runs:            %d\n", stats.Runs)
			fmt.Printf("Games analyzed:  %d\n", stats.GamesAnalyzed)
			fmt.Printf("Total run time:  %s\n", stats.TotalRunTime.Round(time.Second))
			fmt.Printf("Blunders/game:   %.2f\n", stats.BlundersPerGame())

			categories := make([]string, 0, len(stats.Blunders))
			for c := range stats.Blunders {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			for _, c := range categories {
				fmt.Printf("  %-20s %d\n", c, stats.Blunders[c])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "database directory (defaults to the per-user data dir)")
	return cmd
}
