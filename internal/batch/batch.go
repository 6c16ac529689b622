// Package batch runs blunder analysis over many games with a bounded
// worker pool. Games are grouped into fixed-size batches; a batch either
// completes inside its time budget or its partial results are discarded.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/blunderscan/internal/analysis"
	"github.com/hailam/blunderscan/internal/evaluator"
)

// ErrBatchTimeout marks a batch that ran out of its wall-clock budget. Its
// partial results are discarded.
var ErrBatchTimeout = errors.New("batch timed out")

// Options tunes a batch run. Zero values are backfilled with defaults.
type Options struct {
	ThinkTime      time.Duration
	Workers        int
	BatchSize      int
	BatchTimeout   time.Duration
	AcquireTimeout time.Duration
	Logger         zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.ThinkTime <= 0 {
		o.ThinkTime = 500 * time.Millisecond
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 4
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 5 * time.Minute
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = 30 * time.Second
	}
}

// Failure records one discarded batch.
type Failure struct {
	BatchIndex int
	Games      int
	Err        error
}

// Report is the aggregate outcome of a run. GamesAnalyzed counts only
// games from batches that completed; failed batches contribute nothing.
type Report struct {
	Blunders      []analysis.BlunderRecord
	GamesAnalyzed int
	Failures      []Failure
}

type job struct {
	index int
	games []*chess.Game
}

// AnalyzeBatches analyzes every game for the named player. It never
// returns an error: engine trouble, timeouts, and malformed games are
// folded into the report.
func AnalyzeBatches(ctx context.Context, pool *evaluator.Pool, games []*chess.Game, username string, analyzer *analysis.Analyzer, opts Options) Report {
	opts.applyDefaults()

	jobs := make(chan job)
	var mu sync.Mutex
	var report Report

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				records, done, err := runBatch(gctx, pool, analyzer, username, j, opts)
				mu.Lock()
				if err != nil {
					report.Failures = append(report.Failures, Failure{
						BatchIndex: j.index,
						Games:      len(j.games),
						Err:        err,
					})
				} else {
					report.Blunders = append(report.Blunders, records...)
					report.GamesAnalyzed += done
				}
				mu.Unlock()
			}
			return nil
		})
	}

	index := 0
feed:
	for start := 0; start < len(games); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(games) {
			end = len(games)
		}
		select {
		case jobs <- job{index: index, games: games[start:end]}:
		case <-gctx.Done():
			break feed
		}
		index++
	}
	close(jobs)
	_ = g.Wait()

	return report
}

// runBatch analyzes one batch on one engine. Any error discards the whole
// batch; malformed games are skipped without sinking their batch.
func runBatch(ctx context.Context, pool *evaluator.Pool, analyzer *analysis.Analyzer, username string, j job, opts Options) ([]analysis.BlunderRecord, int, error) {
	handle, err := pool.Acquire(opts.AcquireTimeout)
	if err != nil {
		return nil, 0, err
	}
	defer pool.Release(handle)

	bctx, cancel := context.WithTimeout(ctx, opts.BatchTimeout)
	defer cancel()

	var records []analysis.BlunderRecord
	done := 0
	for _, game := range j.games {
		recs, err := analyzer.AnalyzeGame(bctx, handle.Engine, game, username, opts.ThinkTime)
		if errors.Is(err, analysis.ErrMalformedGame) {
			opts.Logger.Warn().Int("batch", j.index).Err(err).Msg("skipping game")
			continue
		}
		if err != nil {
			if bctx.Err() != nil && ctx.Err() == nil {
				err = fmt.Errorf("%w: %w", ErrBatchTimeout, err)
			}
			return nil, 0, err
		}
		records = append(records, recs...)
		done++
	}
	return records, done, nil
}
