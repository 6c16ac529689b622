package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/blunderscan/internal/analysis"
	"github.com/hailam/blunderscan/internal/evaluator"
)

// stubEngine answers every probe with a flat evaluation, optionally slowly
// or with an error.
type stubEngine struct {
	delay time.Duration
	err   error
}

func (e *stubEngine) Analyze(string, time.Duration) (evaluator.Evaluation, error) {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return evaluator.Evaluation{}, e.err
	}
	return evaluator.Evaluation{Score: evaluator.Score{CP: 10}}, nil
}

func (e *stubEngine) Close() error { return nil }

func newStubPool(t *testing.T, capacity int, eng func() *stubEngine) *evaluator.Pool {
	t.Helper()
	p := evaluator.NewPool(capacity, func() (evaluator.Engine, error) {
		return eng(), nil
	}, zerolog.Nop())
	t.Cleanup(p.Shutdown)
	return p
}

func testGame(t *testing.T, white, black string, sans ...string) *chess.Game {
	t.Helper()
	g := chess.NewGame()
	g.AddTagPair("White", white)
	g.AddTagPair("Black", black)
	for _, san := range sans {
		require.NoError(t, g.MoveStr(san))
	}
	return g
}

// theoryGame never reaches the engine: both moves are book theory.
func theoryGame(t *testing.T) *chess.Game {
	return testGame(t, "alice", "bob", "e4", "e5")
}

// engineGame forces engine probes: Nh3 and Ng5 are nobody's theory.
func engineGame(t *testing.T) *chess.Game {
	return testGame(t, "alice", "bob", "Nh3", "e5", "Ng5")
}

func newBatchAnalyzer() *analysis.Analyzer {
	return analysis.NewAnalyzer(analysis.DefaultThresholds(), nil, zerolog.Nop())
}

func TestAnalyzeBatchesAllComplete(t *testing.T) {
	pool := newStubPool(t, 2, func() *stubEngine { return &stubEngine{} })

	games := make([]*chess.Game, 10)
	for i := range games {
		games[i] = theoryGame(t)
	}

	report := AnalyzeBatches(context.Background(), pool, games, "alice", newBatchAnalyzer(), Options{
		Workers:   2,
		BatchSize: 4,
		Logger:    zerolog.Nop(),
	})

	assert.Equal(t, 10, report.GamesAnalyzed)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Blunders)
}

func TestAnalyzeBatchesSkipsMalformedGame(t *testing.T) {
	pool := newStubPool(t, 1, func() *stubEngine { return &stubEngine{} })

	games := []*chess.Game{
		theoryGame(t),
		testGame(t, "someone", "else", "e4", "e5"), // alice is not in this one
		theoryGame(t),
	}

	report := AnalyzeBatches(context.Background(), pool, games, "alice", newBatchAnalyzer(), Options{
		Workers:   1,
		BatchSize: 4,
		Logger:    zerolog.Nop(),
	})

	assert.Equal(t, 2, report.GamesAnalyzed, "the malformed game is skipped, not fatal")
	assert.Empty(t, report.Failures)
}

func TestAnalyzeBatchesEngineFailureDiscardsBatch(t *testing.T) {
	boom := errors.New("engine died")
	first := true
	pool := newStubPool(t, 1, func() *stubEngine {
		if first {
			first = false
			return &stubEngine{err: boom}
		}
		return &stubEngine{}
	})

	games := []*chess.Game{engineGame(t), theoryGame(t)}

	report := AnalyzeBatches(context.Background(), pool, games, "alice", newBatchAnalyzer(), Options{
		Workers:   1,
		BatchSize: 1,
		Logger:    zerolog.Nop(),
	})

	require.Len(t, report.Failures, 1)
	assert.Equal(t, 0, report.Failures[0].BatchIndex)
	assert.ErrorIs(t, report.Failures[0].Err, boom)
	assert.Equal(t, 1, report.GamesAnalyzed, "only the clean batch counts")
}

func TestAnalyzeBatchesTimeoutDiscardsBatch(t *testing.T) {
	pool := newStubPool(t, 2, func() *stubEngine {
		return &stubEngine{delay: 30 * time.Millisecond}
	})

	// Batch 0 needs four engine probes at 30ms each and cannot finish
	// inside 20ms; batch 1 never touches the engine.
	games := []*chess.Game{engineGame(t), theoryGame(t)}

	report := AnalyzeBatches(context.Background(), pool, games, "alice", newBatchAnalyzer(), Options{
		Workers:      2,
		BatchSize:    1,
		BatchTimeout: 20 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})

	require.Len(t, report.Failures, 1)
	assert.Equal(t, 0, report.Failures[0].BatchIndex)
	assert.ErrorIs(t, report.Failures[0].Err, ErrBatchTimeout)
	assert.ErrorIs(t, report.Failures[0].Err, context.DeadlineExceeded)
	assert.Equal(t, 1, report.GamesAnalyzed)
}

func TestAnalyzeBatchesPoolExhaustion(t *testing.T) {
	pool := newStubPool(t, 1, func() *stubEngine {
		return &stubEngine{delay: 40 * time.Millisecond}
	})

	games := []*chess.Game{engineGame(t), engineGame(t)}

	report := AnalyzeBatches(context.Background(), pool, games, "alice", newBatchAnalyzer(), Options{
		Workers:        2,
		BatchSize:      1,
		AcquireTimeout: 10 * time.Millisecond,
		Logger:         zerolog.Nop(),
	})

	// One worker holds the only engine; the other gives up acquiring.
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, evaluator.ErrUnavailable)
	assert.Equal(t, 1, report.GamesAnalyzed)
}
