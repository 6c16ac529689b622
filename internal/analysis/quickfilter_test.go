package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/blunderscan/internal/evaluator"
)

func newTestFilter() *QuickFilter {
	return NewQuickFilter(DefaultThresholds(), nil, NewSEE())
}

func TestFilterForcedMove(t *testing.T) {
	q := newTestFilter()

	// Only legal move is Kxb2.
	pos := mustPosition(t, "k7/8/8/8/8/8/1q6/K7 w - - 0 30")
	require.Len(t, pos.ValidMoves(), 1)
	m := mustMove(t, pos, "a1b2")
	assert.False(t, q.NeedsFullAnalysis(pos, m, nil, 30, nil))
}

func TestFilterOpeningTheory(t *testing.T) {
	q := newTestFilter()
	pos := mustPosition(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	m := mustMove(t, pos, "e2e4")

	assert.False(t, q.NeedsFullAnalysis(pos, m, nil, 1, nil))

	// Same move outside the theory window counts.
	assert.True(t, q.NeedsFullAnalysis(pos, m, nil, 25, nil))
}

func TestFilterObviousRecapture(t *testing.T) {
	q := newTestFilter()

	// After 1. e4 d5 2. exd5, black recaptures with the queen.
	before := mustPosition(t, "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	lastOpp := mustMove(t, before, "e4d5")
	pos := before.Update(lastOpp)
	recapture := mustMove(t, pos, "d8d5")

	assert.True(t, q.IsObviousRecapture(pos, recapture, lastOpp))
	assert.False(t, q.IsObviousRecapture(pos, recapture, nil))
	assert.False(t, q.NeedsFullAnalysis(pos, recapture, lastOpp, 2, nil))
}

func TestFilterQuietEndgame(t *testing.T) {
	q := newTestFilter()
	pos := mustPosition(t, "8/8/4k3/8/8/4K3/4P3/8 w - - 0 50")

	quiet := evaluator.Evaluation{Score: evaluator.Score{CP: 30}, BestMove: "e2e3"}
	assert.True(t, q.SkipQuietEndgame(pos, quiet))
	assert.False(t, q.NeedsFullAnalysis(pos, mustMove(t, pos, "e2e3"), nil, 50, &quiet))

	mate := evaluator.Evaluation{Score: evaluator.Score{Mate: 4, IsMate: true}}
	assert.False(t, q.SkipQuietEndgame(pos, mate))

	lopsided := evaluator.Evaluation{Score: evaluator.Score{CP: 450}, BestMove: "e2e3"}
	assert.False(t, q.SkipQuietEndgame(pos, lopsided))

	// Too many pieces on the board.
	full := mustPosition(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	assert.False(t, q.SkipQuietEndgame(full, quiet))
}
