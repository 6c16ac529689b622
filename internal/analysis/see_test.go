package analysis

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/blunderscan/internal/rules"
)

func mustPosition(t *testing.T, fen string) *chess.Position {
	t.Helper()
	fn, err := chess.FEN(fen)
	require.NoError(t, err)
	return chess.NewGame(fn).Position()
}

func mustMove(t *testing.T, pos *chess.Position, uciMove string) *chess.Move {
	t.Helper()
	m := rules.DecodeUCI(pos, uciMove)
	require.NotNil(t, m, "move %s not legal", uciMove)
	return m
}

func TestSEENonCapture(t *testing.T) {
	see := NewSEE()
	pos := mustPosition(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	assert.Equal(t, 0, see.Value(pos, mustMove(t, pos, "e2e4")))
}

func TestSEEUndefendedCapture(t *testing.T) {
	see := NewSEE()
	pos := mustPosition(t, "k7/8/8/3p4/8/8/8/3Q3K w - - 0 1")
	assert.Equal(t, rules.PawnValue, see.Value(pos, mustMove(t, pos, "d1d5")))
}

func TestSEEDefendedCapture(t *testing.T) {
	see := NewSEE()

	// Queen takes a pawn defended by a pawn: win 100, lose 900.
	pos := mustPosition(t, "k7/4p3/3p4/8/8/8/8/3Q3K w - - 0 1")
	assert.Equal(t, rules.PawnValue-rules.QueenValue, see.Value(pos, mustMove(t, pos, "d1d6")))

	// Rook takes the same pawn with backup: the recapture is itself losing.
	pos = mustPosition(t, "k7/2p5/3p4/8/8/8/3R4/3R3K w - - 0 1")
	assert.Equal(t, -300, see.Value(pos, mustMove(t, pos, "d2d6")))
}

func TestSEEMemo(t *testing.T) {
	see := NewSEE()
	pos := mustPosition(t, "k7/4p3/3p4/8/8/8/8/3Q3K w - - 0 1")
	m := mustMove(t, pos, "d1d6")

	first := see.Value(pos, m)
	see.mu.RLock()
	entries := len(see.memo)
	see.mu.RUnlock()
	assert.Greater(t, entries, 0)

	assert.Equal(t, first, see.Value(pos, m))
	see.mu.RLock()
	assert.Equal(t, entries, len(see.memo))
	see.mu.RUnlock()
}
