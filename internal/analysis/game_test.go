package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/blunderscan/internal/evaluator"
)

// scriptedEngine serves canned evaluations by FEN and records what it was
// asked about.
type scriptedEngine struct {
	evals map[string]evaluator.Evaluation
	asked []string
	err   error
}

func (s *scriptedEngine) Analyze(fen string, _ time.Duration) (evaluator.Evaluation, error) {
	s.asked = append(s.asked, fen)
	if s.err != nil {
		return evaluator.Evaluation{}, s.err
	}
	if ev, ok := s.evals[fen]; ok {
		return ev, nil
	}
	return evaluator.Evaluation{Score: evaluator.Score{CP: 20}}, nil
}

func (s *scriptedEngine) Close() error { return nil }

func buildGame(t *testing.T, white, black string, sans ...string) *chess.Game {
	t.Helper()
	g := chess.NewGame()
	g.AddTagPair("White", white)
	g.AddTagPair("Black", black)
	for _, san := range sans {
		require.NoError(t, g.MoveStr(san), "move %s", san)
	}
	return g
}

func TestAnalyzeGameHangingQueen(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil, zerolog.Nop())

	// 2. Qg4 leaves the queen to the c8 bishop.
	g := buildGame(t, "alice", "bob", "e4", "d5", "Qg4", "Bxg4")
	positions := g.Positions()

	eng := &scriptedEngine{evals: map[string]evaluator.Evaluation{
		// Before 2. Qg4, white to move.
		positions[2].String(): {Score: evaluator.Score{CP: 30}, BestMove: "e4d5"},
		// After 2. Qg4, black to move, so black's view is winning.
		positions[3].String(): {Score: evaluator.Score{CP: 850}, BestMove: "c8g4"},
	}}

	records, err := a.AnalyzeGame(context.Background(), eng, g, "alice", time.Millisecond)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, CategoryHangingPiece, records[0].Category)
	assert.Equal(t, 2, records[0].MoveNumber)
	assert.Contains(t, records[0].Description, "queen")
	assert.Contains(t, records[0].Description, "g4")

	// 1. e4 is theory, so the engine only saw move 2's two positions.
	assert.Equal(t, []string{positions[2].String(), positions[3].String()}, eng.asked)
}

func TestAnalyzeGamePlayerColor(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil, zerolog.Nop())
	g := buildGame(t, "alice", "bob", "e4", "d5", "Qg4", "Bxg4")
	eng := &scriptedEngine{}

	// Bob played Black; both of his moves are theory, so the engine is
	// never consulted. Tag matching is case-insensitive.
	records, err := a.AnalyzeGame(context.Background(), eng, g, "BOB", time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, eng.asked)

	_, err = a.AnalyzeGame(context.Background(), eng, g, "carol", time.Millisecond)
	assert.ErrorIs(t, err, ErrMalformedGame)
}

func TestAnalyzeGameEngineError(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil, zerolog.Nop())
	g := buildGame(t, "alice", "bob", "e4", "d5", "Qg4", "Bxg4")
	boom := errors.New("engine crashed")
	eng := &scriptedEngine{err: boom}

	_, err := a.AnalyzeGame(context.Background(), eng, g, "alice", time.Millisecond)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeGameCanceled(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil, zerolog.Nop())
	g := buildGame(t, "alice", "bob", "e4", "d5", "Qg4", "Bxg4")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.AnalyzeGame(ctx, &scriptedEngine{}, g, "alice", time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}
