package rules

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionFromFEN(t *testing.T, fen string) *chess.Position {
	t.Helper()
	fn, err := chess.FEN(fen)
	require.NoError(t, err)
	return chess.NewGame(fn).Position()
}

func TestAttackers(t *testing.T) {
	t.Run("StartingPosition", func(t *testing.T) {
		pos := chess.NewGame().Position()

		// e4 is covered by no white piece except the d and f pawns once
		// advanced; from the start only knights reach the center rim.
		attackers := Attackers(pos, chess.White, chess.E4)
		assert.Empty(t, attackers)

		// f3 is attacked by the g1 knight and the e2/g2 pawns.
		attackers = Attackers(pos, chess.White, chess.F3)
		assert.ElementsMatch(t, []chess.Square{chess.E2, chess.G2, chess.G1}, attackers)
	})

	t.Run("SliderBlocked", func(t *testing.T) {
		// White rook a1, white pawn a2 blocks the file toward a8.
		pos := positionFromFEN(t, "k7/8/8/8/8/8/P7/R3K3 w Q - 0 1")
		assert.Empty(t, Attackers(pos, chess.White, chess.A8))
		assert.Equal(t, []chess.Square{chess.A1}, Attackers(pos, chess.White, chess.A2))
	})

	t.Run("PawnDirection", func(t *testing.T) {
		// Black pawn on d5 attacks c4 and e4, not c6/e6.
		pos := positionFromFEN(t, "k7/8/8/3p4/8/8/8/K7 w - - 0 1")
		assert.Equal(t, []chess.Square{chess.D5}, Attackers(pos, chess.Black, chess.E4))
		assert.Empty(t, Attackers(pos, chess.Black, chess.E6))
	})
}

func TestDefenders(t *testing.T) {
	// White knight c3 defended by the b2 pawn, not by the king on e1.
	pos := positionFromFEN(t, "k7/8/8/8/8/2N5/1P6/4K3 w - - 0 1")
	assert.Equal(t, []chess.Square{chess.B2}, Defenders(pos, chess.C3))

	// Empty square has no defenders.
	assert.Empty(t, Defenders(pos, chess.E4))
}

func TestPins(t *testing.T) {
	t.Run("RookPin", func(t *testing.T) {
		// Black rook e8 pins the white knight e4 against the king e1.
		pos := positionFromFEN(t, "4r2k/8/8/8/4N3/8/8/4K3 w - - 0 1")
		assert.True(t, IsPinned(pos, chess.White, chess.E4))
		assert.Equal(t, chess.E8, PinnerSquare(pos, chess.White, chess.E4))
	})

	t.Run("BishopPin", func(t *testing.T) {
		// Black bishop a5 pins the white pawn d2 against the king e1.
		pos := positionFromFEN(t, "7k/8/8/b7/8/8/3P4/4K3 w - - 0 1")
		assert.True(t, IsPinned(pos, chess.White, chess.D2))
		assert.Equal(t, chess.A5, PinnerSquare(pos, chess.White, chess.D2))
	})

	t.Run("ShieldedNotPinned", func(t *testing.T) {
		// Two white pieces on the ray: neither is pinned.
		pos := positionFromFEN(t, "4r2k/8/8/4N3/4N3/8/8/4K3 w - - 0 1")
		assert.False(t, IsPinned(pos, chess.White, chess.E5))
		assert.False(t, IsPinned(pos, chess.White, chess.E4))
	})

	t.Run("OffRayNotPinned", func(t *testing.T) {
		pos := positionFromFEN(t, "4r2k/8/8/8/3N4/8/8/4K3 w - - 0 1")
		assert.False(t, IsPinned(pos, chess.White, chess.D4))
	})
}

func TestPieceValue(t *testing.T) {
	assert.Equal(t, 100, PieceValue(chess.Pawn))
	assert.Equal(t, 900, PieceValue(chess.Queen))
	assert.Greater(t, PieceValue(chess.Bishop), PieceValue(chess.Knight))
	assert.Equal(t, 0, PieceValue(chess.NoPieceType))
}

func TestCapturedValue(t *testing.T) {
	// White pawn e4 takes black pawn d5.
	pos := positionFromFEN(t, "k7/8/8/3p4/4P3/8/8/K7 w - - 0 1")
	var capture *chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1() == chess.E4 && m.S2() == chess.D5 {
			capture = m
		}
	}
	require.NotNil(t, capture)
	assert.Equal(t, PawnValue, CapturedValue(pos, capture))
	assert.True(t, IsCapture(pos, capture))
}

func TestAdjacentSquares(t *testing.T) {
	assert.Len(t, AdjacentSquares(chess.E4), 8)
	assert.Len(t, AdjacentSquares(chess.A1), 3)
	assert.Contains(t, AdjacentSquares(chess.A1), chess.B2)
}

func TestCountPieces(t *testing.T) {
	assert.Equal(t, 32, CountPieces(chess.NewGame().Position()))
	pos := positionFromFEN(t, "k7/8/8/8/8/8/8/K7 w - - 0 1")
	assert.Equal(t, 2, CountPieces(pos))
}
