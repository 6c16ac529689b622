// Package rules provides the board queries the blunder detector needs on
// top of github.com/notnil/chess: attacker and defender sets, absolute-pin
// detection, material values and notation helpers.
package rules

import (
	"github.com/notnil/chess"
)

// Material values in centipawns.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000 // never actually traded, just dominates comparisons
)

// PieceValue returns the material value of a piece type in centipawns.
func PieceValue(pt chess.PieceType) int {
	switch pt {
	case chess.Pawn:
		return PawnValue
	case chess.Knight:
		return KnightValue
	case chess.Bishop:
		return BishopValue
	case chess.Rook:
		return RookValue
	case chess.Queen:
		return QueenValue
	case chess.King:
		return KingValue
	}
	return 0
}

// PieceName returns a lowercase human-readable name for a piece type.
func PieceName(pt chess.PieceType) string {
	switch pt {
	case chess.Pawn:
		return "pawn"
	case chess.Knight:
		return "knight"
	case chess.Bishop:
		return "bishop"
	case chess.Rook:
		return "rook"
	case chess.Queen:
		return "queen"
	case chess.King:
		return "king"
	}
	return "piece"
}

// PieceAt returns the piece on a square, or chess.NoPiece.
func PieceAt(pos *chess.Position, sq chess.Square) chess.Piece {
	return pos.Board().Piece(sq)
}

// CountPieces returns the total number of pieces on the board, kings included.
func CountPieces(pos *chess.Position) int {
	return len(pos.Board().SquareMap())
}

// KingSquare returns the square of the given color's king.
func KingSquare(pos *chess.Position, c chess.Color) chess.Square {
	for sq, p := range pos.Board().SquareMap() {
		if p.Type() == chess.King && p.Color() == c {
			return sq
		}
	}
	return chess.NoSquare
}

// MovesFrom returns the legal moves whose origin is the given square.
func MovesFrom(pos *chess.Position, sq chess.Square) []*chess.Move {
	var out []*chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1() == sq {
			out = append(out, m)
		}
	}
	return out
}

// CapturedValue returns the centipawn value of the piece a move captures,
// or 0 if the move is not a capture.
func CapturedValue(pos *chess.Position, m *chess.Move) int {
	if m.HasTag(chess.EnPassant) {
		return PawnValue
	}
	victim := pos.Board().Piece(m.S2())
	if victim == chess.NoPiece {
		return 0
	}
	return PieceValue(victim.Type())
}

// IsCapture reports whether the move captures a piece on the given position.
func IsCapture(pos *chess.Position, m *chess.Move) bool {
	if m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant) {
		return true
	}
	return pos.Board().Piece(m.S2()) != chess.NoPiece
}

func squareFile(sq chess.Square) int { return int(sq) % 8 }
func squareRank(sq chess.Square) int { return int(sq) / 8 }

func squareAt(file, rank int) chess.Square {
	return chess.Square(rank*8 + file)
}

// AdjacentSquares returns the up-to-8 squares surrounding sq.
func AdjacentSquares(sq chess.Square) []chess.Square {
	f, r := squareFile(sq), squareRank(sq)
	out := make([]chess.Square, 0, 8)
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			nf, nr := f+df, r+dr
			if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
				continue
			}
			out = append(out, squareAt(nf, nr))
		}
	}
	return out
}
