package rules

import (
	"github.com/notnil/chess"
)

// SAN returns the standard algebraic notation for a move on a position.
func SAN(pos *chess.Position, m *chess.Move) string {
	return chess.AlgebraicNotation{}.Encode(pos, m)
}

// UCI returns the UCI (long algebraic) notation for a move.
func UCI(m *chess.Move) string {
	return chess.UCINotation{}.Encode(nil, m)
}

// DecodeUCI parses a UCI move string against a position. Returns nil if the
// string does not describe a legal move.
func DecodeUCI(pos *chess.Position, s string) *chess.Move {
	m, err := chess.UCINotation{}.Decode(pos, s)
	if err != nil {
		return nil
	}
	return m
}
