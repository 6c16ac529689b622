package rules

import (
	"github.com/notnil/chess"
)

// IsPinned reports whether the piece of the given color on sq is absolutely
// pinned against its own king.
func IsPinned(pos *chess.Position, c chess.Color, sq chess.Square) bool {
	return PinnerSquare(pos, c, sq) != chess.NoSquare
}

// PinnerSquare returns the square of the enemy slider pinning the piece on sq
// against its own king, or chess.NoSquare if the piece is not pinned.
func PinnerSquare(pos *chess.Position, c chess.Color, sq chess.Square) chess.Square {
	board := pos.Board()
	p := board.Piece(sq)
	if p == chess.NoPiece || p.Color() != c || p.Type() == chess.King {
		return chess.NoSquare
	}

	king := KingSquare(pos, c)
	if king == chess.NoSquare {
		return chess.NoSquare
	}

	df := squareFile(sq) - squareFile(king)
	dr := squareRank(sq) - squareRank(king)
	diagonal := abs(df) == abs(dr) && df != 0
	straight := (df == 0) != (dr == 0)
	if !diagonal && !straight {
		return chess.NoSquare
	}

	stepF, stepR := sign(df), sign(dr)

	// Walk from the king outward: the first piece must be the candidate, the
	// next one an enemy slider that moves along this ray.
	f, r := squareFile(king)+stepF, squareRank(king)+stepR
	seenCandidate := false
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		cur := squareAt(f, r)
		occ := board.Piece(cur)
		if occ != chess.NoPiece {
			if !seenCandidate {
				if cur != sq {
					return chess.NoSquare // another piece shields the king first
				}
				seenCandidate = true
			} else {
				if occ.Color() == c {
					return chess.NoSquare
				}
				switch occ.Type() {
				case chess.Queen:
					return cur
				case chess.Rook:
					if straight {
						return cur
					}
				case chess.Bishop:
					if diagonal {
						return cur
					}
				}
				return chess.NoSquare
			}
		}
		f += stepF
		r += stepR
	}
	return chess.NoSquare
}
