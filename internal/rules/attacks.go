package rules

import (
	"github.com/notnil/chess"
)

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Attackers returns the squares of all pieces of the given color that attack
// sq, in ascending square order. Pawn attacks count regardless of whether sq
// is occupied; sliding attacks respect blockers.
func Attackers(pos *chess.Position, by chess.Color, sq chess.Square) []chess.Square {
	board := pos.Board()
	var out []chess.Square
	for s := chess.A1; s <= chess.H8; s++ {
		p := board.Piece(s)
		if p == chess.NoPiece || p.Color() != by {
			continue
		}
		if attacksSquare(board, s, p, sq) {
			out = append(out, s)
		}
	}
	return out
}

// Defenders returns the squares of pieces defending the occupant of sq,
// i.e. same-color attackers of sq other than the occupant itself.
func Defenders(pos *chess.Position, sq chess.Square) []chess.Square {
	occ := pos.Board().Piece(sq)
	if occ == chess.NoPiece {
		return nil
	}
	var out []chess.Square
	for _, s := range Attackers(pos, occ.Color(), sq) {
		if s != sq {
			out = append(out, s)
		}
	}
	return out
}

// IsAttacked reports whether sq is attacked by at least one piece of color by.
func IsAttacked(pos *chess.Position, by chess.Color, sq chess.Square) bool {
	board := pos.Board()
	for s := chess.A1; s <= chess.H8; s++ {
		p := board.Piece(s)
		if p == chess.NoPiece || p.Color() != by {
			continue
		}
		if attacksSquare(board, s, p, sq) {
			return true
		}
	}
	return false
}

// AttacksSquare reports whether the piece on from attacks to.
func AttacksSquare(pos *chess.Position, from, to chess.Square) bool {
	p := pos.Board().Piece(from)
	if p == chess.NoPiece {
		return false
	}
	return attacksSquare(pos.Board(), from, p, to)
}

// attacksSquare reports whether the piece p on from attacks to.
func attacksSquare(b *chess.Board, from chess.Square, p chess.Piece, to chess.Square) bool {
	if from == to {
		return false
	}
	df := squareFile(to) - squareFile(from)
	dr := squareRank(to) - squareRank(from)

	switch p.Type() {
	case chess.Pawn:
		// White pawns attack toward higher ranks.
		if p.Color() == chess.White {
			return dr == 1 && (df == 1 || df == -1)
		}
		return dr == -1 && (df == 1 || df == -1)
	case chess.Knight:
		for _, o := range knightOffsets {
			if df == o[0] && dr == o[1] {
				return true
			}
		}
		return false
	case chess.King:
		for _, o := range kingOffsets {
			if df == o[0] && dr == o[1] {
				return true
			}
		}
		return false
	case chess.Bishop:
		if abs(df) != abs(dr) {
			return false
		}
		return rayClear(b, from, to)
	case chess.Rook:
		if df != 0 && dr != 0 {
			return false
		}
		return rayClear(b, from, to)
	case chess.Queen:
		if df != 0 && dr != 0 && abs(df) != abs(dr) {
			return false
		}
		return rayClear(b, from, to)
	}
	return false
}

// rayClear reports whether every square strictly between from and to is empty.
// from and to must share a rank, file or diagonal.
func rayClear(b *chess.Board, from, to chess.Square) bool {
	stepF := sign(squareFile(to) - squareFile(from))
	stepR := sign(squareRank(to) - squareRank(from))
	f, r := squareFile(from)+stepF, squareRank(from)+stepR
	for f != squareFile(to) || r != squareRank(to) {
		if b.Piece(squareAt(f, r)) != chess.NoPiece {
			return false
		}
		f += stepF
		r += stepR
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x < 0 {
		return -1
	}
	if x > 0 {
		return 1
	}
	return 0
}
