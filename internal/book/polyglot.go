package book

import (
	"github.com/notnil/chess"
)

// Polyglot Zobrist keys. Generated with the same xorshift* stream the rest
// of the project uses, so book files must be built with this tool; the key
// layout itself follows the Polyglot convention.
var (
	polyglotPieces     [12][64]uint64 // [piece_kind][square]
	polyglotCastling   [4]uint64      // [KQkq]
	polyglotEnPassant  [8]uint64      // [file]
	polyglotSideToMove uint64
)

func init() {
	initPolyglotKeys()
}

func initPolyglotKeys() {
	var s uint64 = 0x37b4a4b3f0d1c0d0

	rng := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}

	// Piece keys (12 piece kinds * 64 squares)
	for piece := 0; piece < 12; piece++ {
		for sq := 0; sq < 64; sq++ {
			polyglotPieces[piece][sq] = rng()
		}
	}
	for i := 0; i < 4; i++ {
		polyglotCastling[i] = rng()
	}
	for i := 0; i < 8; i++ {
		polyglotEnPassant[i] = rng()
	}
	polyglotSideToMove = rng()
}

// Polyglot piece ordering: bp, bN, bB, bR, bQ, bK, wp, wN, wB, wR, wQ, wK.
func pieceKind(p chess.Piece) int {
	var base int
	switch p.Type() {
	case chess.Pawn:
		base = 0
	case chess.Knight:
		base = 1
	case chess.Bishop:
		base = 2
	case chess.Rook:
		base = 3
	case chess.Queen:
		base = 4
	case chess.King:
		base = 5
	default:
		return -1
	}
	if p.Color() == chess.White {
		return base + 6
	}
	return base
}

// PolyglotHash computes the book hash key for a position.
func PolyglotHash(pos *chess.Position) uint64 {
	var hash uint64

	board := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		if kind := pieceKind(p); kind >= 0 {
			hash ^= polyglotPieces[kind][int(sq)]
		}
	}

	rights := pos.CastleRights()
	if rights.CanCastle(chess.White, chess.KingSide) {
		hash ^= polyglotCastling[0]
	}
	if rights.CanCastle(chess.White, chess.QueenSide) {
		hash ^= polyglotCastling[1]
	}
	if rights.CanCastle(chess.Black, chess.KingSide) {
		hash ^= polyglotCastling[2]
	}
	if rights.CanCastle(chess.Black, chess.QueenSide) {
		hash ^= polyglotCastling[3]
	}

	// En passant key, only if a pawn of the side to move can actually capture.
	if ep := pos.EnPassantSquare(); ep != chess.NoSquare {
		file := int(ep) % 8
		if epCapturable(board, pos.Turn(), ep) {
			hash ^= polyglotEnPassant[file]
		}
	}

	if pos.Turn() == chess.White {
		hash ^= polyglotSideToMove
	}

	return hash
}

// epCapturable reports whether a pawn of the side to move stands next to the
// en passant square ready to capture.
func epCapturable(board *chess.Board, turn chess.Color, ep chess.Square) bool {
	file := int(ep) % 8

	// The capturing pawn sits on the rank the passed pawn landed on.
	var pawnRank int
	var pawn chess.Piece
	if turn == chess.White {
		pawnRank = 4 // white pawns capture from the 5th rank
		pawn = chess.WhitePawn
	} else {
		pawnRank = 3 // black pawns capture from the 4th rank
		pawn = chess.BlackPawn
	}

	if file > 0 && board.Piece(chess.Square(pawnRank*8+file-1)) == pawn {
		return true
	}
	if file < 7 && board.Piece(chess.Square(pawnRank*8+file+1)) == pawn {
		return true
	}
	return false
}
