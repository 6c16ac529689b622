package analysis

import (
	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/book"
	"github.com/hailam/blunderscan/internal/evaluator"
	"github.com/hailam/blunderscan/internal/rules"
)

// openingTheory is a short table of extremely common opening moves in UCI
// form. A move matching it inside the theory window is not worth engine time.
var openingTheory = map[string]bool{
	// pawns
	"e2e4": true, "d2d4": true, "c2c4": true, "e2e3": true, "d2d3": true,
	"g2g3": true, "b2b3": true, "f2f4": true, "c2c3": true, "a2a3": true,
	"h2h3": true, "e4e5": true, "d4d5": true, "c4c5": true, "e4d5": true,
	"d4e5": true, "d4c5": true, "c4d5": true,
	"e7e5": true, "d7d5": true, "c7c5": true, "e7e6": true, "d7d6": true,
	"g7g6": true, "b7b6": true, "c7c6": true, "a7a6": true, "h7h6": true,
	"f7f5": true, "e5d4": true, "d5e4": true, "d5c4": true, "c5d4": true,
	// knights
	"g1f3": true, "b1c3": true, "b1d2": true, "f3d4": true, "f3e5": true,
	"g8f6": true, "b8c6": true, "b8d7": true, "f6d5": true, "f6e4": true,
	// bishops
	"f1c4": true, "f1b5": true, "f1e2": true, "f1d3": true, "f1g2": true,
	"c1f4": true, "c1g5": true, "c1e3": true, "c1b2": true, "c1d2": true,
	"f8c5": true, "f8b4": true, "f8e7": true, "f8d6": true, "f8g7": true,
	"c8f5": true, "c8g4": true, "c8e6": true, "c8b7": true, "c8d7": true,
	"b5c6": true, "b4c3": true, "g5f6": true, "g4f3": true,
	// castling and early queen/rook tidying
	"e1g1": true, "e1c1": true, "e8g8": true, "e8c8": true,
	"d1d2": true, "d1e2": true, "d1c2": true, "d1b3": true,
	"d8d7": true, "d8e7": true, "d8c7": true, "d8b6": true,
	"f1e1": true, "a1d1": true, "f8e8": true, "a8d8": true,
}

// QuickFilter decides whether a move needs the full dual evaluation. All of
// its checks are approximations traded purely for throughput.
type QuickFilter struct {
	th   Thresholds
	book *book.Book // optional
	see  *SEE
}

// NewQuickFilter creates a filter; the opening book may be nil.
func NewQuickFilter(th Thresholds, bk *book.Book, see *SEE) *QuickFilter {
	th.applyDefaults()
	return &QuickFilter{th: th, book: bk, see: see}
}

// NeedsFullAnalysis reports whether the move deserves dual evaluation.
// lastOpponentMove may be nil (first move); evalBefore may be nil, in which
// case the checks that depend on an engine evaluation are skipped; the
// caller re-checks with SkipQuietEndgame once the before-eval is in hand.
func (q *QuickFilter) NeedsFullAnalysis(pos *chess.Position, move, lastOpponentMove *chess.Move, moveNumber int, evalBefore *evaluator.Evaluation) bool {
	legal := pos.ValidMoves()

	// Forced moves carry no information about the player.
	if len(legal) == 1 {
		return false
	}

	// Known theory inside the opening window.
	if moveNumber <= q.th.TheoryMoves && openingTheory[rules.UCI(move)] {
		return false
	}
	if q.book != nil && q.book.Contains(pos, move) {
		return false
	}

	if q.IsObviousRecapture(pos, move, lastOpponentMove) {
		return false
	}

	if evalBefore != nil && q.SkipQuietEndgame(pos, *evalBefore) {
		return false
	}

	return true
}

// IsObviousRecapture reports whether the move is a capture on the square the
// opponent's last move just occupied, with a non-losing exchange.
func (q *QuickFilter) IsObviousRecapture(pos *chess.Position, move, lastOpponentMove *chess.Move) bool {
	if lastOpponentMove == nil {
		return false
	}
	if move.S2() != lastOpponentMove.S2() || !rules.IsCapture(pos, move) {
		return false
	}
	return q.see.Value(pos, move) >= 0
}

// SkipQuietEndgame reports whether the position is trivially drawish: few
// enough pieces, no forcing best reply, and an evaluation inside the quiet
// band.
func (q *QuickFilter) SkipQuietEndgame(pos *chess.Position, evalBefore evaluator.Evaluation) bool {
	if rules.CountPieces(pos) > q.th.QuietEndgamePieces {
		return false
	}

	// A forcing best reply (mate or capture) keeps the move in.
	if evalBefore.Score.IsMate {
		return false
	}
	if best := rules.DecodeUCI(pos, evalBefore.BestMove); best != nil && rules.IsCapture(pos, best) {
		return false
	}

	cp := evalBefore.Score.Centipawns()
	if cp < 0 {
		cp = -cp
	}
	return cp <= q.th.QuietEvalBand
}
