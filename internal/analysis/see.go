package analysis

import (
	"sync"

	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/rules"
)

// sharedSEE is the process-wide memo: SEE is a pure function of the
// position and move, so results are shared across games and workers.
var sharedSEE = NewSEE()

// SEE computes static exchange evaluations: the net material outcome of the
// forced capture sequence on one square, both sides always recapturing with
// their least valuable attacker. Safe for concurrent use.
type SEE struct {
	mu   sync.RWMutex
	memo map[string]int
}

// NewSEE creates an evaluator with an empty memo.
func NewSEE() *SEE {
	return &SEE{memo: make(map[string]int)}
}

// Value returns the exchange value of a move in centipawns from the mover's
// point of view. Non-captures are worth 0.
func (s *SEE) Value(pos *chess.Position, m *chess.Move) int {
	if !rules.IsCapture(pos, m) {
		return 0
	}

	key := pos.String() + "|" + rules.UCI(m)
	s.mu.RLock()
	v, ok := s.memo[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	v = s.exchange(pos, m)

	s.mu.Lock()
	s.memo[key] = v
	s.mu.Unlock()
	return v
}

// exchange runs one level of the capture sequence. The opponent answers with
// the least valuable recapture, or declines when recapturing loses material.
func (s *SEE) exchange(pos *chess.Position, m *chess.Move) int {
	captured := rules.CapturedValue(pos, m)
	after := pos.Update(m)

	recapture := leastValuableRecapture(after, m.S2())
	if recapture == nil {
		return captured
	}

	nested := s.Value(after, recapture)
	if nested < 0 {
		nested = 0 // a losing recapture is declined
	}
	return captured - nested
}

// leastValuableRecapture picks the legal capture of the target square made
// by the cheapest piece, ties broken by lowest origin square index.
func leastValuableRecapture(pos *chess.Position, target chess.Square) *chess.Move {
	var best *chess.Move
	bestValue := 0
	for _, m := range pos.ValidMoves() {
		if m.S2() != target || !rules.IsCapture(pos, m) {
			continue
		}
		v := rules.PieceValue(rules.PieceAt(pos, m.S1()).Type())
		if best == nil || v < bestValue || (v == bestValue && m.S1() < best.S1()) {
			best = m
			bestValue = v
		}
	}
	return best
}
