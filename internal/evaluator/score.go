// Package evaluator talks to external UCI evaluation engines and manages a
// bounded pool of engine processes shared by analysis workers.
package evaluator

import (
	"fmt"
	"time"
)

// Score is an engine evaluation from the side to move's point of view.
// Exactly one variant applies: a centipawn value, or a forced-mate distance
// in full moves (positive = the side to move mates, negative = gets mated).
type Score struct {
	CP     int  `json:"cp"`
	Mate   int  `json:"mate,omitempty"`
	IsMate bool `json:"is_mate,omitempty"`
}

// Negate flips the score to the other side's point of view.
func (s Score) Negate() Score {
	if s.IsMate {
		return Score{Mate: -s.Mate, IsMate: true}
	}
	return Score{CP: -s.CP}
}

// Centipawns collapses the score to a centipawn scale, mapping mates to a
// large bound so comparisons stay monotonic.
func (s Score) Centipawns() int {
	if s.IsMate {
		if s.Mate > 0 {
			return MateScore - s.Mate
		}
		return -MateScore - s.Mate
	}
	return s.CP
}

// MateScore is the centipawn magnitude assigned to forced mates.
const MateScore = 30000

func (s Score) String() string {
	if s.IsMate {
		return fmt.Sprintf("mate %d", s.Mate)
	}
	return fmt.Sprintf("cp %d", s.CP)
}

// Evaluation is the fixed-shape result of analyzing one position.
type Evaluation struct {
	Score    Score    `json:"score"`
	Depth    int      `json:"depth"`
	BestMove string   `json:"best_move,omitempty"` // UCI
	PV       []string `json:"pv,omitempty"`        // UCI principal variation
}

// Engine analyzes positions. Implementations are not safe for concurrent
// use; each analysis worker owns one engine for the duration of its batch.
type Engine interface {
	// Analyze evaluates the position given as a FEN string, spending
	// roughly thinkTime of wall clock.
	Analyze(fen string, thinkTime time.Duration) (Evaluation, error)
	Close() error
}
