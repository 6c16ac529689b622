package analysis

import (
	"math"

	"github.com/hailam/blunderscan/internal/evaluator"
)

// WinProb maps an evaluation to the probability (0..1) that the side the
// score favors wins, via a sigmoid on the centipawn value. 0 cp maps to 0.5;
// forced mates map to 0 or 1.
func WinProb(s evaluator.Score, k float64) float64 {
	if s.IsMate {
		if s.Mate > 0 {
			return 1
		}
		return 0
	}
	return 1 / (1 + math.Exp(-k*float64(s.CP)))
}

// winProbDrop returns the win-probability loss in points (0-100) going from
// before to after, both from the mover's point of view.
func winProbDrop(before, after evaluator.Score, k float64) float64 {
	drop := (WinProb(before, k) - WinProb(after, k)) * 100
	if drop < 0 {
		return 0
	}
	if drop > 100 {
		return 100
	}
	return drop
}
