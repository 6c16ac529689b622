package analysis

import (
	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/rules"
)

// maxTrapCandidates bounds the opponent moves simulated per trap check.
const maxTrapCandidates = 16

// trapResult describes a confirmed trap.
type trapResult struct {
	trappingMove *chess.Move // opponent move that springs the trap
	unsafeCount  int
	totalDests   int
}

// detectTrap checks whether the piece that just moved to targetSq can be
// trapped by an opponent reply. pos is the position after the player's move,
// opponent to move. Returns nil when no trap is found.
//
// Candidate replies are tried in a fixed priority: pawn moves, moves
// attacking squares adjacent to the target, moves shrinking the target's
// mobility, moves revealing an extra attacker. Best-effort only; this is the
// expensive check and the caller gates it.
func (a *Analyzer) detectTrap(pos *chess.Position, targetSq chess.Square) *trapResult {
	target := rules.PieceAt(pos, targetSq)
	if target == chess.NoPiece || rules.PieceValue(target.Type()) < rules.KnightValue {
		return nil
	}
	if target.Type() == chess.King {
		return nil
	}

	opponent := pos.Turn()
	baseMobility := pseudoMobility(pos, targetSq)
	baseAttackers := len(rules.Attackers(pos, opponent, targetSq))

	candidates := orderTrapCandidates(pos, targetSq, baseMobility, baseAttackers)
	if len(candidates) > maxTrapCandidates {
		candidates = candidates[:maxTrapCandidates]
	}

	for _, reply := range candidates {
		sim := pos.Update(reply)
		if res := a.trappedAfter(sim, targetSq, target); res != nil {
			res.trappingMove = reply
			return res
		}
	}
	return nil
}

// orderTrapCandidates returns the opponent's legal moves in trap-search
// priority order.
func orderTrapCandidates(pos *chess.Position, targetSq chess.Square, baseMobility, baseAttackers int) []*chess.Move {
	opponent := pos.Turn()
	adjacent := rules.AdjacentSquares(targetSq)

	var pawns, adjAttacks, squeezes, reveals []*chess.Move
	seen := make(map[*chess.Move]bool)

	take := func(bucket *[]*chess.Move, m *chess.Move) {
		if !seen[m] {
			seen[m] = true
			*bucket = append(*bucket, m)
		}
	}

	for _, m := range pos.ValidMoves() {
		if m.S2() == targetSq {
			continue // an outright capture is the hanging check's business
		}
		mover := rules.PieceAt(pos, m.S1())

		if mover.Type() == chess.Pawn {
			take(&pawns, m)
			continue
		}

		sim := pos.Update(m)

		attacksAdjacent := false
		for _, adj := range adjacent {
			for _, att := range rules.Attackers(sim, opponent, adj) {
				if att == m.S2() {
					attacksAdjacent = true
					break
				}
			}
			if attacksAdjacent {
				break
			}
		}
		if attacksAdjacent {
			take(&adjAttacks, m)
			continue
		}

		if pseudoMobility(sim, targetSq) < baseMobility {
			take(&squeezes, m)
			continue
		}

		if len(rules.Attackers(sim, opponent, targetSq)) > baseAttackers {
			take(&reveals, m)
		}
	}

	out := make([]*chess.Move, 0, len(pawns)+len(adjAttacks)+len(squeezes)+len(reveals))
	out = append(out, pawns...)
	out = append(out, adjAttacks...)
	out = append(out, squeezes...)
	out = append(out, reveals...)
	return out
}

// trappedAfter decides whether the target piece is truly trapped in sim
// (player to move). A destination is unsafe when the opponent's cheapest
// capture there wins more than the small-material threshold by SEE.
func (a *Analyzer) trappedAfter(sim *chess.Position, targetSq chess.Square, target chess.Piece) *trapResult {
	pieceValue := rules.PieceValue(target.Type())
	opponent := target.Color().Other()

	dests := rules.MovesFrom(sim, targetSq)

	// No escape squares at all: trapped only if the piece stands under a
	// profitable cheaper attack right now.
	if len(dests) == 0 {
		if a.underCheapAttack(sim, targetSq, pieceValue) {
			return &trapResult{totalDests: 0, unsafeCount: 0}
		}
		return nil
	}

	var safe, unsafe, severe int
	for _, d := range dests {
		after := sim.Update(d)
		destSq := d.S2()

		attackers := rules.Attackers(after, opponent, destSq)
		if len(attackers) == 0 {
			safe++
			continue
		}

		capture := leastValuableRecapture(after, destSq)
		if capture == nil {
			safe++
			continue
		}
		loss := a.see.Value(after, capture) // opponent's gain on that square
		if loss <= a.th.SmallMaterial {
			safe++
			continue
		}

		unsafe++
		if loss >= pieceValue-rules.PawnValue {
			severe++
		}
	}

	total := len(dests)
	trapped := (safe == 0 && unsafe >= 2) ||
		float64(unsafe)/float64(total) >= 0.7 ||
		float64(severe)/float64(total) >= 0.5
	if !trapped {
		return nil
	}
	return &trapResult{unsafeCount: unsafe, totalDests: total}
}

// underCheapAttack reports whether the piece on sq can be taken at a
// profit where it stands. Approximate: an undefended piece falls to any
// attacker, a defended one only to a sufficiently cheaper attacker.
func (a *Analyzer) underCheapAttack(pos *chess.Position, sq chess.Square, pieceValue int) bool {
	opponent := rules.PieceAt(pos, sq).Color().Other()
	attackers := rules.Attackers(pos, opponent, sq)
	if len(attackers) == 0 {
		return false
	}
	if len(rules.Defenders(pos, sq)) == 0 {
		return pieceValue > a.th.SmallMaterial
	}
	return pieceValue-cheapestAttackerValue(pos, attackers) > a.th.SmallMaterial
}

func cheapestAttackerValue(pos *chess.Position, attackers []chess.Square) int {
	cheapest := rules.KingValue
	for _, att := range attackers {
		if v := rules.PieceValue(rules.PieceAt(pos, att).Type()); v < cheapest {
			cheapest = v
		}
	}
	return cheapest
}

// pseudoMobility counts squares the piece on sq could geometrically move to
// (own pieces block, turn ignored). Cheap stand-in for legal mobility when
// it is not the piece owner's turn.
func pseudoMobility(pos *chess.Position, sq chess.Square) int {
	p := rules.PieceAt(pos, sq)
	if p == chess.NoPiece {
		return 0
	}
	count := 0
	for to := chess.A1; to <= chess.H8; to++ {
		if to == sq {
			continue
		}
		occ := rules.PieceAt(pos, to)
		if occ != chess.NoPiece && occ.Color() == p.Color() {
			continue
		}
		if rules.AttacksSquare(pos, sq, to) {
			count++
		}
	}
	return count
}
