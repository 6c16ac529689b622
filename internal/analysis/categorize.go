package analysis

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/evaluator"
	"github.com/hailam/blunderscan/internal/rules"
)

// MoveContext carries everything the categorizer needs about one played
// move. Both evaluations are from the mover's point of view: EvalBefore is
// the engine's view of the position the mover faced, EvalAfter is the view
// of the resulting position negated back to the mover.
type MoveContext struct {
	Before *chess.Position // position the move was played in
	After  *chess.Position // position after the move
	Move   *chess.Move
	SAN    string
	// MoveNumber is the full move number (1-based).
	MoveNumber int

	EvalBefore evaluator.Evaluation
	EvalAfter  evaluator.Evaluation

	State *GameState
}

// Categorize classifies one evaluated move. The checks run in a fixed
// priority order and the first match wins, so a move that both hangs a
// piece and allows mate is reported as allowing mate. Returns nil when the
// move is fine or its report would be a duplicate.
func (a *Analyzer) Categorize(ctx MoveContext) *BlunderRecord {
	if ctx.SAN == "" {
		ctx.SAN = rules.SAN(ctx.Before, ctx.Move)
	}

	// Weakness bookkeeping runs on every categorized move, even ones that
	// end up unreported, so resolved weaknesses become re-reportable.
	a.resolveStale(ctx)

	// The centipawn gate does not apply once mate is on the board: trading a
	// mate in 2 for a mate in 5 barely moves the collapsed score but is
	// still a missed mate.
	if !ctx.EvalBefore.Score.IsMate && !ctx.EvalAfter.Score.IsMate {
		cpLoss := ctx.EvalBefore.Score.Centipawns() - ctx.EvalAfter.Score.Centipawns()
		if cpLoss < a.th.MinCentipawnLoss {
			return nil
		}
	}

	drop := winProbDrop(ctx.EvalBefore.Score, ctx.EvalAfter.Score, a.th.WinProbK)

	if rec := a.checkAllowedMate(ctx, drop); rec != nil {
		return rec
	}
	if rec := a.checkMissedMate(ctx, drop); rec != nil {
		return rec
	}
	if rec := a.checkHangingPiece(ctx, drop); rec != nil {
		return rec
	}
	if rec := a.checkLosingExchange(ctx, drop); rec != nil {
		return rec
	}
	if rec := a.checkMissedGain(ctx, drop); rec != nil {
		return rec
	}
	if rec := a.checkAllowedTrap(ctx, drop); rec != nil {
		return rec
	}
	return a.checkGeneric(ctx, drop)
}

// emit applies the per-game report dedup before handing back a record.
func (a *Analyzer) emit(ctx MoveContext, rec *BlunderRecord) *BlunderRecord {
	key := reportKey(rec.Category, rec.MoveNumber)
	if ctx.State.AlreadyReported(key) {
		return nil
	}
	ctx.State.MarkReported(key)
	a.log.Debug().
		Str("category", string(rec.Category)).
		Int("move", rec.MoveNumber).
		Float64("drop", rec.WinProbDrop).
		Msg("blunder")
	return rec
}

// resolveStale clears active weaknesses whose piece has moved, been
// captured, or is no longer hanging.
func (a *Analyzer) resolveStale(ctx MoveContext) {
	cached := ctx.State.Cache().Get(ctx.After)
	for _, w := range ctx.State.ActiveWeaknesses("hanging") {
		p := rules.PieceAt(ctx.After, w.Square)
		if p == chess.NoPiece || p.Type() != w.Piece || !cached.Hanging[w.Square] {
			ctx.State.Resolve(w.Key())
		}
	}
}

func (a *Analyzer) checkAllowedMate(ctx MoveContext, drop float64) *BlunderRecord {
	s := ctx.EvalAfter.Score
	if !s.IsMate || s.Mate >= 0 {
		return nil
	}
	// A player already lost for several moves keeps "allowing" the same
	// mate; reporting each instance is noise.
	if ctx.State.HopelessStreak() {
		return nil
	}
	return a.emit(ctx, &BlunderRecord{
		Category:   CategoryAllowedMate,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s allows checkmate in %d",
			ctx.SAN, -s.Mate),
		WinProbDrop:   drop,
		PunishingMove: ctx.EvalAfter.BestMove,
	})
}

func (a *Analyzer) checkMissedMate(ctx MoveContext, drop float64) *BlunderRecord {
	before := ctx.EvalBefore.Score
	if !before.IsMate || before.Mate <= 0 {
		return nil
	}
	// Still mating at least as fast: the mate was not missed.
	after := ctx.EvalAfter.Score
	if after.IsMate && after.Mate > 0 && after.Mate <= before.Mate {
		return nil
	}
	return a.emit(ctx, &BlunderRecord{
		Category:   CategoryMissedMate,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s misses checkmate in %d",
			ctx.SAN, before.Mate),
		WinProbDrop:   drop,
		PunishingMove: ctx.EvalBefore.BestMove,
	})
}

func (a *Analyzer) checkHangingPiece(ctx MoveContext, drop float64) *BlunderRecord {
	mover := ctx.Before.Turn()
	cached := ctx.State.Cache().Get(ctx.After)

	var fresh []TacticalWeakness
	for sq := range cached.Hanging {
		p := rules.PieceAt(ctx.After, sq)
		if p == chess.NoPiece || p.Color() != mover || p.Type() == chess.King {
			continue
		}
		w := TacticalWeakness{
			Kind:       "hanging",
			Piece:      p.Type(),
			Square:     sq,
			MoveNumber: ctx.MoveNumber,
			Description: fmt.Sprintf("%s leaves the %s on %s undefended",
				ctx.SAN, rules.PieceName(p.Type()), sq.String()),
		}
		if ctx.State.IsActive(w.Key()) {
			continue
		}
		fresh = append(fresh, w)
	}
	if len(fresh) == 0 {
		return nil
	}

	// Track every new weakness, report only the most expensive one.
	worst := fresh[0]
	for _, w := range fresh {
		ctx.State.Activate(w)
		if rules.PieceValue(w.Piece) > rules.PieceValue(worst.Piece) {
			worst = w
		}
	}
	return a.emit(ctx, &BlunderRecord{
		Category:     CategoryHangingPiece,
		MoveNumber:   ctx.MoveNumber,
		Description:  worst.Description,
		WinProbDrop:  drop,
		MaterialLoss: rules.PieceValue(worst.Piece),
	})
}

func (a *Analyzer) checkLosingExchange(ctx MoveContext, drop float64) *BlunderRecord {
	if !rules.IsCapture(ctx.Before, ctx.Move) {
		return nil
	}
	net := a.see.Value(ctx.Before, ctx.Move)
	if net > -a.th.LosingExchange {
		return nil
	}
	return a.emit(ctx, &BlunderRecord{
		Category:   CategoryLosingExchange,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s loses the exchange (%d)",
			ctx.SAN, net),
		WinProbDrop:  drop,
		MaterialLoss: -net,
	})
}

func (a *Analyzer) checkMissedGain(ctx MoveContext, drop float64) *BlunderRecord {
	best := rules.DecodeUCI(ctx.Before, ctx.EvalBefore.BestMove)
	if best == nil || rules.UCI(best) == rules.UCI(ctx.Move) {
		return nil
	}
	if !rules.IsCapture(ctx.Before, best) {
		return nil
	}

	victim := rules.CapturedValue(ctx.Before, best)
	defenders := rules.Defenders(ctx.Before, best.S2())
	gain := victim
	if len(defenders) > 0 {
		gain = a.see.Value(ctx.Before, best)
	}
	if gain < a.th.MissedGain {
		return nil
	}
	return a.emit(ctx, &BlunderRecord{
		Category:   CategoryMissedGain,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s overlooks %s winning material",
			ctx.SAN, rules.SAN(ctx.Before, best)),
		WinProbDrop:   drop,
		PunishingMove: rules.UCI(best),
		MaterialLoss:  gain,
	})
}

func (a *Analyzer) checkAllowedTrap(ctx MoveContext, drop float64) *BlunderRecord {
	// Trap search is the expensive check; only large swings in the
	// middlegame window pay for it.
	if drop < a.th.ExpensiveCheckDrop {
		return nil
	}
	if ctx.MoveNumber < a.th.MiddlegameFrom || ctx.MoveNumber > a.th.MiddlegameTo {
		return nil
	}

	target := ctx.Move.S2()
	p := rules.PieceAt(ctx.After, target)
	if p == chess.NoPiece {
		return nil
	}
	key := weaknessKey("trap", p.Type(), target)
	if ctx.State.IsTrapped(key) {
		return nil
	}

	res := a.detectTrap(ctx.After, target)
	if res == nil {
		return nil
	}
	ctx.State.MarkTrapped(key)
	return a.emit(ctx, &BlunderRecord{
		Category:   CategoryAllowedTrap,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s walks the %s on %s into a trap",
			ctx.SAN, rules.PieceName(p.Type()), target.String()),
		WinProbDrop:   drop,
		PunishingMove: rules.UCI(res.trappingMove),
		MaterialLoss:  rules.PieceValue(p.Type()),
	})
}

// checkGeneric is the fallback tier. It only fires when the engine named a
// concrete better move, so every report can point the player somewhere.
func (a *Analyzer) checkGeneric(ctx MoveContext, drop float64) *BlunderRecord {
	better := ctx.EvalBefore.BestMove
	if better == "" || better == rules.UCI(ctx.Move) {
		return nil
	}

	mistake, blunder, critical := a.th.MistakeDrop, a.th.BlunderDrop, a.th.CriticalDrop
	if ctx.MoveNumber <= a.th.OpeningMoves {
		mistake, blunder, critical = a.th.OpeningMistakeDrop, a.th.OpeningBlunderDrop, a.th.OpeningCriticalDrop
	}

	var cat Category
	switch {
	case drop >= critical:
		cat = CategoryCritical
	case drop >= blunder:
		cat = CategoryBlunder
	case drop >= mistake:
		cat = CategoryMistake
	default:
		return nil
	}

	bestSAN := better
	if m := rules.DecodeUCI(ctx.Before, better); m != nil {
		bestSAN = rules.SAN(ctx.Before, m)
	}
	return a.emit(ctx, &BlunderRecord{
		Category:   cat,
		MoveNumber: ctx.MoveNumber,
		Description: fmt.Sprintf("%s drops %.0f win probability points; %s was better",
			ctx.SAN, drop, bestSAN),
		WinProbDrop:   drop,
		PunishingMove: better,
	})
}
