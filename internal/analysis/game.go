package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/evaluator"
)

// AnalyzeGame walks one game and returns the player's classified blunders.
// Only the named player's moves are analyzed. Engine errors abort the game;
// a game whose tags do not name the player is ErrMalformedGame.
func (a *Analyzer) AnalyzeGame(ctx context.Context, eng evaluator.Engine, game *chess.Game, username string, thinkTime time.Duration) ([]BlunderRecord, error) {
	color, err := playerColor(game, username)
	if err != nil {
		return nil, err
	}

	moves := game.Moves()
	positions := game.Positions()
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("%w: %d positions for %d moves", ErrMalformedGame, len(positions), len(moves))
	}

	state := NewGameState(a.th)
	var records []BlunderRecord

	for i, move := range moves {
		mover := chess.White
		if i%2 == 1 {
			mover = chess.Black
		}
		if mover != color {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos := positions[i]
		after := positions[i+1]
		fullMove := i/2 + 1
		var lastOpp *chess.Move
		if i > 0 {
			lastOpp = moves[i-1]
		}

		// Cheap checks first; the quiet-endgame check needs an eval and
		// runs after the before-eval is in hand.
		if !a.filter.NeedsFullAnalysis(pos, move, lastOpp, fullMove, nil) {
			continue
		}

		evalBefore, err := eng.Analyze(pos.String(), thinkTime)
		if err != nil {
			return nil, fmt.Errorf("evaluating move %d: %w", fullMove, err)
		}
		if a.filter.SkipQuietEndgame(pos, evalBefore) {
			state.RecordEval(evalBefore.Score.Centipawns())
			continue
		}

		evalAfter, err := a.evalAfterMove(eng, after, thinkTime)
		if err != nil {
			return nil, fmt.Errorf("evaluating move %d reply: %w", fullMove, err)
		}

		rec := a.Categorize(MoveContext{
			Before:     pos,
			After:      after,
			Move:       move,
			MoveNumber: fullMove,
			EvalBefore: evalBefore,
			EvalAfter:  evalAfter,
			State:      state,
		})
		if rec != nil {
			records = append(records, *rec)
		}
		state.RecordEval(evalAfter.Score.Centipawns())
	}

	return records, nil
}

// evalAfterMove evaluates the position after the player's move and flips
// the score back to the mover's point of view. Terminal positions are
// scored without the engine.
func (a *Analyzer) evalAfterMove(eng evaluator.Engine, after *chess.Position, thinkTime time.Duration) (evaluator.Evaluation, error) {
	switch after.Status() {
	case chess.Checkmate:
		// The mover delivered mate.
		return evaluator.Evaluation{Score: evaluator.Score{Mate: 1, IsMate: true}}, nil
	case chess.Stalemate:
		return evaluator.Evaluation{}, nil
	}

	ev, err := eng.Analyze(after.String(), thinkTime)
	if err != nil {
		return evaluator.Evaluation{}, err
	}
	ev.Score = ev.Score.Negate()
	return ev, nil
}

func playerColor(game *chess.Game, username string) (chess.Color, error) {
	if tp := game.GetTagPair("White"); tp != nil && strings.EqualFold(tp.Value, username) {
		return chess.White, nil
	}
	if tp := game.GetTagPair("Black"); tp != nil && strings.EqualFold(tp.Value, username) {
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("%w: player %q not in game tags", ErrMalformedGame, username)
}
