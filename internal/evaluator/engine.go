package evaluator

import (
	"fmt"
	"time"

	"github.com/freeeve/uci"
)

// EngineConfig configures a single external UCI engine process.
type EngineConfig struct {
	Path    string // engine binary, e.g. "stockfish"
	HashMB  int    // hash table size
	Threads int    // engine threads
	MultiPV int
}

func (c *EngineConfig) applyDefaults() {
	if c.HashMB == 0 {
		c.HashMB = 128
	}
	if c.Threads == 0 {
		c.Threads = 1
	}
	if c.MultiPV == 0 {
		c.MultiPV = 1
	}
}

// UCIEngine is an Engine backed by one external UCI engine process.
type UCIEngine struct {
	eng *uci.Engine
}

// NewUCIEngine launches the engine process and applies the options.
func NewUCIEngine(cfg EngineConfig) (*UCIEngine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("engine path required: %w", ErrUnavailable)
	}
	cfg.applyDefaults()

	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("start engine %q: %v: %w", cfg.Path, err, ErrUnavailable)
	}

	opts := uci.Options{
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		MultiPV: cfg.MultiPV,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		eng.Close()
		return nil, fmt.Errorf("set engine options: %w", ErrUnavailable)
	}

	return &UCIEngine{eng: eng}, nil
}

// Analyze evaluates a position for roughly thinkTime.
func (e *UCIEngine) Analyze(fen string, thinkTime time.Duration) (Evaluation, error) {
	if err := e.eng.SetFEN(fen); err != nil {
		return Evaluation{}, fmt.Errorf("set fen: %w", err)
	}

	// Depth 0 with a movetime lets the engine decide how deep it gets;
	// no result filter here, the deepest line is picked below.
	results, err := e.eng.Go(0, "", thinkTime.Milliseconds())
	if err != nil {
		return Evaluation{}, fmt.Errorf("engine go: %w", err)
	}
	if len(results.Results) == 0 {
		return Evaluation{}, fmt.Errorf("engine returned no results for %q", fen)
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}

	ev := Evaluation{
		Depth:    best.Depth,
		BestMove: results.BestMove,
		PV:       best.BestMoves,
	}
	if best.Mate {
		ev.Score = Score{Mate: best.Score, IsMate: true}
	} else {
		ev.Score = Score{CP: best.Score}
	}
	if ev.BestMove == "" && len(ev.PV) > 0 {
		ev.BestMove = ev.PV[0]
	}
	return ev, nil
}

// Close terminates the engine process.
func (e *UCIEngine) Close() error {
	e.eng.Close()
	return nil
}
