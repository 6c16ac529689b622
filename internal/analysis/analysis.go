// Package analysis implements the blunder detection core: the static
// exchange evaluator, the per-game position cache and state manager, the
// quick-filter that decides which moves deserve engine time, and the ordered
// categorizer that turns evaluation swings into classified blunders.
package analysis

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hailam/blunderscan/internal/book"
)

// ErrMalformedGame marks a game that cannot be analyzed (missing player
// tags, inconsistent move list). The game is skipped; the run continues.
var ErrMalformedGame = errors.New("malformed game")

// Category labels one kind of tactical error.
type Category string

const (
	CategoryAllowedMate    Category = "Allowed Checkmate"
	CategoryMissedMate     Category = "Missed Checkmate"
	CategoryHangingPiece   Category = "Hanging a Piece"
	CategoryLosingExchange Category = "Losing Exchange"
	CategoryMissedGain     Category = "Missed Material Gain"
	CategoryAllowedTrap    Category = "Allowed Trap"
	CategoryMistake        Category = "Mistake"
	CategoryBlunder        Category = "Blunder"
	CategoryCritical       Category = "Critical Blunder"
)

// BlunderRecord is one classified blunder. Immutable once produced.
type BlunderRecord struct {
	Category      Category `json:"category"`
	MoveNumber    int      `json:"move_number"`
	Description   string   `json:"description"`
	WinProbDrop   float64  `json:"win_prob_drop"` // 0-100
	PunishingMove string   `json:"punishing_move,omitempty"`
	MaterialLoss  int      `json:"material_loss,omitempty"` // centipawns
}

// Thresholds tunes the detection heuristics. Zero values are backfilled
// with defaults.
type Thresholds struct {
	// WinProbK is the sigmoid steepness for the centipawn-to-probability map.
	WinProbK float64 `yaml:"win_prob_k"`
	// MinCentipawnLoss is the cheapest early exit: moves losing less are ignored.
	MinCentipawnLoss int `yaml:"min_centipawn_loss"`
	// ExpensiveCheckDrop gates trap detection (win-probability points).
	ExpensiveCheckDrop float64 `yaml:"expensive_check_drop"`
	// SmallMaterial is the net-loss floor for an unsafe trap destination.
	SmallMaterial int `yaml:"small_material"`
	// LosingExchange is the SEE loss that makes a capture a losing exchange.
	LosingExchange int `yaml:"losing_exchange"`
	// MissedGain is the SEE value that makes an untaken capture reportable.
	MissedGain int `yaml:"missed_gain"`

	// QuietEndgamePieces and QuietEvalBand bound the quiet-endgame skip.
	QuietEndgamePieces int `yaml:"quiet_endgame_pieces"`
	QuietEvalBand      int `yaml:"quiet_eval_band"`
	// TheoryMoves is the last full move checked against opening theory.
	TheoryMoves int `yaml:"theory_moves"`

	// OpeningMoves is where the opening phase ends (full moves).
	OpeningMoves int `yaml:"opening_moves"`
	// MiddlegameFrom/To is the window in which trap detection runs.
	MiddlegameFrom int `yaml:"middlegame_from"`
	MiddlegameTo   int `yaml:"middlegame_to"`

	// Win-probability-drop tiers (points), opening vs later phases.
	OpeningMistakeDrop  float64 `yaml:"opening_mistake_drop"`
	OpeningBlunderDrop  float64 `yaml:"opening_blunder_drop"`
	OpeningCriticalDrop float64 `yaml:"opening_critical_drop"`
	MistakeDrop         float64 `yaml:"mistake_drop"`
	BlunderDrop         float64 `yaml:"blunder_drop"`
	CriticalDrop        float64 `yaml:"critical_drop"`

	// LosingBadlyCP marks the hopeless-position flag.
	LosingBadlyCP int `yaml:"losing_badly_cp"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WinProbK:            0.004,
		MinCentipawnLoss:    50,
		ExpensiveCheckDrop:  20,
		SmallMaterial:       100,
		LosingExchange:      150,
		MissedGain:          150,
		QuietEndgamePieces:  7,
		QuietEvalBand:       200,
		TheoryMoves:         10,
		OpeningMoves:        15,
		MiddlegameFrom:      10,
		MiddlegameTo:        40,
		OpeningMistakeDrop:  15,
		OpeningBlunderDrop:  25,
		OpeningCriticalDrop: 40,
		MistakeDrop:         10,
		BlunderDrop:         20,
		CriticalDrop:        35,
		LosingBadlyCP:       -1000,
	}
}

func (t *Thresholds) applyDefaults() {
	d := DefaultThresholds()
	if t.WinProbK == 0 {
		t.WinProbK = d.WinProbK
	}
	if t.MinCentipawnLoss == 0 {
		t.MinCentipawnLoss = d.MinCentipawnLoss
	}
	if t.ExpensiveCheckDrop == 0 {
		t.ExpensiveCheckDrop = d.ExpensiveCheckDrop
	}
	if t.SmallMaterial == 0 {
		t.SmallMaterial = d.SmallMaterial
	}
	if t.LosingExchange == 0 {
		t.LosingExchange = d.LosingExchange
	}
	if t.MissedGain == 0 {
		t.MissedGain = d.MissedGain
	}
	if t.QuietEndgamePieces == 0 {
		t.QuietEndgamePieces = d.QuietEndgamePieces
	}
	if t.QuietEvalBand == 0 {
		t.QuietEvalBand = d.QuietEvalBand
	}
	if t.TheoryMoves == 0 {
		t.TheoryMoves = d.TheoryMoves
	}
	if t.OpeningMoves == 0 {
		t.OpeningMoves = d.OpeningMoves
	}
	if t.MiddlegameFrom == 0 {
		t.MiddlegameFrom = d.MiddlegameFrom
	}
	if t.MiddlegameTo == 0 {
		t.MiddlegameTo = d.MiddlegameTo
	}
	if t.OpeningMistakeDrop == 0 {
		t.OpeningMistakeDrop = d.OpeningMistakeDrop
	}
	if t.OpeningBlunderDrop == 0 {
		t.OpeningBlunderDrop = d.OpeningBlunderDrop
	}
	if t.OpeningCriticalDrop == 0 {
		t.OpeningCriticalDrop = d.OpeningCriticalDrop
	}
	if t.MistakeDrop == 0 {
		t.MistakeDrop = d.MistakeDrop
	}
	if t.BlunderDrop == 0 {
		t.BlunderDrop = d.BlunderDrop
	}
	if t.CriticalDrop == 0 {
		t.CriticalDrop = d.CriticalDrop
	}
	if t.LosingBadlyCP == 0 {
		t.LosingBadlyCP = d.LosingBadlyCP
	}
}

// Analyzer runs blunder detection. One Analyzer may serve many games, but a
// single game analysis runs on one goroutine with its own GameState.
type Analyzer struct {
	th     Thresholds
	see    *SEE
	filter *QuickFilter
	log    zerolog.Logger
}

// NewAnalyzer creates an analyzer. The opening book may be nil.
func NewAnalyzer(th Thresholds, bk *book.Book, log zerolog.Logger) *Analyzer {
	th.applyDefaults()
	see := sharedSEE
	return &Analyzer{
		th:     th,
		see:    see,
		filter: NewQuickFilter(th, bk, see),
		log:    log,
	}
}

// Filter exposes the analyzer's quick-filter, mainly for tests.
func (a *Analyzer) Filter() *QuickFilter { return a.filter }

func reportKey(cat Category, moveNumber int) string {
	return fmt.Sprintf("%s_%d", cat, moveNumber)
}
