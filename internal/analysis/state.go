package analysis

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/rules"
)

// evalWindowSize bounds the trailing evaluation window.
const evalWindowSize = 5

// TacticalWeakness is one ongoing tactical issue in a game, tracked so the
// same weakness is not re-reported on every subsequent move.
type TacticalWeakness struct {
	Kind        string
	Piece       chess.PieceType
	Square      chess.Square
	MoveNumber  int // full move that introduced the weakness
	Description string
}

// Key returns the stable identity of the weakness.
func (w TacticalWeakness) Key() string {
	return weaknessKey(w.Kind, w.Piece, w.Square)
}

func weaknessKey(kind string, pt chess.PieceType, sq chess.Square) string {
	return fmt.Sprintf("%s_%s_%s", kind, rules.PieceName(pt), sq.String())
}

// GameState is the cross-move memory for one game's analysis. Created fresh
// per game, owned by one goroutine, discarded at game end.
type GameState struct {
	active   map[string]TacticalWeakness
	reported map[string]bool
	trapped  map[string]bool

	evalWindow  []int // trailing mover-POV centipawns, newest last
	losingBadly bool

	cache         *Cache
	losingBadlyCP int
}

// NewGameState creates empty per-game state.
func NewGameState(th Thresholds) *GameState {
	th.applyDefaults()
	return &GameState{
		active:        make(map[string]TacticalWeakness),
		reported:      make(map[string]bool),
		trapped:       make(map[string]bool),
		cache:         NewCache(),
		losingBadlyCP: th.LosingBadlyCP,
	}
}

// Cache returns the game's position cache.
func (s *GameState) Cache() *Cache { return s.cache }

// IsActive reports whether a weakness key is currently unresolved.
func (s *GameState) IsActive(key string) bool {
	_, ok := s.active[key]
	return ok
}

// Activate records a weakness as ongoing.
func (s *GameState) Activate(w TacticalWeakness) {
	s.active[w.Key()] = w
}

// Resolve removes a weakness; it may be reported again if reintroduced.
func (s *GameState) Resolve(key string) {
	delete(s.active, key)
}

// ActiveWeaknesses returns the unresolved weaknesses of one kind.
func (s *GameState) ActiveWeaknesses(kind string) []TacticalWeakness {
	var out []TacticalWeakness
	for _, w := range s.active {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// AlreadyReported reports whether a blunder report key was emitted before.
func (s *GameState) AlreadyReported(key string) bool {
	return s.reported[key]
}

// MarkReported records an emitted blunder report key.
func (s *GameState) MarkReported(key string) {
	s.reported[key] = true
}

// MarkTrapped marks a piece as already reported trapped; only one trap is
// reported per piece per game.
func (s *GameState) MarkTrapped(key string) {
	s.trapped[key] = true
}

// IsTrapped reports whether the piece already had its trap reported.
func (s *GameState) IsTrapped(key string) bool {
	return s.trapped[key]
}

// RecordEval appends a mover-POV centipawn evaluation to the trailing
// window and refreshes the losing-badly flag.
func (s *GameState) RecordEval(cp int) {
	s.evalWindow = append(s.evalWindow, cp)
	if len(s.evalWindow) > evalWindowSize {
		s.evalWindow = s.evalWindow[len(s.evalWindow)-evalWindowSize:]
	}
	s.losingBadly = cp < s.losingBadlyCP
}

// LosingBadly reports whether the last evaluation was hopeless.
func (s *GameState) LosingBadly() bool { return s.losingBadly }

// HopelessStreak reports whether the last two evaluations were both
// hopeless; used to suppress repeated allowed-mate reports of the same
// forced sequence.
func (s *GameState) HopelessStreak() bool {
	n := len(s.evalWindow)
	if n < 2 {
		return false
	}
	return s.evalWindow[n-1] < s.losingBadlyCP && s.evalWindow[n-2] < s.losingBadlyCP
}
