package analysis

import (
	"github.com/notnil/chess"

	"github.com/hailam/blunderscan/internal/rules"
)

// Position cache bounds: when the entry count reaches cacheCap, the oldest
// cacheDrop entries are discarded in insertion order. Not a strict LRU.
const (
	cacheCap  = 100
	cacheDrop = 20
)

// CachedPosition holds the derived per-position data the categorizer needs:
// which occupied squares hang, who attacks and defends each occupied square,
// and the legal moves indexed by origin.
type CachedPosition struct {
	Hanging       map[chess.Square]bool
	Attackers     map[chess.Square][]chess.Square
	Defenders     map[chess.Square][]chess.Square
	MovesByOrigin map[chess.Square][]*chess.Move
}

// Cache memoizes CachedPosition by FEN key. It is owned by a single game's
// analysis and must not be shared across goroutines.
type Cache struct {
	entries map[string]*CachedPosition
	order   []string
}

// NewCache creates an empty position cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*CachedPosition, cacheCap)}
}

// Get returns the cached data for a position, building it on first sight.
func (c *Cache) Get(pos *chess.Position) *CachedPosition {
	key := pos.String()
	if e, ok := c.entries[key]; ok {
		return e
	}

	e := buildCachedPosition(pos)

	if len(c.order) >= cacheCap {
		for _, k := range c.order[:cacheDrop] {
			delete(c.entries, k)
		}
		c.order = append(c.order[:0:0], c.order[cacheDrop:]...)
	}
	c.entries[key] = e
	c.order = append(c.order, key)
	return e
}

// Len returns the number of cached positions.
func (c *Cache) Len() int {
	return len(c.entries)
}

// buildCachedPosition does the single full pass over the board. A square is
// hanging when its occupant has at least one enemy attacker and no usable
// defender; an absolutely pinned defender cannot recapture.
func buildCachedPosition(pos *chess.Position) *CachedPosition {
	e := &CachedPosition{
		Hanging:       make(map[chess.Square]bool),
		Attackers:     make(map[chess.Square][]chess.Square),
		Defenders:     make(map[chess.Square][]chess.Square),
		MovesByOrigin: make(map[chess.Square][]*chess.Move),
	}

	board := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		attackers := rules.Attackers(pos, p.Color().Other(), sq)
		defenders := rules.Defenders(pos, sq)
		e.Attackers[sq] = attackers
		e.Defenders[sq] = defenders
		usable := 0
		for _, d := range defenders {
			if !rules.IsPinned(pos, p.Color(), d) {
				usable++
			}
		}
		if len(attackers) > 0 && usable == 0 {
			e.Hanging[sq] = true
		}
	}

	for _, m := range pos.ValidMoves() {
		e.MovesByOrigin[m.S1()] = append(e.MovesByOrigin[m.S1()], m)
	}

	return e
}
