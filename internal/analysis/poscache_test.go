package analysis

import (
	"fmt"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
)

func TestCacheBuild(t *testing.T) {
	c := NewCache()

	// Black knight on d5 is attacked by the d1 rook and has no defender.
	pos := mustPosition(t, "k7/8/8/3n4/8/8/8/3R3K w - - 0 1")
	e := c.Get(pos)

	assert.True(t, e.Hanging[chess.D5])
	assert.Equal(t, []chess.Square{chess.D1}, e.Attackers[chess.D5])
	assert.Empty(t, e.Defenders[chess.D5])
	assert.NotEmpty(t, e.MovesByOrigin[chess.D1])

	// Same position hits the same entry.
	assert.Same(t, e, c.Get(pos))
	assert.Equal(t, 1, c.Len())
}

func TestCacheHangingIgnoresPinnedDefender(t *testing.T) {
	c := NewCache()

	// The e6 bishop covers d5, but it is pinned to the king by the e1
	// rook, so the knight still hangs to the d1 rook.
	pos := mustPosition(t, "4k3/8/4b3/3n4/8/8/8/3RR2K w - - 0 1")
	e := c.Get(pos)

	assert.Equal(t, []chess.Square{chess.E6}, e.Defenders[chess.D5])
	assert.True(t, e.Hanging[chess.D5])
}

func TestCacheEviction(t *testing.T) {
	c := NewCache()
	for i := 1; i <= 110; i++ {
		// Distinct keys: the FEN move counter is part of the position string.
		c.Get(mustPosition(t, fmt.Sprintf("k7/8/8/8/8/8/8/6RK w - - 0 %d", i)))
	}

	// Filling past the cap drops the oldest block, then refills.
	assert.Equal(t, 90, c.Len())

	// The newest entry survived, the oldest did not.
	newest := mustPosition(t, "k7/8/8/8/8/8/8/6RK w - - 0 110")
	assert.Contains(t, c.entries, newest.String())
	oldest := mustPosition(t, "k7/8/8/8/8/8/8/6RK w - - 0 1")
	assert.NotContains(t, c.entries, oldest.String())
}
