package entity

import (
	"testing"

	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
	"github.com/stretchr/testify/assert"
)

func TestMove_SkipKinds(t *testing.T) {
	t.Run("Voluntary skip is permanent kind", func(t *testing.T) {
		// Given: a voluntary skip
		move := NewSkip(2, SkipVoluntary)

		// Then: it is a skip but not a forced one
		assert.True(t, move.IsSkip())
		assert.True(t, move.IsVoluntarySkip())
		assert.False(t, move.IsForcedSkip())
	})

	t.Run("Illegal and timeout skips are forced", func(t *testing.T) {
		for _, kind := range []int{SkipIllegal, SkipTimeout} {
			move := NewSkip(1, kind)

			assert.True(t, move.IsSkip())
			assert.True(t, move.IsForcedSkip())
			assert.False(t, move.IsVoluntarySkip())
		}
	})

	t.Run("Placement is not a skip", func(t *testing.T) {
		move := NewMove(0, 0, 0, false, geometry.Point{})

		assert.False(t, move.IsSkip())
		assert.False(t, move.IsForcedSkip())
	})
}

func TestMove_SameAs(t *testing.T) {
	// Given: two copies of a move, one already sequenced
	move := NewMove(1, 4, 2, true, geometry.Point{X: 3, Y: 7})
	recorded := move
	recorded.Seq = 12

	// Then: they describe the same move
	assert.True(t, move.SameAs(recorded))

	// When: the position differs
	recorded.Position.X++

	// Then: they do not
	assert.False(t, move.SameAs(recorded))
}

func TestBoardSetup_Validate(t *testing.T) {
	t.Run("Defaults are valid", func(t *testing.T) {
		setup := NewBoardSetup("original", nil)

		assert.NoError(t, setup.Validate())
		assert.Equal(t, 20, setup.Rows)
		assert.Equal(t, 4, setup.PlayerCount)
	})

	t.Run("Bad shape", func(t *testing.T) {
		setup := NewBoardSetup("original", nil)
		setup.Cols = 0

		assert.ErrorIs(t, setup.Validate(), ErrInvalidSetup)
	})

	t.Run("No players", func(t *testing.T) {
		setup := NewBoardSetup("original", nil)
		setup.PlayerCount = 0

		assert.ErrorIs(t, setup.Validate(), ErrInvalidSetup)
	})

	t.Run("No library", func(t *testing.T) {
		setup := NewBoardSetup("", nil)

		assert.ErrorIs(t, setup.Validate(), ErrInvalidSetup)
	})
}
