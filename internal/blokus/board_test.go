package blokus

import (
	"testing"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/catalog"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monomino = 0
	domino   = 1
	tromino  = 2
)

func newBoard(t *testing.T) *Board {
	t.Helper()

	set, err := catalog.Load(catalog.DefaultLibrary, nil)
	require.NoError(t, err)

	board, err := NewBoard(entity.NewBoardSetup(catalog.DefaultLibrary, nil), set)
	require.NoError(t, err)

	return board
}

func newSmallBoard(t *testing.T, rows, cols, players int) *Board {
	t.Helper()

	set, err := catalog.Load("small", nil)
	require.NoError(t, err)

	board, err := NewBoard(entity.BoardSetup{Library: "small", Rows: rows, Cols: cols, PlayerCount: players}, set)
	require.NoError(t, err)

	return board
}

func place(player, piece, rotation int, mirror bool, x, y int) entity.Move {
	return entity.NewMove(player, piece, rotation, mirror, geometry.Point{X: x, Y: y})
}

func mustPlay(t *testing.T, board *Board, move entity.Move) entity.Move {
	t.Helper()

	recorded, _, err := board.PlayMove(move)
	require.NoError(t, err)

	return recorded
}

// forceSkipUntil plays illegal-move skips until it is player's turn.
func forceSkipUntil(t *testing.T, board *Board, player int) {
	t.Helper()

	for board.Turn() != player {
		mustPlay(t, board, entity.NewSkip(board.Turn(), entity.SkipIllegal))
	}
}

func TestNewBoard(t *testing.T) {
	t.Run("Empty board", func(t *testing.T) {
		// When: a default board is built
		board := newBoard(t)

		// Then: player 0 moves first and every cell is empty
		assert.Equal(t, 0, board.Turn())
		assert.False(t, board.IsFinished())
		assert.Equal(t, [4]geometry.Point{{X: 0, Y: 0}, {X: 19, Y: 0}, {X: 0, Y: 19}, {X: 19, Y: 19}}, board.Corners())

		for y := 0; y < 20; y++ {
			for x := 0; x < 20; x++ {
				block, ok := board.Block(geometry.Point{X: x, Y: y})
				require.True(t, ok)
				require.True(t, block.IsEmpty())
			}
		}
	})

	t.Run("Invalid setup", func(t *testing.T) {
		set, err := catalog.Load("small", nil)
		require.NoError(t, err)

		_, err = NewBoard(entity.BoardSetup{Library: "small", Rows: 0, Cols: 5, PlayerCount: 2}, set)

		require.ErrorIs(t, err, entity.ErrInvalidSetup)
	})
}

func TestBoard_FirstMove(t *testing.T) {
	t.Run("Single cell in a corner is accepted", func(t *testing.T) {
		// Given: an empty 20x20 board with the original library
		board := newBoard(t)

		// When: player 0 plays the single-cell piece at the corner
		recorded, next, err := board.PlayMove(place(0, monomino, 0, false, 0, 0))

		// Then: the corner shows player 0 and the piece left the hand
		require.NoError(t, err)
		assert.Equal(t, 0, board.Owner(geometry.Point{X: 0, Y: 0}))
		assert.NotContains(t, board.Remaining(0), monomino)
		assert.Contains(t, board.Remaining(1), monomino)
		assert.Equal(t, 1, next)
		assert.Equal(t, int64(1), recorded.Seq)
	})

	t.Run("Placement away from a corner is rejected", func(t *testing.T) {
		board := newBoard(t)

		ok, reason := board.IsValidMove(place(0, monomino, 0, false, 5, 5), false)

		assert.False(t, ok)
		assert.Contains(t, reason, "must occupy a board corner")
	})

	t.Run("Any corner will do", func(t *testing.T) {
		board := newBoard(t)

		// the i3 piece lying along the bottom edge, ending in the bottom-right corner
		err := board.ValidateMove(place(0, tromino, 0, false, 17, 19), false)

		assert.NoError(t, err)
	})

	t.Run("Out of bounds", func(t *testing.T) {
		board := newBoard(t)

		err := board.ValidateMove(place(0, domino, 0, false, 19, 0), false)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
	})

	t.Run("Occupied corner", func(t *testing.T) {
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))

		err := board.ValidateMove(place(1, monomino, 0, false, 0, 0), false)

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
	})
}

func TestBoard_ValidateMove(t *testing.T) {
	t.Run("Not your turn", func(t *testing.T) {
		// Given: player 0 has placed and the turn passed to player 1
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))

		// When: player 0 validates a second placement out of turn
		err := board.ValidateMove(place(0, domino, 0, false, 1, 1), false)

		// Then: the turn check rejects it unless told to ignore the turn
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.NoError(t, board.ValidateMove(place(0, domino, 0, false, 1, 1), true))
	})

	t.Run("First placement ignores the turn", func(t *testing.T) {
		board := newBoard(t)

		assert.NoError(t, board.ValidateMove(place(2, monomino, 0, false, 0, 0), false))
		require.ErrorIs(t, board.ValidateMove(place(2, monomino, 0, false, 3, 3), false), apperror.ErrNoBoardCorner)
	})

	t.Run("Skips are always valid", func(t *testing.T) {
		board := newBoard(t)

		assert.NoError(t, board.ValidateMove(entity.NewSkip(3, entity.SkipVoluntary), false))
	})

	t.Run("Unknown player", func(t *testing.T) {
		board := newBoard(t)

		err := board.ValidateMove(place(7, monomino, 0, false, 0, 0), true)

		require.ErrorIs(t, err, apperror.ErrInvalidPlayer)
	})

	t.Run("Unknown piece and bad rotation", func(t *testing.T) {
		board := newBoard(t)

		require.ErrorIs(t, board.ValidateMove(place(0, 77, 0, false, 0, 0), false), apperror.ErrUnknownPiece)
		require.ErrorIs(t, board.ValidateMove(place(0, monomino, 4, false, 0, 0), false), apperror.ErrInvalidRotation)
	})

	t.Run("Second piece edge-adjacent to own piece is rejected", func(t *testing.T) {
		// Given: player 0 owns the top-left corner
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)

		// When: player 0 places a domino right next to it
		ok, reason := board.IsValidMove(place(0, domino, 0, false, 1, 0), false)

		// Then: the edge contact is illegal
		assert.False(t, ok)
		assert.Contains(t, reason, apperror.ErrEdgeTouch.Error())
	})

	t.Run("Second piece without corner contact is rejected", func(t *testing.T) {
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)

		ok, reason := board.IsValidMove(place(0, domino, 0, false, 5, 5), false)

		assert.False(t, ok)
		assert.Contains(t, reason, "touches no corners")
	})

	t.Run("Second piece touching a corner is accepted", func(t *testing.T) {
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)

		err := board.ValidateMove(place(0, domino, 0, false, 1, 1), false)

		assert.NoError(t, err)
	})

	t.Run("Used piece is rejected", func(t *testing.T) {
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)

		err := board.ValidateMove(place(0, monomino, 0, false, 1, 1), false)

		require.ErrorIs(t, err, apperror.ErrPieceUsed)
	})

	t.Run("Touching another color on an edge is allowed", func(t *testing.T) {
		board := newSmallBoard(t, 2, 2, 2)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))

		err := board.ValidateMove(place(1, monomino, 0, false, 1, 0), false)

		assert.NoError(t, err)
	})
}

func TestBoard_PlayUnplay(t *testing.T) {
	t.Run("Unplay restores the board", func(t *testing.T) {
		// Given: a board after a few moves
		board := newBoard(t)
		mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		mustPlay(t, board, place(1, tromino, 1, false, 19, 0))
		before := snapshot(board)

		// When: a move is played and unplayed
		recorded := mustPlay(t, board, place(2, 13, 2, true, 0, 19))
		require.NotEqual(t, before, snapshot(board))
		require.NoError(t, board.UnplayMove(recorded))

		// Then: cells, turn and hands are as before
		assert.Equal(t, before, snapshot(board))
	})

	t.Run("Unplay without sequence matches by value", func(t *testing.T) {
		board := newBoard(t)
		move := place(0, monomino, 0, false, 0, 0)
		mustPlay(t, board, move)

		require.NoError(t, board.UnplayMove(move))
		assert.Equal(t, 0, board.Turn())
		assert.Equal(t, -1, board.Owner(geometry.Point{}))
	})

	t.Run("Unplay out of order fails", func(t *testing.T) {
		board := newBoard(t)
		first := mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)
		mustPlay(t, board, place(0, domino, 0, false, 1, 1))

		err := board.UnplayMove(first)

		require.ErrorIs(t, err, apperror.ErrOutOfOrderUnplay)
	})

	t.Run("Unplay with empty history fails", func(t *testing.T) {
		board := newBoard(t)

		err := board.UnplayMove(place(3, monomino, 0, false, 0, 0))

		require.ErrorIs(t, err, apperror.ErrOutOfOrderUnplay)
	})

	t.Run("Unplaying a voluntary skip re-enters the player", func(t *testing.T) {
		board := newBoard(t)
		skip := mustPlay(t, board, entity.NewSkip(0, entity.SkipVoluntary))
		require.True(t, board.IsSkipped(0))

		require.NoError(t, board.UnplayMove(skip))

		assert.False(t, board.IsSkipped(0))
		assert.Equal(t, 0, board.Turn())
	})

	t.Run("Playing out of turn fails", func(t *testing.T) {
		board := newBoard(t)

		_, next, err := board.PlayMove(entity.NewSkip(1, entity.SkipVoluntary))

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, 0, next)
	})

	t.Run("Invalid placement is not recorded", func(t *testing.T) {
		board := newBoard(t)

		_, _, err := board.PlayMove(place(0, monomino, 0, false, 4, 4))

		require.ErrorIs(t, err, apperror.ErrNoBoardCorner)
		assert.Empty(t, board.History(0))
		assert.Equal(t, 0, board.Turn())
	})
}

func TestBoard_TurnOrder(t *testing.T) {
	t.Run("Forced skips are for one turn only", func(t *testing.T) {
		board := newBoard(t)

		_, next, err := board.PlayMove(entity.NewSkip(0, entity.SkipIllegal))
		require.NoError(t, err)
		assert.Equal(t, 1, next)

		_, next, err = board.PlayMove(entity.NewSkip(1, entity.SkipTimeout))
		require.NoError(t, err)
		assert.Equal(t, 2, next)

		assert.False(t, board.IsSkipped(0))
		assert.False(t, board.IsSkipped(1))
	})

	t.Run("Voluntary skip leaves the rotation", func(t *testing.T) {
		board := newBoard(t)
		mustPlay(t, board, entity.NewSkip(0, entity.SkipIllegal))
		mustPlay(t, board, entity.NewSkip(1, entity.SkipVoluntary))
		mustPlay(t, board, entity.NewSkip(2, entity.SkipIllegal))
		mustPlay(t, board, entity.NewSkip(3, entity.SkipIllegal))

		_, next, err := board.PlayMove(entity.NewSkip(0, entity.SkipIllegal))

		require.NoError(t, err)
		assert.Equal(t, 2, next)
	})

	t.Run("Four voluntary skips finish the game", func(t *testing.T) {
		// Given: a fresh board
		board := newBoard(t)

		// When: every player skips voluntarily
		var next int
		for player := 0; player < 4; player++ {
			require.False(t, board.IsFinished())
			_, n, err := board.PlayMove(entity.NewSkip(player, entity.SkipVoluntary))
			require.NoError(t, err)
			next = n
		}

		// Then: the board is finished and refuses more moves
		assert.Equal(t, TurnFinished, next)
		assert.True(t, board.IsFinished())

		_, _, err := board.PlayMove(entity.NewSkip(0, entity.SkipVoluntary))
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Last remaining player keeps the turn", func(t *testing.T) {
		board := newSmallBoard(t, 5, 5, 2)
		mustPlay(t, board, entity.NewSkip(0, entity.SkipVoluntary))

		_, next, err := board.PlayMove(place(1, monomino, 0, false, 4, 4))

		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})
}

func TestBoard_Score(t *testing.T) {
	board := newBoard(t)
	mustPlay(t, board, place(0, monomino, 0, false, 0, 0))
	mustPlay(t, board, place(1, tromino, 1, false, 19, 0))
	mustPlay(t, board, entity.NewSkip(2, entity.SkipIllegal))

	assert.Equal(t, 1, board.Score(0))
	assert.Equal(t, 3, board.Score(1))
	assert.Equal(t, 0, board.Score(2))
}

func TestBoard_RuleProperties(t *testing.T) {
	t.Run("Every valid first move covers a board corner", func(t *testing.T) {
		board := newSmallBoard(t, 5, 5, 2)

		for _, move := range allPlacements(board, 0) {
			footprint, err := board.Footprint(move)
			if err != nil || board.ValidateMove(move, false) != nil {
				continue
			}

			assert.True(t, board.touchesBoardCorner(footprint), "move %s", move)
		}
	})

	t.Run("Later moves touch own corners and no own edges", func(t *testing.T) {
		board := newSmallBoard(t, 6, 6, 2)
		mustPlay(t, board, place(0, 2, 0, false, 0, 0))
		forceSkipUntil(t, board, 0)

		valid := 0
		for _, move := range allPlacements(board, 0) {
			if board.ValidateMove(move, false) != nil {
				continue
			}
			valid++

			footprint, err := board.Footprint(move)
			require.NoError(t, err)

			cornerTouch := false
			for _, cell := range footprint {
				for _, offset := range geometry.EdgeOffsets {
					assert.NotEqual(t, 0, board.Owner(cell.Add(offset)), "move %s", move)
				}
				for _, offset := range geometry.CornerOffsets {
					if board.Owner(cell.Add(offset)) == 0 {
						cornerTouch = true
					}
				}
			}
			assert.True(t, cornerTouch, "move %s", move)
		}

		assert.Positive(t, valid)
	})
}

type boardState struct {
	owners    [][]int
	turn      int
	remaining [][]int
	skipped   []bool
}

func snapshot(board *Board) boardState {
	setup := board.Setup()
	state := boardState{turn: board.Turn()}

	for y := 0; y < setup.Rows; y++ {
		row := make([]int, setup.Cols)
		for x := range row {
			row[x] = board.Owner(geometry.Point{X: x, Y: y})
		}
		state.owners = append(state.owners, row)
	}

	for player := 0; player < setup.PlayerCount; player++ {
		state.remaining = append(state.remaining, board.Remaining(player))
		state.skipped = append(state.skipped, board.IsSkipped(player))
	}

	return state
}

func allPlacements(board *Board, player int) []entity.Move {
	var moves []entity.Move
	setup := board.Setup()

	for _, id := range board.Remaining(player) {
		for rotation := 0; rotation < 4; rotation++ {
			for _, mirror := range []bool{false, true} {
				for y := 0; y < setup.Rows; y++ {
					for x := 0; x < setup.Cols; x++ {
						moves = append(moves, place(player, id, rotation, mirror, x, y))
					}
				}
			}
		}
	}

	return moves
}
