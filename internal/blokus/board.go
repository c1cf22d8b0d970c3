package blokus

import (
	"fmt"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/catalog"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

// TurnFinished is the turn value once every player has skipped for good.
const TurnFinished = -1

// Block is one grid cell; Move is nil while the cell is empty.
type Block struct {
	Move *entity.Move
}

func (that Block) IsEmpty() bool {
	return that.Move == nil
}

// Owner returns the player occupying the block, or -1.
func (that Block) Owner() int {
	if that.Move == nil {
		return -1
	}
	return that.Move.PlayerID
}

// Board is the rules engine. It is not safe for concurrent use.
type Board struct {
	setup     entity.BoardSetup
	pieces    *catalog.PieceSet
	libraries []*catalog.Library

	grid    [][]Block
	corners [4]geometry.Point

	turn    int
	history [][]*entity.Move
	skipped []bool
	seq     int64
}

func NewBoard(setup entity.BoardSetup, pieces *catalog.PieceSet) (*Board, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}

	if pieces == nil {
		return nil, fmt.Errorf("%w: no piece set", entity.ErrInvalidSetup)
	}

	board := &Board{
		setup:     setup,
		pieces:    pieces,
		libraries: make([]*catalog.Library, setup.PlayerCount),
		grid:      make([][]Block, setup.Rows),
		history:   make([][]*entity.Move, setup.PlayerCount),
		skipped:   make([]bool, setup.PlayerCount),
		corners: [4]geometry.Point{
			{X: 0, Y: 0},
			{X: setup.Cols - 1, Y: 0},
			{X: 0, Y: setup.Rows - 1},
			{X: setup.Cols - 1, Y: setup.Rows - 1},
		},
	}

	for y := range board.grid {
		board.grid[y] = make([]Block, setup.Cols)
	}

	for player := range board.libraries {
		board.libraries[player] = catalog.NewLibrary(pieces)
	}

	return board, nil
}

func (that *Board) Setup() entity.BoardSetup {
	return that.setup
}

func (that *Board) Pieces() *catalog.PieceSet {
	return that.pieces
}

func (that *Board) PlayerCount() int {
	return that.setup.PlayerCount
}

func (that *Board) Corners() [4]geometry.Point {
	return that.corners
}

// Turn returns the player to move, or TurnFinished.
func (that *Board) Turn() int {
	return that.turn
}

func (that *Board) IsFinished() bool {
	return that.turn == TurnFinished
}

// IsSkipped reports whether the player has voluntarily left the game.
func (that *Board) IsSkipped(player int) bool {
	return that.validPlayer(player) && that.skipped[player]
}

func (that *Board) InBounds(p geometry.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < that.setup.Cols && p.Y < that.setup.Rows
}

// Block returns the cell at p; ok is false out of bounds.
func (that *Board) Block(p geometry.Point) (Block, bool) {
	if !that.InBounds(p) {
		return Block{}, false
	}
	return that.grid[p.Y][p.X], true
}

// Owner returns the player occupying p, or -1 if empty or out of bounds.
func (that *Board) Owner(p geometry.Point) int {
	block, _ := that.Block(p)
	return block.Owner()
}

func (that *Board) Remaining(player int) []int {
	if !that.validPlayer(player) {
		return nil
	}
	return that.libraries[player].Remaining()
}

func (that *Board) IsRemaining(player, pieceID int) bool {
	return that.validPlayer(player) && that.libraries[player].IsRemaining(pieceID)
}

// History returns copies of the player's recorded moves, oldest first.
func (that *Board) History(player int) []entity.Move {
	if !that.validPlayer(player) {
		return nil
	}

	moves := make([]entity.Move, len(that.history[player]))
	for i, move := range that.history[player] {
		moves[i] = *move
	}
	return moves
}

// Score is the number of cells the player has covered.
func (that *Board) Score(player int) int {
	if !that.validPlayer(player) {
		return 0
	}

	score := 0
	for _, move := range that.history[player] {
		if move.IsSkip() {
			continue
		}
		if piece, ok := that.pieces.Piece(move.PieceID); ok {
			score += piece.Size()
		}
	}
	return score
}

// Footprint returns the board cells the move would cover.
func (that *Board) Footprint(move entity.Move) ([]geometry.Point, error) {
	view, err := that.view(move)
	if err != nil {
		return nil, err
	}
	return translate(view.Coords, move.Position), nil
}

func (that *Board) view(move entity.Move) (geometry.View, error) {
	piece, ok := that.pieces.Piece(move.PieceID)
	if !ok {
		return geometry.View{}, fmt.Errorf("%w: %d", apperror.ErrUnknownPiece, move.PieceID)
	}

	if move.Rotation < 0 || move.Rotation > 3 {
		return geometry.View{}, fmt.Errorf("%w: got %d", apperror.ErrInvalidRotation, move.Rotation)
	}

	return piece.View(move.Rotation, move.Mirror), nil
}

func (that *Board) validPlayer(player int) bool {
	return player >= 0 && player < that.setup.PlayerCount
}

// hasPlaced reports whether the player has any non-skip move on the board.
func (that *Board) hasPlaced(player int) bool {
	for _, move := range that.history[player] {
		if !move.IsSkip() {
			return true
		}
	}
	return false
}

// nextTurn is the single source of turn order: the next player after from who
// has not voluntarily skipped, wrapping around, or TurnFinished.
func (that *Board) nextTurn(from int) int {
	count := that.setup.PlayerCount
	for i := 1; i <= count; i++ {
		candidate := (from + i) % count
		if !that.skipped[candidate] {
			return candidate
		}
	}
	return TurnFinished
}

func translate(coords []geometry.Point, by geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(coords))
	for i, c := range coords {
		out[i] = c.Add(by)
	}
	return out
}
