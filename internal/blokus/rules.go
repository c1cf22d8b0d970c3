package blokus

import (
	"fmt"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

// IsValidMove reports whether move is legal now; reason is for diagnostics only.
func (that *Board) IsValidMove(move entity.Move, ignoreTurn bool) (bool, string) {
	if err := that.ValidateMove(move, ignoreTurn); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ValidateMove returns nil for a legal move, or an error wrapping apperror.ErrInvalidMove.
func (that *Board) ValidateMove(move entity.Move, ignoreTurn bool) error {
	if !that.validPlayer(move.PlayerID) {
		return invalid(apperror.ErrInvalidPlayer, "player %d", move.PlayerID)
	}

	if move.IsSkip() {
		return nil
	}

	if that.IsFinished() {
		return invalid(apperror.ErrGameFinished, "player %d", move.PlayerID)
	}

	// a first placement answers only to the board-corner rule
	if !that.hasPlaced(move.PlayerID) {
		return that.validatePlacement(move, true)
	}

	if !ignoreTurn && move.PlayerID != that.turn {
		return invalid(apperror.ErrNotYourTurn, "player %d, turn %d", move.PlayerID, that.turn)
	}

	return that.validatePlacement(move, false)
}

func (that *Board) validatePlacement(move entity.Move, first bool) error {
	view, err := that.view(move)
	if err != nil {
		return invalid(err, "piece %d", move.PieceID)
	}

	if !that.libraries[move.PlayerID].IsRemaining(move.PieceID) {
		return invalid(apperror.ErrPieceUsed, "piece %d", move.PieceID)
	}

	// edge and corner cells come from the piece view, which already excludes
	// the piece's own cells, so checking them equals checking every cell's neighbours
	footprint := translate(view.Coords, move.Position)
	for _, cell := range footprint {
		if !that.InBounds(cell) {
			return invalid(apperror.ErrOutOfBounds, "cell %s", cell)
		}
		if that.Owner(cell) >= 0 {
			return invalid(apperror.ErrCellOccupied, "cell %s", cell)
		}
	}

	for _, cell := range translate(view.Edges, move.Position) {
		if that.Owner(cell) == move.PlayerID {
			return invalid(apperror.ErrEdgeTouch, "cell %s", cell)
		}
	}

	if first {
		if !that.touchesBoardCorner(footprint) {
			return invalid(apperror.ErrNoBoardCorner, "player %d", move.PlayerID)
		}
		return nil
	}

	for _, cell := range translate(view.Corners, move.Position) {
		if that.Owner(cell) == move.PlayerID {
			return nil
		}
	}

	return invalid(apperror.ErrNoCornerTouch, "player %d", move.PlayerID)
}

func (that *Board) touchesBoardCorner(footprint []geometry.Point) bool {
	for _, cell := range footprint {
		for _, corner := range that.corners {
			if cell == corner {
				return true
			}
		}
	}
	return false
}

// PlayMove validates and records move, then advances the turn. It returns the
// recorded move with its sequence number and the next player to move.
func (that *Board) PlayMove(move entity.Move) (entity.Move, int, error) {
	if that.IsFinished() {
		return entity.Move{}, that.turn, invalid(apperror.ErrGameFinished, "player %d", move.PlayerID)
	}

	if move.PlayerID != that.turn {
		return entity.Move{}, that.turn, invalid(apperror.ErrNotYourTurn, "player %d, turn %d", move.PlayerID, that.turn)
	}

	if err := that.ValidateMove(move, false); err != nil {
		return entity.Move{}, that.turn, err
	}

	that.seq++
	recorded := move
	recorded.Seq = that.seq
	stored := &recorded

	player := move.PlayerID
	that.history[player] = append(that.history[player], stored)

	switch {
	case move.IsVoluntarySkip():
		that.skipped[player] = true
	case !move.IsSkip():
		footprint, _ := that.Footprint(move)
		for _, cell := range footprint {
			that.grid[cell.Y][cell.X] = Block{Move: stored}
		}
		that.libraries[player].Use(move.PieceID)
	}

	that.turn = that.nextTurn(player)

	return recorded, that.turn, nil
}

// UnplayMove reverts the most recent move of move.PlayerID and gives that player the turn back.
func (that *Board) UnplayMove(move entity.Move) error {
	if !that.validPlayer(move.PlayerID) {
		return fmt.Errorf("%w: player %d", apperror.ErrInvalidPlayer, move.PlayerID)
	}

	player := move.PlayerID
	moves := that.history[player]
	if len(moves) == 0 {
		return fmt.Errorf("%w: player %d has no moves", apperror.ErrOutOfOrderUnplay, player)
	}

	last := moves[len(moves)-1]
	if !last.SameAs(move) || (move.Seq != 0 && move.Seq != last.Seq) {
		return fmt.Errorf("%w: %s, last is %s", apperror.ErrOutOfOrderUnplay, move, last)
	}

	that.history[player] = moves[:len(moves)-1]

	switch {
	case last.IsVoluntarySkip():
		that.skipped[player] = false
	case !last.IsSkip():
		footprint, _ := that.Footprint(*last)
		for _, cell := range footprint {
			that.grid[cell.Y][cell.X] = Block{}
		}
		that.libraries[player].Release(last.PieceID)
	}

	that.turn = player

	return nil
}

func invalid(reason error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", apperror.ErrInvalidMove, reason, fmt.Sprintf(format, args...))
}
