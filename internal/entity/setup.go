package entity

import (
	"errors"
	"fmt"
)

const (
	DefaultBoardSize   = 20
	DefaultPlayerCount = 4
)

var ErrInvalidSetup = errors.New("invalid board setup")

// BoardSetup is everything a peer needs to rebuild an empty board.
type BoardSetup struct {
	Library     string `json:"library"`
	Restrict    []int  `json:"restrict,omitempty"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	PlayerCount int    `json:"player_count"`
}

func NewBoardSetup(library string, restrict []int) BoardSetup {
	return BoardSetup{
		Library:     library,
		Restrict:    restrict,
		Rows:        DefaultBoardSize,
		Cols:        DefaultBoardSize,
		PlayerCount: DefaultPlayerCount,
	}
}

func (that BoardSetup) Validate() error {
	switch {
	case that.Library == "":
		return fmt.Errorf("%w: empty library name", ErrInvalidSetup)
	case that.Rows <= 0 || that.Cols <= 0:
		return fmt.Errorf("%w: shape %dx%d", ErrInvalidSetup, that.Rows, that.Cols)
	case that.PlayerCount <= 0:
		return fmt.Errorf("%w: %d players", ErrInvalidSetup, that.PlayerCount)
	default:
		return nil
	}
}
