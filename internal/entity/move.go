package entity

import (
	"fmt"

	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

// Negative piece ids mark skips.
const (
	SkipVoluntary = -1
	SkipIllegal   = -2
	SkipTimeout   = -3
)

type Move struct {
	// Seq orders moves within a game; zero until the board records the move.
	Seq      int64          `json:"seq,omitempty"`
	PlayerID int            `json:"player_id"`
	PieceID  int            `json:"piece_id"`
	Rotation int            `json:"rotation"`
	Mirror   bool           `json:"mirror"`
	Position geometry.Point `json:"position"`
}

func NewMove(playerID, pieceID, rotation int, mirror bool, position geometry.Point) Move {
	return Move{
		PlayerID: playerID,
		PieceID:  pieceID,
		Rotation: rotation,
		Mirror:   mirror,
		Position: position,
	}
}

// NewSkip builds a skip move; kind is one of the Skip* sentinels.
func NewSkip(playerID, kind int) Move {
	return Move{PlayerID: playerID, PieceID: kind}
}

func (that Move) IsSkip() bool {
	return that.PieceID < 0
}

func (that Move) IsVoluntarySkip() bool {
	return that.PieceID == SkipVoluntary
}

// IsForcedSkip reports skips imposed by the server for one turn.
func (that Move) IsForcedSkip() bool {
	return that.PieceID == SkipIllegal || that.PieceID == SkipTimeout
}

// SameAs compares everything but the sequence number.
func (that Move) SameAs(other Move) bool {
	that.Seq, other.Seq = 0, 0
	return that == other
}

func (that Move) String() string {
	switch that.PieceID {
	case SkipVoluntary:
		return fmt.Sprintf("player %d skips", that.PlayerID)
	case SkipIllegal:
		return fmt.Sprintf("player %d made an illegal move", that.PlayerID)
	case SkipTimeout:
		return fmt.Sprintf("player %d timed out", that.PlayerID)
	}

	return fmt.Sprintf("player %d plays piece %d rot=%d mirror=%t at %s",
		that.PlayerID, that.PieceID, that.Rotation, that.Mirror, that.Position)
}
