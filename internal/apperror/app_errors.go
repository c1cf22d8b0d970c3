package apperror

import "errors"

// move validation.
var (
	ErrInvalidMove     = errors.New("invalid move")
	ErrGameFinished    = errors.New("game is already finished")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidPlayer   = errors.New("unknown player")
	ErrUnknownPiece    = errors.New("unknown piece")
	ErrPieceUsed       = errors.New("piece is already used")
	ErrInvalidRotation = errors.New("rotation must be in 0..3")
	ErrOutOfBounds     = errors.New("piece is out of bounds")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrEdgeTouch       = errors.New("piece touches an edge of the same color")
	ErrNoCornerTouch   = errors.New("touches no corners")
	ErrNoBoardCorner   = errors.New("must occupy a board corner")
)

// programming defects, never recovered.
var (
	ErrOutOfOrderUnplay = errors.New("unplayed move is not the last move of the player")
	ErrTurnDiverged     = errors.New("turn token diverged from board turn")
	ErrBoardOutOfSync   = errors.New("local board out of sync with server")
)

// resources.
var (
	ErrMalformedPieceDefinition = errors.New("malformed piece definition")
	ErrMalformedCatalog         = errors.New("malformed piece catalog")
	ErrUnknownLibrary           = errors.New("unknown piece library")
	ErrMalformedLog             = errors.New("malformed game log")
	ErrGameSetup                = errors.New("could not set up game")
)

// wire protocol.
var (
	ErrConnectionClosed  = errors.New("connection closed")
	ErrUnexpectedMessage = errors.New("unexpected message")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrMessageTooLarge   = errors.New("message too large")
)
