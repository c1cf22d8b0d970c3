package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

type Type int

const (
	TypeControl Type = iota
	TypeStatus
	TypeID
	TypeBoard
	TypeMove
)

// CONTROL payloads.
const (
	ControlJoin = "JOIN"
	ControlWait = "WAIT"
	ControlTurn = "TURN"
	ControlEnd  = "END"
)

type StatusCode int

const (
	StatusSkipped StatusCode = iota + 1
	StatusGameOver
	StatusError
)

func (that Type) String() string {
	switch that {
	case TypeControl:
		return "CONTROL"
	case TypeStatus:
		return "STATUS"
	case TypeID:
		return "ID"
	case TypeBoard:
		return "BOARD"
	case TypeMove:
		return "MOVE"
	default:
		return fmt.Sprintf("TYPE(%d)", int(that))
	}
}

func (that StatusCode) String() string {
	switch that {
	case StatusSkipped:
		return "SKIPPED"
	case StatusGameOver:
		return "GAME_OVER"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("STATUS(%d)", int(that))
	}
}

// Message is one decoded frame: the wire form is the JSON array [type, object].
type Message struct {
	Type   Type
	Object json.RawMessage
}

type Status struct {
	Code    StatusCode
	Message string
}

func (that Message) MarshalJSON() ([]byte, error) {
	object := that.Object
	if object == nil {
		object = json.RawMessage("null")
	}
	return json.Marshal([]any{that.Type, object})
}

func (that *Message) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}

	if len(pair) != 2 {
		return fmt.Errorf("expected [type, object], got %d elements", len(pair))
	}

	if err := json.Unmarshal(pair[0], &that.Type); err != nil {
		return fmt.Errorf("bad message type: %w", err)
	}

	that.Object = pair[1]

	return nil
}

func newMessage(t Type, object any) (Message, error) {
	raw, err := json.Marshal(object)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Message{Type: t, Object: raw}, nil
}

// Control decodes a CONTROL payload.
func (that Message) Control() (string, error) {
	var control string
	if err := that.decode(TypeControl, &control); err != nil {
		return "", err
	}
	return control, nil
}

func (that Message) Status() (Status, error) {
	var pair []json.RawMessage
	if err := that.decode(TypeStatus, &pair); err != nil {
		return Status{}, err
	}

	if len(pair) != 2 {
		return Status{}, fmt.Errorf("%w: status needs [code, text]", apperror.ErrMalformedMessage)
	}

	var status Status
	if err := json.Unmarshal(pair[0], &status.Code); err != nil {
		return Status{}, fmt.Errorf("%w: status code: %w", apperror.ErrMalformedMessage, err)
	}
	if err := json.Unmarshal(pair[1], &status.Message); err != nil {
		return Status{}, fmt.Errorf("%w: status text: %w", apperror.ErrMalformedMessage, err)
	}

	return status, nil
}

func (that Message) ID() (int, error) {
	var id int
	if err := that.decode(TypeID, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Board decodes [library, restrict, [rows, cols], player_count].
func (that Message) Board() (entity.BoardSetup, error) {
	var fields []json.RawMessage
	if err := that.decode(TypeBoard, &fields); err != nil {
		return entity.BoardSetup{}, err
	}

	if len(fields) != 4 {
		return entity.BoardSetup{}, fmt.Errorf("%w: board needs 4 fields, got %d", apperror.ErrMalformedMessage, len(fields))
	}

	var (
		setup entity.BoardSetup
		shape [2]int
	)

	for i, target := range []any{&setup.Library, &setup.Restrict, &shape, &setup.PlayerCount} {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return entity.BoardSetup{}, fmt.Errorf("%w: board field %d: %w", apperror.ErrMalformedMessage, i, err)
		}
	}

	setup.Rows, setup.Cols = shape[0], shape[1]

	return setup, nil
}

// Move decodes [player_id, piece_id, rotation, mirror, [x, y]].
func (that Message) Move() (entity.Move, error) {
	var fields []json.RawMessage
	if err := that.decode(TypeMove, &fields); err != nil {
		return entity.Move{}, err
	}

	if len(fields) != 5 {
		return entity.Move{}, fmt.Errorf("%w: move needs 5 fields, got %d", apperror.ErrMalformedMessage, len(fields))
	}

	var (
		move     entity.Move
		position [2]int
	)

	for i, target := range []any{&move.PlayerID, &move.PieceID, &move.Rotation, &move.Mirror, &position} {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return entity.Move{}, fmt.Errorf("%w: move field %d: %w", apperror.ErrMalformedMessage, i, err)
		}
	}

	move.Position = geometry.Point{X: position[0], Y: position[1]}

	return move, nil
}

func (that Message) decode(want Type, target any) error {
	if that.Type != want {
		return fmt.Errorf("%w: want %s, got %s", apperror.ErrUnexpectedMessage, want, that.Type)
	}

	if err := json.Unmarshal(that.Object, target); err != nil {
		return fmt.Errorf("%w: %s payload: %w", apperror.ErrMalformedMessage, want, err)
	}

	return nil
}

func statusObject(code StatusCode, text string) []any {
	return []any{code, text}
}

func boardObject(setup entity.BoardSetup) []any {
	return []any{setup.Library, setup.Restrict, [2]int{setup.Rows, setup.Cols}, setup.PlayerCount}
}

func moveObject(move entity.Move) []any {
	return []any{move.PlayerID, move.PieceID, move.Rotation, move.Mirror, [2]int{move.Position.X, move.Position.Y}}
}
