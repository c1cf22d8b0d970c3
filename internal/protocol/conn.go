package protocol

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
)

const (
	headerSize = 4

	// MaxMessageSize bounds a single payload.
	MaxMessageSize = 1 << 20
)

// WriteMessage writes a 4-byte big-endian length prefix followed by the JSON payload.
func WriteMessage(w io.Writer, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", apperror.ErrMessageTooLarge, len(payload))
	}

	buf := make([]byte, headerSize, headerSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	if _, err = w.Write(buf); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// ReadMessage blocks until one whole message is read. A closed stream or a
// zero length prefix yields apperror.ErrConnectionClosed.
func ReadMessage(r io.Reader) (*Message, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, closedOr(err, "failed to read header")
	}

	size := binary.BigEndian.Uint32(header)
	if size == 0 {
		return nil, fmt.Errorf("%w: zero length message", apperror.ErrConnectionClosed)
	}

	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", apperror.ErrMessageTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, closedOr(err, "failed to read payload")
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return &msg, nil
}

func closedOr(err error, action string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %s: %w", apperror.ErrConnectionClosed, action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// Conn is a message stream over a byte stream. Sends may come from several
// goroutines; Receive must only be called from one.
type Conn struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	mu     sync.Mutex
}

func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:     rw,
		reader: bufio.NewReader(rw),
	}
}

func (that *Conn) Close() error {
	if closer, ok := that.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (that *Conn) Send(t Type, object any) error {
	msg, err := newMessage(t, object)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return WriteMessage(that.rw, msg)
}

func (that *Conn) SendControl(control string) error {
	return that.Send(TypeControl, control)
}

func (that *Conn) SendStatus(code StatusCode, text string) error {
	return that.Send(TypeStatus, statusObject(code, text))
}

func (that *Conn) SendID(id int) error {
	return that.Send(TypeID, id)
}

func (that *Conn) SendBoard(setup entity.BoardSetup) error {
	return that.Send(TypeBoard, boardObject(setup))
}

func (that *Conn) SendMove(move entity.Move) error {
	return that.Send(TypeMove, moveObject(move))
}

func (that *Conn) Receive() (*Message, error) {
	return ReadMessage(that.reader)
}

// Expect receives one message and fails with ErrUnexpectedMessage if it is not of type t.
func (that *Conn) Expect(t Type) (*Message, error) {
	msg, err := that.Receive()
	if err != nil {
		return nil, err
	}

	if msg.Type != t {
		return nil, fmt.Errorf("%w: want %s, got %s", apperror.ErrUnexpectedMessage, t, msg.Type)
	}

	return msg, nil
}
