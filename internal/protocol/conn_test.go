package protocol

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(payload string) []byte {
	buf := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func TestWireFormat(t *testing.T) {
	t.Run("Move is a length-prefixed [type, object] pair", func(t *testing.T) {
		// Given: a connection writing into a buffer
		var buf bytes.Buffer
		conn := NewConn(&buf)

		// When: a move is sent
		err := conn.SendMove(entity.NewMove(2, 7, 3, true, geometry.Point{X: 5, Y: 9}))

		// Then: the bytes are the prefix plus the JSON tuple
		require.NoError(t, err)
		assert.Equal(t, frame(`[4,[2,7,3,true,[5,9]]]`), buf.Bytes())
	})

	t.Run("Board snapshot layout", func(t *testing.T) {
		var buf bytes.Buffer
		conn := NewConn(&buf)

		err := conn.SendBoard(entity.BoardSetup{Library: "original", Rows: 20, Cols: 14, PlayerCount: 2})

		require.NoError(t, err)
		assert.Equal(t, frame(`[3,["original",null,[20,14],2]]`), buf.Bytes())
	})

	t.Run("Status and control", func(t *testing.T) {
		var buf bytes.Buffer
		conn := NewConn(&buf)

		require.NoError(t, conn.SendStatus(StatusGameOver, "done"))
		require.NoError(t, conn.SendControl(ControlTurn))

		expected := append(frame(`[1,[2,"done"]]`), frame(`[0,"TURN"]`)...)
		assert.Equal(t, expected, buf.Bytes())
	})
}

func TestReadMessage(t *testing.T) {
	t.Run("Decodes every payload kind", func(t *testing.T) {
		// Given: a stream holding one message of each type
		var stream bytes.Buffer
		stream.Write(frame(`[0,"JOIN"]`))
		stream.Write(frame(`[1,[1,"skipped"]]`))
		stream.Write(frame(`[2,3]`))
		stream.Write(frame(`[3,["small",[0,2],[6,7],2]]`))
		stream.Write(frame(`[4,[1,2,1,false,[4,0]]]`))
		conn := NewConn(&stream)

		// When / Then: each message decodes to its value
		msg, err := conn.Expect(TypeControl)
		require.NoError(t, err)
		control, err := msg.Control()
		require.NoError(t, err)
		assert.Equal(t, ControlJoin, control)

		msg, err = conn.Receive()
		require.NoError(t, err)
		status, err := msg.Status()
		require.NoError(t, err)
		assert.Equal(t, Status{Code: StatusSkipped, Message: "skipped"}, status)

		msg, err = conn.Receive()
		require.NoError(t, err)
		id, err := msg.ID()
		require.NoError(t, err)
		assert.Equal(t, 3, id)

		msg, err = conn.Receive()
		require.NoError(t, err)
		setup, err := msg.Board()
		require.NoError(t, err)
		assert.Equal(t, entity.BoardSetup{Library: "small", Restrict: []int{0, 2}, Rows: 6, Cols: 7, PlayerCount: 2}, setup)

		msg, err = conn.Receive()
		require.NoError(t, err)
		move, err := msg.Move()
		require.NoError(t, err)
		assert.Equal(t, entity.NewMove(1, 2, 1, false, geometry.Point{X: 4}), move)
	})

	t.Run("Zero length prefix is a closed connection", func(t *testing.T) {
		// Given: a length prefix announcing 0 bytes
		stream := bytes.NewReader([]byte{0, 0, 0, 0})

		// When: reading a message
		_, err := ReadMessage(stream)

		// Then: ErrConnectionClosed is returned, not a decode error
		require.ErrorIs(t, err, apperror.ErrConnectionClosed)
		assert.NotErrorIs(t, err, apperror.ErrMalformedMessage)
	})

	t.Run("Empty stream is a closed connection", func(t *testing.T) {
		_, err := ReadMessage(bytes.NewReader(nil))

		require.ErrorIs(t, err, apperror.ErrConnectionClosed)
	})

	t.Run("Truncated payload is a closed connection", func(t *testing.T) {
		data := frame(`[0,"TURN"]`)

		_, err := ReadMessage(bytes.NewReader(data[:len(data)-2]))

		require.ErrorIs(t, err, apperror.ErrConnectionClosed)
	})

	t.Run("Garbage payload is malformed", func(t *testing.T) {
		_, err := ReadMessage(bytes.NewReader(frame(`{"oops":1}`)))

		require.ErrorIs(t, err, apperror.ErrMalformedMessage)
	})

	t.Run("Oversized prefix is rejected", func(t *testing.T) {
		header := make([]byte, 4)
		binary.BigEndian.PutUint32(header, MaxMessageSize+1)

		_, err := ReadMessage(bytes.NewReader(header))

		require.ErrorIs(t, err, apperror.ErrMessageTooLarge)
	})

	t.Run("Wrong message type", func(t *testing.T) {
		conn := NewConn(bytes.NewBuffer(frame(`[2,1]`)))

		_, err := conn.Expect(TypeMove)

		require.ErrorIs(t, err, apperror.ErrUnexpectedMessage)
	})

	t.Run("Payload decoder checks the type", func(t *testing.T) {
		msg := Message{Type: TypeID, Object: []byte(`1`)}

		_, err := msg.Move()

		require.ErrorIs(t, err, apperror.ErrUnexpectedMessage)
	})

	t.Run("Short move tuple is malformed", func(t *testing.T) {
		msg := Message{Type: TypeMove, Object: []byte(`[1,2]`)}

		_, err := msg.Move()

		require.ErrorIs(t, err, apperror.ErrMalformedMessage)
	})
}

func TestConn_Pipe(t *testing.T) {
	t.Run("Peer close surfaces as ErrConnectionClosed", func(t *testing.T) {
		// Given: two ends of an in-memory connection
		server, client := net.Pipe()
		conn := NewConn(server)

		// When: the client hangs up
		require.NoError(t, client.Close())

		// Then: the server read reports a closed connection
		_, err := conn.Receive()
		require.ErrorIs(t, err, apperror.ErrConnectionClosed)
	})

	t.Run("Messages cross the pipe", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()

		go func() {
			_ = NewConn(client).SendID(2)
		}()

		msg, err := NewConn(server).Expect(TypeID)
		require.NoError(t, err)

		id, err := msg.ID()
		require.NoError(t, err)
		assert.Equal(t, 2, id)
	})
}
