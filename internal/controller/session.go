package controller

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/protocol"
)

type inbound struct {
	msg *protocol.Message
	err error
}

// session is the server side of one player's connection.
type session struct {
	player  int
	conn    *protocol.Conn
	logger  *slog.Logger
	inbox   chan inbound
	closed  atomic.Bool
	illegal int
	// owed counts timed-out TURNs whose MOVE has not arrived yet.
	owed int
}

func newSession(logger *slog.Logger, player int, rwc io.ReadWriteCloser) *session {
	return &session{
		player: player,
		conn:   protocol.NewConn(rwc),
		logger: logger.With("player", player),
		inbox:  make(chan inbound, 1),
	}
}

// handshake expects JOIN, then sends the player id, the board snapshot and WAIT.
func (that *session) handshake(setup entity.BoardSetup) error {
	msg, err := that.conn.Expect(protocol.TypeControl)
	if err != nil {
		return fmt.Errorf("failed to read join: %w", err)
	}

	control, err := msg.Control()
	if err != nil {
		return err
	}

	if control != protocol.ControlJoin {
		return fmt.Errorf("%w: want %s, got %s", apperror.ErrUnexpectedMessage, protocol.ControlJoin, control)
	}

	if err = that.conn.SendID(that.player); err != nil {
		return err
	}

	if err = that.conn.SendBoard(setup); err != nil {
		return err
	}

	return that.conn.SendControl(protocol.ControlWait)
}

// pump forwards incoming messages to the inbox until the connection fails or done closes.
func (that *session) pump(done <-chan struct{}) {
	for {
		msg, err := that.conn.Receive()

		select {
		case that.inbox <- inbound{msg: msg, err: err}:
		case <-done:
			return
		}

		if err != nil {
			return
		}
	}
}

func (that *session) isClosed() bool {
	return that.closed.Load()
}

func (that *session) close() {
	if !that.closed.CompareAndSwap(false, true) {
		return
	}

	if err := that.conn.Close(); err != nil {
		that.logger.Debug("failed to close connection", "error", err)
	}
}

// send closes the session on any write failure.
func (that *session) send(write func(conn *protocol.Conn) error) {
	if that.isClosed() {
		return
	}

	if err := write(that.conn); err != nil {
		that.logger.Warn("failed to send, dropping player", "error", err)
		that.close()
	}
}
