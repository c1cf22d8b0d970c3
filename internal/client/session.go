package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/blokus"
	"github.com/rocketscienceinc/blokus-backend/internal/catalog"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/protocol"
)

// Loader resolves the piece set named in a board snapshot.
type Loader func(name string, restrict []int) (*catalog.PieceSet, error)

// Session is the client side of one game.
type Session struct {
	logger *slog.Logger
	conn   *protocol.Conn
	loader Loader

	player int
	board  *blokus.Board
}

func NewSession(logger *slog.Logger, rw io.ReadWriter, loader Loader) *Session {
	if loader == nil {
		loader = catalog.Load
	}

	return &Session{
		logger: logger.With("component", "session"),
		conn:   protocol.NewConn(rw),
		loader: loader,
		player: -1,
	}
}

func (that *Session) Player() int {
	return that.player
}

// Board is the local board built from the server snapshot; nil before Join.
func (that *Session) Board() *blokus.Board {
	return that.board
}

// Join sends JOIN and waits for the player id and the board snapshot.
func (that *Session) Join() error {
	log := that.logger.With("method", "Join")

	if err := that.conn.SendControl(protocol.ControlJoin); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	msg, err := that.conn.Expect(protocol.TypeID)
	if err != nil {
		return fmt.Errorf("failed to read player id: %w", err)
	}

	player, err := msg.ID()
	if err != nil {
		return err
	}

	if msg, err = that.conn.Expect(protocol.TypeBoard); err != nil {
		return fmt.Errorf("failed to read board: %w", err)
	}

	setup, err := msg.Board()
	if err != nil {
		return err
	}

	board, err := that.newBoard(setup)
	if err != nil {
		return err
	}

	that.player = player
	that.board = board

	log.Info("Joined game", "player", player, "library", setup.Library, "players", setup.PlayerCount)

	return nil
}

func (that *Session) newBoard(setup entity.BoardSetup) (*blokus.Board, error) {
	pieces, err := that.loader(setup.Library, setup.Restrict)
	if err != nil {
		return nil, fmt.Errorf("failed to load pieces %q: %w", setup.Library, err)
	}

	board, err := blokus.NewBoard(setup, pieces)
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	return board, nil
}

// Loop serves server messages to bot until END. A connection closed by the
// server ends the loop without error.
func (that *Session) Loop(ctx context.Context, bot Bot) error {
	log := that.logger.With("method", "Loop", "player", that.player)

	for {
		msg, err := that.conn.Receive()
		if errors.Is(err, apperror.ErrConnectionClosed) {
			log.Info("Server closed the connection")
			return nil
		}
		if err != nil {
			return err
		}

		switch msg.Type {
		case protocol.TypeControl:
			control, err := msg.Control()
			if err != nil {
				return err
			}

			switch control {
			case protocol.ControlWait:
				log.Debug("Waiting for players")
			case protocol.ControlTurn:
				move, err := bot.GetMove(ctx)
				if err != nil {
					return fmt.Errorf("bot failed: %w", err)
				}
				if err = that.conn.SendMove(move); err != nil {
					return err
				}
			case protocol.ControlEnd:
				log.Info("Game ended")
				return nil
			default:
				return fmt.Errorf("%w: control %q", apperror.ErrUnexpectedMessage, control)
			}

		case protocol.TypeStatus:
			status, err := msg.Status()
			if err != nil {
				return err
			}
			bot.ReportStatus(status.Code, status.Message)

		case protocol.TypeMove:
			move, err := msg.Move()
			if err != nil {
				return err
			}
			bot.ReportMove(move)

		default:
			return fmt.Errorf("%w: %s during play", apperror.ErrUnexpectedMessage, msg.Type)
		}
	}
}

func (that *Session) Close() error {
	return that.conn.Close()
}

// Play joins a game over rw and plays it with the bot built by factory.
func Play(ctx context.Context, logger *slog.Logger, rw io.ReadWriter, loader Loader, factory BotFactory) error {
	session := NewSession(logger, rw, loader)

	if err := session.Join(); err != nil {
		return err
	}

	return session.Loop(ctx, factory(session.Player(), session.Board()))
}
