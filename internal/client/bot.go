package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/blokus"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
	"github.com/rocketscienceinc/blokus-backend/internal/protocol"
)

// Bot is whatever picks moves for a player: a program, a GUI or a human.
type Bot interface {
	// GetMove may block until a move is chosen.
	GetMove(ctx context.Context) (entity.Move, error)
	// ReportMove is called for every move the server applies, in play order.
	ReportMove(move entity.Move)
	ReportStatus(code protocol.StatusCode, message string)
}

// BotFactory builds the bot for a joined player; board is the session's local board.
type BotFactory func(player int, board *blokus.Board) Bot

type playOnReport struct {
	Bot
	logger *slog.Logger
	board  *blokus.Board
	// err is the first move the local board rejected; the board is stale after it.
	err error
}

// PlayOnReport keeps board in sync by playing every reported move onto it
// before the wrapped bot sees the move. Once the board falls out of sync,
// GetMove fails.
func PlayOnReport(logger *slog.Logger, board *blokus.Board, bot Bot) Bot {
	return &playOnReport{
		Bot:    bot,
		logger: logger.With("component", "playOnReport"),
		board:  board,
	}
}

func (that *playOnReport) GetMove(ctx context.Context) (entity.Move, error) {
	if that.err != nil {
		return entity.Move{}, that.err
	}

	return that.Bot.GetMove(ctx)
}

func (that *playOnReport) ReportMove(move entity.Move) {
	if that.err == nil {
		if _, _, err := that.board.PlayMove(move); err != nil {
			that.logger.Error("Local board rejected a server move", "move", move, "error", err)
			that.err = fmt.Errorf("%w: %s: %w", apperror.ErrBoardOutOfSync, move, err)
		}
	}

	that.Bot.ReportMove(move)
}

type withLogging struct {
	Bot
	logger *slog.Logger
}

// WithLogging logs every move and status passing through bot.
func WithLogging(logger *slog.Logger, bot Bot) Bot {
	return &withLogging{
		Bot:    bot,
		logger: logger.With("component", "bot"),
	}
}

func (that *withLogging) GetMove(ctx context.Context) (entity.Move, error) {
	move, err := that.Bot.GetMove(ctx)
	if err != nil {
		that.logger.Error("Bot failed to pick a move", "error", err)
		return move, err
	}

	that.logger.Info("Playing", "move", move.String())

	return move, nil
}

func (that *withLogging) ReportMove(move entity.Move) {
	that.logger.Debug("Move applied", "move", move.String(), "seq", move.Seq)
	that.Bot.ReportMove(move)
}

func (that *withLogging) ReportStatus(code protocol.StatusCode, message string) {
	that.logger.Info("Status", "code", code.String(), "message", message)
	that.Bot.ReportStatus(code, message)
}

// DummyBot plays the first legal placement it finds and skips when nothing fits.
type DummyBot struct {
	player int
	board  *blokus.Board
}

func NewDummyBot(player int, board *blokus.Board) *DummyBot {
	return &DummyBot{
		player: player,
		board:  board,
	}
}

// GetMove scans remaining pieces, rotations, mirroring, then columns and rows.
func (that *DummyBot) GetMove(ctx context.Context) (entity.Move, error) {
	setup := that.board.Setup()

	for _, pieceID := range that.board.Remaining(that.player) {
		for rotation := 0; rotation < 4; rotation++ {
			for _, mirror := range []bool{false, true} {
				if err := ctx.Err(); err != nil {
					return entity.Move{}, fmt.Errorf("move search interrupted: %w", err)
				}

				for x := 0; x < setup.Cols; x++ {
					for y := 0; y < setup.Rows; y++ {
						move := entity.NewMove(that.player, pieceID, rotation, mirror, geometry.Point{X: x, Y: y})
						if ok, _ := that.board.IsValidMove(move, true); ok {
							return move, nil
						}
					}
				}
			}
		}
	}

	return entity.NewSkip(that.player, entity.SkipVoluntary), nil
}

func (that *DummyBot) ReportMove(entity.Move) {}

func (that *DummyBot) ReportStatus(protocol.StatusCode, string) {}

// DefaultBot is the dummy bot with board tracking and logging.
func DefaultBot(logger *slog.Logger) BotFactory {
	return func(player int, board *blokus.Board) Bot {
		log := logger.With("player", player)
		return PlayOnReport(log, board, WithLogging(log, NewDummyBot(player, board)))
	}
}
