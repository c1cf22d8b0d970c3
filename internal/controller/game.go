package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/blokus"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/gamelog"
	"github.com/rocketscienceinc/blokus-backend/internal/protocol"
)

const (
	DefaultTurnTimeout     = 30 * time.Second
	DefaultMaxIllegalMoves = 3
)

// Acceptor hands out player connections, one per call.
type Acceptor interface {
	Accept(ctx context.Context) (io.ReadWriteCloser, error)
}

type Options struct {
	// TurnTimeout of zero waits for a move forever.
	TurnTimeout time.Duration
	// MaxIllegalMoves of zero never drops a player for illegal moves.
	MaxIllegalMoves int
}

func DefaultOptions() Options {
	return Options{
		TurnTimeout:     DefaultTurnTimeout,
		MaxIllegalMoves: DefaultMaxIllegalMoves,
	}
}

// Game hosts one board for a fixed set of players. Every player has a handler
// goroutine that waits on its own token; only the token holder may move.
type Game struct {
	logger *slog.Logger
	id     string
	opts   Options
	sink   gamelog.Sink

	// mu guards board, sessions, status and err.
	mu       sync.Mutex
	board    *blokus.Board
	sessions []*session
	status   string
	err      error

	tokens []chan struct{}
	done   chan struct{}
	over   sync.Once
}

func NewGame(logger *slog.Logger, id string, board *blokus.Board, sink gamelog.Sink, opts Options) *Game {
	tokens := make([]chan struct{}, board.PlayerCount())
	for i := range tokens {
		tokens[i] = make(chan struct{}, 1)
	}

	return &Game{
		logger: logger.With("component", "controller", "game", id),
		id:     id,
		opts:   opts,
		sink:   sink,
		board:  board,
		status: entity.StatusWaiting,
		tokens: tokens,
		done:   make(chan struct{}),
	}
}

func (that *Game) ID() string {
	return that.id
}

// Status is safe to call from any goroutine.
func (that *Game) Status() entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := that.board.PlayerCount()
	state := entity.GameState{
		ID:      that.id,
		Status:  that.status,
		Setup:   that.board.Setup(),
		Joined:  len(that.sessions),
		Turn:    that.board.Turn(),
		Scores:  make([]int, count),
		Skipped: make([]bool, count),
	}

	for player := 0; player < count; player++ {
		state.Scores[player] = that.board.Score(player)
		state.Skipped[player] = that.board.IsSkipped(player)
	}

	return state
}

// Run admits every player, plays the game to its end and closes all connections.
// It returns an error when the game was aborted.
func (that *Game) Run(ctx context.Context, acceptor Acceptor) error {
	log := that.logger.With("method", "Run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer that.closeAll()

	if err := that.admit(ctx, acceptor); err != nil {
		return err
	}

	that.mu.Lock()
	that.status = entity.StatusPlaying
	first := that.board.Turn()
	sessions := that.sessions
	that.mu.Unlock()

	log.Info("All players joined, starting game", "first", first)

	var wg sync.WaitGroup
	for _, sess := range sessions {
		go sess.pump(that.done)

		wg.Add(1)
		go func(sess *session) {
			defer wg.Done()
			that.handle(ctx, sess)
		}(sess)
	}

	that.tokens[first] <- struct{}{}

	wg.Wait()

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.err != nil {
		log.Error("Game aborted", "error", that.err)
		return that.err
	}

	log.Info("Game over", "scores", that.scoresLocked())

	return nil
}

// admit accepts connections until every seat is taken. A connection that fails
// the handshake is dropped and its seat offered to the next one.
func (that *Game) admit(ctx context.Context, acceptor Acceptor) error {
	log := that.logger.With("method", "admit")

	setup := that.board.Setup()

	for player := 0; player < setup.PlayerCount; {
		rwc, err := acceptor.Accept(ctx)
		if err != nil {
			return fmt.Errorf("failed to accept player %d: %w", player, err)
		}

		sess := newSession(that.logger, player, rwc)

		stop := context.AfterFunc(ctx, sess.close)
		err = sess.handshake(setup)
		stop()

		if err != nil {
			sess.close()
			if ctx.Err() != nil {
				return fmt.Errorf("failed to admit player %d: %w", player, ctx.Err())
			}
			log.Warn("Handshake failed", "player", player, "error", err)
			continue
		}

		that.mu.Lock()
		that.sessions = append(that.sessions, sess)
		that.mu.Unlock()

		log.Info("Player joined", "player", player)
		player++
	}

	return nil
}

// handle is the per-player loop: wait for the token, move, pass the token on.
func (that *Game) handle(ctx context.Context, sess *session) {
	log := sess.logger.With("method", "handle")

	for {
		select {
		case <-ctx.Done():
			that.abort(fmt.Errorf("game interrupted: %w", ctx.Err()))
		case <-that.tokens[sess.player]:
		}

		if that.isOver() {
			that.farewell(sess)
			return
		}

		move, err := that.requestMove(ctx, sess)
		if err != nil {
			that.abort(err)
			continue
		}

		next, err := that.apply(ctx, sess, move)
		if err != nil {
			log.Error("Failed to apply move", "move", move, "error", err)
			that.abort(err)
			continue
		}

		if next == blokus.TurnFinished {
			that.finish()
			continue
		}

		select {
		case that.tokens[next] <- struct{}{}:
		default:
			that.abort(fmt.Errorf("%w: token of player %d already released", apperror.ErrTurnDiverged, next))
		}
	}
}

// requestMove sends TURN and waits for the client's move. A closed connection
// yields a voluntary skip; an expired timer yields a timeout skip.
//
// Every TURN is answered by exactly one MOVE, so the first MOVEs arriving after
// a timeout belong to the expired turns and are dropped.
func (that *Game) requestMove(ctx context.Context, sess *session) (entity.Move, error) {
	log := sess.logger.With("method", "requestMove")

	skip := entity.NewSkip(sess.player, entity.SkipVoluntary)
	if sess.isClosed() {
		return skip, nil
	}

	// drop anything sent out of turn
	for drained := false; !drained; {
		select {
		case in := <-sess.inbox:
			if in.err != nil {
				log.Info("Player disconnected", "error", in.err)
				sess.close()
				return skip, nil
			}
			if !that.settleLate(sess, in.msg) {
				log.Debug("Ignoring message sent out of turn", "type", in.msg.Type)
			}
		default:
			drained = true
		}
	}

	sess.send(func(conn *protocol.Conn) error {
		return conn.SendControl(protocol.ControlTurn)
	})

	if sess.isClosed() {
		return skip, nil
	}

	var timeout <-chan time.Time
	if that.opts.TurnTimeout > 0 {
		timer := time.NewTimer(that.opts.TurnTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return entity.Move{}, fmt.Errorf("game interrupted: %w", ctx.Err())

		case <-timeout:
			log.Info("Player timed out")
			sess.owed++
			return entity.NewSkip(sess.player, entity.SkipTimeout), nil

		case in := <-sess.inbox:
			if in.err != nil {
				log.Info("Player disconnected", "error", in.err)
				sess.close()
				return skip, nil
			}

			if that.settleLate(sess, in.msg) {
				continue
			}

			move, err := in.msg.Move()
			if err != nil {
				log.Warn("Protocol error, dropping player", "error", err)
				sess.send(func(conn *protocol.Conn) error {
					return conn.SendStatus(protocol.StatusError, err.Error())
				})
				sess.close()
				return skip, nil
			}

			return move, nil
		}
	}
}

// settleLate drops msg when it is the MOVE owed for a timed-out turn.
func (that *Game) settleLate(sess *session, msg *protocol.Message) bool {
	if sess.owed == 0 || msg.Type != protocol.TypeMove {
		return false
	}

	sess.owed--
	sess.logger.Info("Dropping move sent after its turn timed out", "owed", sess.owed)

	return true
}

// apply validates and plays the move under the board lock, then logs and broadcasts it.
func (that *Game) apply(ctx context.Context, sess *session, move entity.Move) (int, error) {
	log := sess.logger.With("method", "apply")

	that.mu.Lock()

	if turn := that.board.Turn(); turn != sess.player {
		that.mu.Unlock()
		return 0, fmt.Errorf("%w: token held by %d, board turn %d", apperror.ErrTurnDiverged, sess.player, turn)
	}

	var rejected error
	if move.PlayerID != sess.player {
		rejected = fmt.Errorf("%w: %w: move names player %d", apperror.ErrInvalidMove, apperror.ErrNotYourTurn, move.PlayerID)
	} else {
		rejected = that.board.ValidateMove(move, false)
	}

	if rejected != nil {
		move = entity.NewSkip(sess.player, entity.SkipIllegal)
	}

	recorded, next, err := that.board.PlayMove(move)
	that.mu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("failed to play move: %w", err)
	}

	log.Debug("Move played", "move", recorded, "seq", recorded.Seq, "next", next)

	switch {
	case rejected != nil:
		that.rejectIllegal(sess, rejected)
	case recorded.PieceID == entity.SkipTimeout:
		sess.send(func(conn *protocol.Conn) error {
			return conn.SendStatus(protocol.StatusSkipped, "turn timed out")
		})
	}

	if that.sink != nil {
		if err = that.sink.Append(ctx, recorded); err != nil {
			return 0, fmt.Errorf("failed to log move: %w", err)
		}
	}

	that.broadcast(recorded)

	return next, nil
}

func (that *Game) rejectIllegal(sess *session, reason error) {
	sess.illegal++
	sess.logger.Info("Illegal move", "count", sess.illegal, "reason", reason)

	sess.send(func(conn *protocol.Conn) error {
		return conn.SendStatus(protocol.StatusSkipped, reason.Error())
	})

	if that.opts.MaxIllegalMoves > 0 && sess.illegal >= that.opts.MaxIllegalMoves {
		sess.send(func(conn *protocol.Conn) error {
			return conn.SendStatus(protocol.StatusError, "too many illegal moves")
		})
		sess.close()
	}
}

func (that *Game) broadcast(move entity.Move) {
	that.mu.Lock()
	sessions := that.sessions
	that.mu.Unlock()

	for _, sess := range sessions {
		sess.send(func(conn *protocol.Conn) error {
			return conn.SendMove(move)
		})
	}
}

// finish ends the game normally and wakes every handler.
func (that *Game) finish() {
	that.end(nil)
}

// abort ends the game with err and wakes every handler.
func (that *Game) abort(err error) {
	that.end(err)
}

func (that *Game) end(err error) {
	that.over.Do(func() {
		that.mu.Lock()
		that.status = entity.StatusFinished
		that.err = err
		that.mu.Unlock()

		close(that.done)

		for _, token := range that.tokens {
			select {
			case token <- struct{}{}:
			default:
			}
		}
	})
}

func (that *Game) isOver() bool {
	select {
	case <-that.done:
		return true
	default:
		return false
	}
}

// farewell tells the client how the game ended and sends END.
func (that *Game) farewell(sess *session) {
	that.mu.Lock()
	err := that.err
	scores := that.scoresLocked()
	that.mu.Unlock()

	sess.send(func(conn *protocol.Conn) error {
		if err != nil {
			return conn.SendStatus(protocol.StatusError, err.Error())
		}
		return conn.SendStatus(protocol.StatusGameOver, "scores="+scores)
	})

	sess.send(func(conn *protocol.Conn) error {
		return conn.SendControl(protocol.ControlEnd)
	})
}

func (that *Game) closeAll() {
	that.end(errors.New("game closed"))

	that.mu.Lock()
	sessions := that.sessions
	that.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

func (that *Game) scoresLocked() string {
	scores := make([]string, that.board.PlayerCount())
	for player := range scores {
		scores[player] = strconv.Itoa(that.board.Score(player))
	}
	return strings.Join(scores, ",")
}
