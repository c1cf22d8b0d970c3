package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/blokus"
	"github.com/rocketscienceinc/blokus-backend/internal/catalog"
	"github.com/rocketscienceinc/blokus-backend/internal/client"
	"github.com/rocketscienceinc/blokus-backend/internal/config"
	"github.com/rocketscienceinc/blokus-backend/internal/controller"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/gamelog"
	"github.com/rocketscienceinc/blokus-backend/internal/repository"
	"github.com/rocketscienceinc/blokus-backend/internal/repository/storage"
	"github.com/rocketscienceinc/blokus-backend/transport/rest"
	"github.com/rocketscienceinc/blokus-backend/transport/tcp"
)

// RunApp - runs the game server until a signal arrives or the configured games are over.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(log)
	defer cancel()

	pieces, err := LoadPieces(conf.Game)
	if err != nil {
		return fmt.Errorf("could not load pieces: %w", err)
	}

	setup := entity.BoardSetup{
		Library:     conf.Game.Library,
		Restrict:    conf.Game.Restrict,
		Rows:        conf.Game.Rows,
		Cols:        conf.Game.Cols,
		PlayerCount: conf.Game.Players,
	}
	if err = setup.Validate(); err != nil {
		return err
	}

	host := &gameHost{
		logger: logger,
		conf:   conf,
		setup:  setup,
		pieces: pieces,
	}

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		host.moveRepo = repository.NewMoveRepository(redisStorage.Connection)
		host.gameRepo = repository.NewGameRepository(redisStorage.Connection)
	}

	acceptor, err := tcp.Listen(logger, ":"+conf.Port)
	if err != nil {
		return err
	}
	defer acceptor.Close()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, host); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run game server
	gameErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game server", "port", conf.Port, "players", setup.PlayerCount, "library", setup.Library)
		gameErrCh <- host.serve(ctx, acceptor)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-gameErrCh:
		if err != nil {
			return fmt.Errorf("game server error: %w", err)
		}
		log.Info("All games played, shutting down")
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// RunClient joins the configured server and plays one game with the dummy bot.
func RunClient(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "client")

	ctx, cancel := signalContext(log)
	defer cancel()

	conn, err := tcp.Dial(ctx, conf.Client.ServerAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	loader := func(name string, restrict []int) (*catalog.PieceSet, error) {
		game := conf.Game
		game.Library, game.Restrict = name, restrict
		return LoadPieces(game)
	}

	log.Info("Joining game", "server", conf.Client.ServerAddr)

	return client.Play(ctx, logger, conn, loader, client.DefaultBot(logger))
}

// LoadPieces reads the library from pieces-dir when set, otherwise from the built-in sets.
func LoadPieces(game config.Game) (*catalog.PieceSet, error) {
	if game.PiecesDir != "" {
		return catalog.LoadFS(os.DirFS(game.PiecesDir), game.Library, game.Restrict)
	}
	return catalog.Load(game.Library, game.Restrict)
}

func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

// gameHost runs consecutive games on one listener and answers status lookups.
type gameHost struct {
	logger *slog.Logger
	conf   *config.Config
	setup  entity.BoardSetup
	pieces *catalog.PieceSet

	moveRepo repository.MoveRepository
	gameRepo repository.GameRepository

	current atomic.Pointer[controller.Game]
}

func (that *gameHost) serve(ctx context.Context, acceptor controller.Acceptor) error {
	for played := 0; that.conf.Game.Games == 0 || played < that.conf.Game.Games; played++ {
		err := that.play(ctx, acceptor)
		if ctx.Err() != nil {
			return nil
		}

		switch {
		case errors.Is(err, apperror.ErrTurnDiverged), errors.Is(err, apperror.ErrGameSetup):
			return err
		case err != nil:
			that.logger.Error("Game failed", "error", err)
		}
	}

	return nil
}

func (that *gameHost) play(ctx context.Context, acceptor controller.Acceptor) error {
	log := that.logger.With("method", "play")

	id := uuid.NewString()

	board, err := blokus.NewBoard(that.setup, that.pieces)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrGameSetup, err)
	}

	fileLog, err := gamelog.Create(that.conf.LogDir, id, that.setup)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrGameSetup, err)
	}
	defer func() {
		if err := fileLog.Close(); err != nil {
			log.Error("could not close game log", "game", id, "error", err)
		}
	}()

	sink := gamelog.Multi{fileLog}
	if that.moveRepo != nil {
		sink = append(sink, gamelog.NewStoreSink(that.moveRepo, id))
	}

	game := controller.NewGame(that.logger, id, board, sink, controller.Options{
		TurnTimeout:     that.conf.Game.TurnTimeout,
		MaxIllegalMoves: that.conf.Game.MaxIllegalMoves,
	})
	that.current.Store(game)

	log.Info("Waiting for players", "game", id)
	that.save(ctx, game)

	err = game.Run(ctx, acceptor)

	that.save(context.WithoutCancel(ctx), game)

	return err
}

func (that *gameHost) save(ctx context.Context, game *controller.Game) {
	if that.gameRepo == nil {
		return
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game.Status()); err != nil {
		that.logger.Error("could not save game state", "game", game.ID(), "error", err)
	}
}

// Game implements rest.GameSource.
func (that *gameHost) Game(ctx context.Context, id string) (entity.GameState, error) {
	current := that.current.Load()
	if current != nil && (id == "" || id == current.ID()) {
		return current.Status(), nil
	}

	if id == "" || that.gameRepo == nil {
		return entity.GameState{}, repository.ErrGameNotFound
	}

	return that.gameRepo.GetByID(ctx, id)
}

// Moves implements rest.GameSource from the move store; the empty id means the current game.
func (that *gameHost) Moves(ctx context.Context, id string) ([]entity.Move, error) {
	if current := that.current.Load(); current != nil && id == "" {
		id = current.ID()
	}

	if id == "" || that.moveRepo == nil {
		return nil, repository.ErrGameNotFound
	}

	return that.moveRepo.List(ctx, id)
}
