package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/repository"
)

// GameSource looks a game up by id; the empty id means the game in progress.
type GameSource interface {
	Game(ctx context.Context, id string) (entity.GameState, error)
	Moves(ctx context.Context, id string) ([]entity.Move, error)
}

type GameHandler interface {
	GameHandler(w http.ResponseWriter, r *http.Request)
	MovesHandler(w http.ResponseWriter, r *http.Request)
}

type gameHandler struct {
	logger *slog.Logger
	games  GameSource
}

func NewGameHandler(logger *slog.Logger, games GameSource) GameHandler {
	return &gameHandler{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

func (that *gameHandler) GameHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GameHandler")

	id := r.URL.Query().Get("id")

	game, err := that.games.Game(r.Context(), id)
	if err != nil {
		that.fail(log, w, id, err)
		return
	}

	writeJSON(log, w, game)
}

// MovesHandler returns the stored moves of a game in play order.
func (that *gameHandler) MovesHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "MovesHandler")

	id := r.URL.Query().Get("id")

	moves, err := that.games.Moves(r.Context(), id)
	if err != nil {
		that.fail(log, w, id, err)
		return
	}

	writeJSON(log, w, moves)
}

func (that *gameHandler) fail(log *slog.Logger, w http.ResponseWriter, id string, err error) {
	if errors.Is(err, repository.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	log.Error("failed to get game", "id", id, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response", "error", err)
	}
}
