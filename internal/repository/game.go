package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game entity.GameState) error
	GetByID(ctx context.Context, id string) (entity.GameState, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game entity.GameState) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (entity.GameState, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return entity.GameState{}, ErrGameNotFound
	}

	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	var game entity.GameState
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return entity.GameState{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return game, nil
}
