package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
)

// MoveRepository keeps the ordered move list of every game.
type MoveRepository interface {
	Append(ctx context.Context, gameID string, move entity.Move) error
	List(ctx context.Context, gameID string) ([]entity.Move, error)
}

type dbMove struct {
	client *redis.Client
}

func NewMoveRepository(client *redis.Client) MoveRepository {
	return &dbMove{
		client: client,
	}
}

func movesKey(gameID string) string {
	return "game:" + gameID + ":moves"
}

func (that *dbMove) Append(ctx context.Context, gameID string, move entity.Move) error {
	moveJSON, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("could not marshal move: %w", err)
	}

	if err = that.client.RPush(ctx, movesKey(gameID), moveJSON).Err(); err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

// List returns the moves in the order they were appended; an unknown game has none.
func (that *dbMove) List(ctx context.Context, gameID string) ([]entity.Move, error) {
	response, err := that.client.LRange(ctx, movesKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list moves of game %s: %w", gameID, err)
	}

	moves := make([]entity.Move, 0, len(response))
	for _, raw := range response {
		var move entity.Move
		if err = json.Unmarshal([]byte(raw), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}
		moves = append(moves, move)
	}

	return moves, nil
}
