package gamelog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/blokus-backend/internal/entity"
)

const (
	Version = "0.1"

	versionKey  = "version"
	playersKey  = "num_players"
	rowsKey     = "rows"
	colsKey     = "cols"
	libraryKey  = "library"
	restrictKey = "restrict"
	restrictSep = ";"
	mirrorShift = 4
)

// Sink receives validated moves in play order.
type Sink interface {
	Append(ctx context.Context, move entity.Move) error
}

// FileLog is the line-oriented append-only game log.
type FileLog struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewFileLog writes the headers immediately.
func NewFileLog(w io.Writer, setup entity.BoardSetup) (*FileLog, error) {
	header := fmt.Sprintf("#Version=%s\n#%s=%d,%s=%d,%s=%d,%s=%s",
		Version,
		playersKey, setup.PlayerCount,
		rowsKey, setup.Rows,
		colsKey, setup.Cols,
		libraryKey, setup.Library,
	)

	if len(setup.Restrict) > 0 {
		ids := make([]string, len(setup.Restrict))
		for i, id := range setup.Restrict {
			ids[i] = strconv.Itoa(id)
		}
		header += fmt.Sprintf(",%s=%s", restrictKey, strings.Join(ids, restrictSep))
	}
	header += "\n"

	if _, err := io.WriteString(w, header); err != nil {
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	log := &FileLog{w: csv.NewWriter(w)}
	if closer, ok := w.(io.Closer); ok {
		log.closer = closer
	}

	return log, nil
}

// Create opens <dir>/<gameID>.log.
func Create(dir, gameID string, setup entity.BoardSetup) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	path := filepath.Join(dir, gameID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create game log: %w", err)
	}

	log, err := NewFileLog(file, setup)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return log, nil
}

// Append writes player_id,piece_id,rotation,x,y. Mirrored placements carry rotation+4.
func (that *FileLog) Append(_ context.Context, move entity.Move) error {
	rotation := move.Rotation
	if move.Mirror {
		rotation += mirrorShift
	}

	record := []string{
		strconv.Itoa(move.PlayerID),
		strconv.Itoa(move.PieceID),
		strconv.Itoa(rotation),
		strconv.Itoa(move.Position.X),
		strconv.Itoa(move.Position.Y),
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.w.Write(record); err != nil {
		return fmt.Errorf("failed to write move: %w", err)
	}

	that.w.Flush()
	if err := that.w.Error(); err != nil {
		return fmt.Errorf("failed to flush move: %w", err)
	}

	return nil
}

func (that *FileLog) Close() error {
	if that.closer == nil {
		return nil
	}
	return that.closer.Close()
}

// Multi fans every move out to all sinks and joins their errors.
type Multi []Sink

func (that Multi) Append(ctx context.Context, move entity.Move) error {
	var errs []error
	for _, sink := range that {
		if err := sink.Append(ctx, move); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type moveStore interface {
	Append(ctx context.Context, gameID string, move entity.Move) error
}

// StoreSink appends moves of one game to a move repository.
type StoreSink struct {
	store  moveStore
	gameID string
}

func NewStoreSink(store moveStore, gameID string) *StoreSink {
	return &StoreSink{store: store, gameID: gameID}
}

func (that *StoreSink) Append(ctx context.Context, move entity.Move) error {
	if err := that.store.Append(ctx, that.gameID, move); err != nil {
		return fmt.Errorf("failed to store move of game %s: %w", that.gameID, err)
	}
	return nil
}
