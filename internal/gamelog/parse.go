package gamelog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/blokus"
	"github.com/rocketscienceinc/blokus-backend/internal/entity"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

const moveFields = 5

// Record is a parsed game log.
type Record struct {
	Setup entity.BoardSetup
	Moves []entity.Move
}

// Parse reads a log written by FileLog.
func Parse(r io.Reader) (*Record, error) {
	reader := bufio.NewReader(r)

	version, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	if version[versionKey] != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", apperror.ErrMalformedLog, version[versionKey])
	}

	params, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	setup, err := setupFrom(params)
	if err != nil {
		return nil, err
	}

	records := csv.NewReader(reader)
	records.FieldsPerRecord = moveFields
	records.ReuseRecord = true

	record := &Record{Setup: setup}
	for {
		fields, err := records.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedLog, err)
		}

		move, err := moveFrom(fields)
		if err != nil {
			return nil, err
		}

		record.Moves = append(record.Moves, move)
	}

	return record, nil
}

// Replay plays the recorded moves onto an empty board built for the record's setup.
func (that *Record) Replay(board *blokus.Board) error {
	for i, move := range that.Moves {
		if _, _, err := board.PlayMove(move); err != nil {
			return fmt.Errorf("move %d (%s): %w", i+1, move, err)
		}
	}
	return nil
}

func readHeader(reader *bufio.Reader) (map[string]string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read log header: %w", err)
	}

	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "#") {
		return nil, fmt.Errorf("%w: missing header line", apperror.ErrMalformedLog)
	}

	params := make(map[string]string)
	for _, pair := range strings.Split(line[1:], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: bad header field %q", apperror.ErrMalformedLog, pair)
		}
		params[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	return params, nil
}

func setupFrom(params map[string]string) (entity.BoardSetup, error) {
	setup := entity.BoardSetup{Library: params[libraryKey]}

	for key, target := range map[string]*int{
		playersKey: &setup.PlayerCount,
		rowsKey:    &setup.Rows,
		colsKey:    &setup.Cols,
	} {
		value, err := strconv.Atoi(params[key])
		if err != nil {
			return entity.BoardSetup{}, fmt.Errorf("%w: header %s: %w", apperror.ErrMalformedLog, key, err)
		}
		*target = value
	}

	if restrict := params[restrictKey]; restrict != "" {
		for _, field := range strings.Split(restrict, restrictSep) {
			id, err := strconv.Atoi(field)
			if err != nil {
				return entity.BoardSetup{}, fmt.Errorf("%w: header %s: %w", apperror.ErrMalformedLog, restrictKey, err)
			}
			setup.Restrict = append(setup.Restrict, id)
		}
	}

	if err := setup.Validate(); err != nil {
		return entity.BoardSetup{}, fmt.Errorf("%w: %w", apperror.ErrMalformedLog, err)
	}

	return setup, nil
}

func moveFrom(fields []string) (entity.Move, error) {
	values := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return entity.Move{}, fmt.Errorf("%w: field %d: %w", apperror.ErrMalformedLog, i, err)
		}
		values[i] = value
	}

	rotation, mirror := values[2], false
	if rotation >= mirrorShift {
		rotation, mirror = rotation-mirrorShift, true
	}

	position := geometry.Point{X: values[3], Y: values[4]}

	return entity.NewMove(values[0], values[1], rotation, mirror, position), nil
}
