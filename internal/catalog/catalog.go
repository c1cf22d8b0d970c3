package catalog

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
	"github.com/rocketscienceinc/blokus-backend/internal/geometry"
)

const (
	DefaultLibrary = "original"

	fileSuffix = ".txt"
)

//go:embed pieces/*.txt
var embedded embed.FS

// PieceSet is an immutable, named mapping of piece id to piece.
type PieceSet struct {
	name     string
	restrict []int
	pieces   map[int]*geometry.Piece
	ids      []int
}

// Load reads a built-in piece set, optionally restricted to the given ids.
func Load(name string, restrict []int) (*PieceSet, error) {
	sub, err := fs.Sub(embedded, "pieces")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded pieces: %w", err)
	}

	return LoadFS(sub, name, restrict)
}

// LoadFS reads <name>.txt from fsys.
func LoadFS(fsys fs.FS, name string, restrict []int) (*PieceSet, error) {
	file, err := fsys.Open(name + fileSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownLibrary, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open library %s: %w", name, err)
	}
	defer file.Close()

	set, err := Parse(name, file)
	if err != nil {
		return nil, err
	}

	return set.Restricted(restrict)
}

// Parse reads records of a header line "id=<int>,size=<int>[,...]" followed by size grid lines.
// Blank lines and lines starting with '#' are allowed between records.
func Parse(name string, r io.Reader) (*PieceSet, error) {
	set := &PieceSet{name: name, pieces: make(map[int]*geometry.Piece)}

	scanner := bufio.NewScanner(r)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		id, size, err := parseHeader(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", apperror.ErrMalformedCatalog, line, err)
		}

		rows := make([]string, 0, size)
		for len(rows) < size && scanner.Scan() {
			line++
			rows = append(rows, scanner.Text())
		}

		if len(rows) < size {
			return nil, fmt.Errorf("%w: piece %d expects %d rows, got %d", apperror.ErrMalformedCatalog, id, size, len(rows))
		}

		if _, ok := set.pieces[id]; ok {
			return nil, fmt.Errorf("%w: duplicate piece id %d", apperror.ErrMalformedCatalog, id)
		}

		piece, err := geometry.ParsePiece(id, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse library %s: %w", name, err)
		}

		set.pieces[id] = piece
		set.ids = append(set.ids, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read library %s: %w", name, err)
	}

	if len(set.pieces) == 0 {
		return nil, fmt.Errorf("%w: library %s has no pieces", apperror.ErrMalformedCatalog, name)
	}

	slices.Sort(set.ids)

	return set, nil
}

func parseHeader(text string) (int, int, error) {
	var (
		id, size     = -1, -1
		hasID, hasSz bool
	)

	for _, field := range strings.Split(text, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}

		var err error
		switch key {
		case "id":
			id, err = strconv.Atoi(value)
			hasID = true
		case "size":
			size, err = strconv.Atoi(value)
			hasSz = true
		}

		if err != nil {
			return 0, 0, fmt.Errorf("bad %s %q: %w", key, value, err)
		}
	}

	if !hasID || !hasSz {
		return 0, 0, fmt.Errorf("header %q needs id and size", text)
	}

	if id < 0 || size <= 0 {
		return 0, 0, fmt.Errorf("header %q has out of range values", text)
	}

	return id, size, nil
}

// Restricted returns a copy holding only the given ids. An empty list keeps every piece.
func (that *PieceSet) Restricted(ids []int) (*PieceSet, error) {
	if len(ids) == 0 {
		return that, nil
	}

	set := &PieceSet{
		name:     that.name,
		restrict: slices.Clone(ids),
		pieces:   make(map[int]*geometry.Piece, len(ids)),
	}

	for _, id := range ids {
		piece, ok := that.pieces[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d not in library %s", apperror.ErrUnknownPiece, id, that.name)
		}
		if _, dup := set.pieces[id]; dup {
			continue
		}
		set.pieces[id] = piece
		set.ids = append(set.ids, id)
	}

	slices.Sort(set.ids)

	return set, nil
}

func (that *PieceSet) Name() string {
	return that.name
}

// Restrict is the id restriction the set was loaded with, nil if unrestricted.
func (that *PieceSet) Restrict() []int {
	return slices.Clone(that.restrict)
}

func (that *PieceSet) Piece(id int) (*geometry.Piece, bool) {
	piece, ok := that.pieces[id]
	return piece, ok
}

// IDs returns the piece ids in ascending order.
func (that *PieceSet) IDs() []int {
	return slices.Clone(that.ids)
}

func (that *PieceSet) Len() int {
	return len(that.ids)
}
