package geometry

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rocketscienceinc/blokus-backend/internal/apperror"
)

const (
	RootMark  = 'O'
	EmptyMark = '.'

	orientations = 8
)

// View is a piece under one orientation. Coords, Edges and Corners never share a point.
type View struct {
	Coords  []Point
	Edges   []Point
	Corners []Point
}

// Piece is an immutable shape. The first coordinate is the root at (0,0), the rest are relative to it.
type Piece struct {
	id     int
	coords []Point
	views  [orientations]View
}

// NewPiece builds a piece from coordinates; coords[0] becomes the root.
func NewPiece(id int, coords []Point) (*Piece, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: negative piece id %d", apperror.ErrMalformedPieceDefinition, id)
	}

	if len(coords) == 0 {
		return nil, fmt.Errorf("%w: piece %d has no cells", apperror.ErrMalformedPieceDefinition, id)
	}

	root := coords[0]
	seen := make(map[Point]struct{}, len(coords))
	normalized := make([]Point, 0, len(coords))

	for _, coord := range coords {
		rel := coord.Sub(root)
		if _, ok := seen[rel]; ok {
			return nil, fmt.Errorf("%w: piece %d repeats cell %s", apperror.ErrMalformedPieceDefinition, id, coord)
		}
		seen[rel] = struct{}{}
		normalized = append(normalized, rel)
	}

	piece := &Piece{id: id, coords: normalized}
	for rotation := 0; rotation < 4; rotation++ {
		piece.views[viewIndex(rotation, false)] = buildView(normalized, rotation, false)
		piece.views[viewIndex(rotation, true)] = buildView(normalized, rotation, true)
	}

	return piece, nil
}

// ParsePiece reads an ASCII grid: '.' is empty, 'O' is the single root, any
// other non-whitespace character is an occupied cell.
func ParsePiece(id int, rows []string) (*Piece, error) {
	var (
		root   Point
		roots  int
		others []Point
	)

	for y, row := range rows {
		x := 0
		for _, char := range row {
			switch {
			case unicode.IsSpace(char):
				continue
			case char == EmptyMark:
			case char == RootMark:
				root = Point{X: x, Y: y}
				roots++
			default:
				others = append(others, Point{X: x, Y: y})
			}
			x++
		}
	}

	if roots != 1 {
		return nil, fmt.Errorf("%w: piece %d has %d root markers", apperror.ErrMalformedPieceDefinition, id, roots)
	}

	return NewPiece(id, append([]Point{root}, others...))
}

func (that *Piece) ID() int {
	return that.id
}

// Size is the number of cells the piece covers.
func (that *Piece) Size() int {
	return len(that.coords)
}

// Coords returns the untransformed root-relative coordinates.
func (that *Piece) Coords() []Point {
	return clonePoints(that.coords)
}

// Transform returns the coordinates rotated counter-clockwise rotation times, then mirrored on x.
func (that *Piece) Transform(rotation int, mirror bool) []Point {
	return clonePoints(that.views[viewIndex(rotation, mirror)].Coords)
}

// View returns the memoized orientation. Callers must not modify the slices.
func (that *Piece) View(rotation int, mirror bool) View {
	return that.views[viewIndex(rotation, mirror)]
}

// String renders the piece in the catalog text format.
func (that *Piece) String() string {
	minX, minY := that.coords[0].X, that.coords[0].Y
	maxX, maxY := minX, minY

	for _, c := range that.coords {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}

	width, height := maxX-minX+1, maxY-minY+1
	grid := make([][]byte, height)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(string(EmptyMark), width))
	}

	for i, c := range that.coords {
		mark := byte('X')
		if i == 0 {
			mark = RootMark
		}
		grid[c.Y-minY][c.X-minX] = mark
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "id=%d,size=%d\n", that.id, height)
	for _, line := range grid {
		sb.Write(line)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func viewIndex(rotation int, mirror bool) int {
	index := ((rotation % 4) + 4) % 4
	if mirror {
		index += 4
	}
	return index
}

func buildView(coords []Point, rotation int, mirror bool) View {
	transformed := make([]Point, len(coords))
	occupied := make(map[Point]struct{}, len(coords))

	for i, coord := range coords {
		for r := 0; r < rotation; r++ {
			coord = coord.rotate()
		}
		if mirror {
			coord = coord.mirror()
		}
		transformed[i] = coord
		occupied[coord] = struct{}{}
	}

	edges := neighbours(transformed, EdgeOffsets, occupied)
	for _, edge := range edges {
		occupied[edge] = struct{}{}
	}
	corners := neighbours(transformed, CornerOffsets, occupied)

	return View{Coords: transformed, Edges: edges, Corners: corners}
}

// neighbours collects offset neighbours not present in exclude, in a stable order.
func neighbours(coords []Point, offsets [4]Point, exclude map[Point]struct{}) []Point {
	var result []Point
	seen := make(map[Point]struct{})

	for _, coord := range coords {
		for _, offset := range offsets {
			n := coord.Add(offset)
			if _, ok := exclude[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}

func clonePoints(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
