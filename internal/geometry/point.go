package geometry

import "fmt"

// Point is an integer board or piece coordinate. X grows to the right, Y grows downwards.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	EdgeOffsets   = [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	CornerOffsets = [4]Point{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
)

func (that Point) Add(other Point) Point {
	return Point{X: that.X + other.X, Y: that.Y + other.Y}
}

func (that Point) Sub(other Point) Point {
	return Point{X: that.X - other.X, Y: that.Y - other.Y}
}

// rotate turns the point 90 degrees counter-clockwise about the origin.
func (that Point) rotate() Point {
	return Point{X: -that.Y, Y: that.X}
}

func (that Point) mirror() Point {
	return Point{X: -that.X, Y: that.Y}
}

func (that Point) String() string {
	return fmt.Sprintf("(%d,%d)", that.X, that.Y)
}
