package geometry

import "fmt"

// Point is an integer coordinate pair. Points are compared by value.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt returns the point (x, y).
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

func (pt Point) String() string {
	return fmt.Sprintf("(%d, %d)", pt.X, pt.Y)
}

// Clone returns a copy of pts that shares no memory with it.
// A nil input yields an empty, non-nil slice.
func Clone(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
