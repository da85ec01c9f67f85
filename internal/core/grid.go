package core

// Square describes the geometry of a Side×Side grid stored in row-major
// order. Row 0 is the lowest row. There is no wraparound: edge cells have
// fewer than four neighbours.
type Square struct {
	Side int
}

// NewSquare returns the geometry for a grid with the given side length.
func NewSquare(side int) Square {
	if side < 0 {
		side = 0
	}
	return Square{Side: side}
}

// Len returns the number of cells.
func (s Square) Len() int { return s.Side * s.Side }

// Index returns the linear slice index for column x and row y.
func (s Square) Index(x, y int) int { return y*s.Side + x }

// Coords returns the column and row of index i.
func (s Square) Coords(i int) (x, y int) { return i % s.Side, i / s.Side }

// Contains reports whether i addresses a cell of the grid.
func (s Square) Contains(i int) bool { return i >= 0 && i < s.Len() }

// IsLowest reports whether i lies on the first row.
func (s Square) IsLowest(i int) bool { return i < s.Side }

// IsUpper reports whether i lies on the last row.
func (s Square) IsUpper(i int) bool { return i >= s.Len()-s.Side }

// IsLeft reports whether i lies on the first column.
func (s Square) IsLeft(i int) bool { return i%s.Side == 0 }

// IsRight reports whether i lies on the last column.
func (s Square) IsRight(i int) bool { return i%s.Side == s.Side-1 }

// IsBoundary reports whether i has fewer than four neighbours.
func (s Square) IsBoundary(i int) bool {
	return s.IsLowest(i) || s.IsUpper(i) || s.IsLeft(i) || s.IsRight(i)
}

// Below returns the index one row down. Callers check IsLowest first.
func (s Square) Below(i int) int { return i - s.Side }

// Above returns the index one row up. Callers check IsUpper first.
func (s Square) Above(i int) int { return i + s.Side }

// LeftOf returns the index one column left. Callers check IsLeft first.
func (s Square) LeftOf(i int) int { return i - 1 }

// RightOf returns the index one column right. Callers check IsRight first.
func (s Square) RightOf(i int) int { return i + 1 }

// Neighbors appends the existing 4-neighbours of i to dst and returns the
// extended slice.
func (s Square) Neighbors(i int, dst []int) []int {
	if !s.IsLowest(i) {
		dst = append(dst, s.Below(i))
	}
	if !s.IsUpper(i) {
		dst = append(dst, s.Above(i))
	}
	if !s.IsLeft(i) {
		dst = append(dst, s.LeftOf(i))
	}
	if !s.IsRight(i) {
		dst = append(dst, s.RightOf(i))
	}
	return dst
}
