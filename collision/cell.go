package collision

import "math"

// CellKey identifies one square cell of the grid
type CellKey struct {
	X, Y int
}

// CellRange is an inclusive rectangle of cell keys
type CellRange struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Contains reports whether the key lies inside the range
func (r CellRange) Contains(k CellKey) bool {
	return k.X >= r.MinX && k.X <= r.MaxX && k.Y >= r.MinY && k.Y <= r.MaxY
}

// Intersects reports whether the two ranges share at least one cell
func (r CellRange) Intersects(o CellRange) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX &&
		r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Cells returns the number of cells covered by the range
func (r CellRange) Cells() int {
	if r.MaxX < r.MinX || r.MaxY < r.MinY {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// cellIndex converts one world coordinate to a cell coordinate.
// Floor division keeps negative coordinates in their own cells instead of
// folding (-0.5) and (0.5) into cell 0.
func cellIndex(v, cellSize float64) int {
	return int(math.Floor(v / cellSize))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
