// Package collision provides the broad-phase index used to find candidate
// overlaps between circles once per frame.
package collision

// DefaultCellSize is used when a hash is built with a non-positive cell size.
// It should stay close to the typical collider diameter.
const DefaultCellSize = 80.0

// MaxCellSpan bounds how many cells a range reaches out from its centre cell
// along each axis. Radii are expected to be a few cells at most; anything
// larger, +Inf included, is clamped to MaxCellSpan cells so one circle
// touches at most (2*MaxCellSpan+1)^2 buckets.
const MaxCellSpan = 64

// Body is anything with a world position. The hash never looks at the rest
// of the value and never owns it.
type Body interface {
	Position() (x, y float64)
}

// SpatialHash buckets bodies into a uniform grid of square cells.
//
// A frame follows a fixed cycle: Clear, InsertCircle for every collider, then
// any number of QueryCircle calls. Insert never clears implicitly.
type SpatialHash[T Body] struct {
	cellSize float64

	// Buckets keyed by cell; a bucket keeps its capacity across one Clear so
	// cells that stay populated frame to frame do not reallocate.
	cells map[CellKey][]T

	count int
}

// NewSpatialHash creates an empty hash. A cell size that is not a positive
// finite number is replaced with DefaultCellSize.
func NewSpatialHash[T Body](cellSize float64) *SpatialHash[T] {
	if !(cellSize > 0) || !finite(cellSize) {
		cellSize = DefaultCellSize
	}
	return &SpatialHash[T]{
		cellSize: cellSize,
		cells:    make(map[CellKey][]T, 256),
	}
}

// CellSize returns the side length of one cell
func (h *SpatialHash[T]) CellSize() float64 {
	return h.cellSize
}

// Key returns the cell containing the world point
func (h *SpatialHash[T]) Key(x, y float64) CellKey {
	return CellKey{X: cellIndex(x, h.cellSize), Y: cellIndex(y, h.cellSize)}
}

// Range returns the inclusive cell range covered by the bounding square of a
// circle. A negative or NaN radius is treated as zero and a radius past
// MaxCellSpan cells is clamped.
func (h *SpatialHash[T]) Range(x, y, r float64) CellRange {
	if !(r > 0) {
		r = 0
	}
	r = min(r, MaxCellSpan*h.cellSize)
	return CellRange{
		MinX: cellIndex(x-r, h.cellSize),
		MinY: cellIndex(y-r, h.cellSize),
		MaxX: cellIndex(x+r, h.cellSize),
		MaxY: cellIndex(y+r, h.cellSize),
	}
}

// Clear discards every bucket. Buckets left empty by the previous cycle are
// dropped from the map; the rest are truncated and reused.
func (h *SpatialHash[T]) Clear() {
	for k, bucket := range h.cells {
		if len(bucket) == 0 {
			delete(h.cells, k)
			continue
		}
		clear(bucket)
		h.cells[k] = bucket[:0]
	}
	h.count = 0
}

// InsertCircle appends e to every cell touched by the bounding square of the
// circle centred on e's position with radius r. Bodies at a non-finite
// position are skipped.
func (h *SpatialHash[T]) InsertCircle(e T, r float64) {
	x, y := e.Position()
	if !finite(x) || !finite(y) {
		return
	}
	rng := h.Range(x, y, r)
	for cy := rng.MinY; cy <= rng.MaxY; cy++ {
		for cx := rng.MinX; cx <= rng.MaxX; cx++ {
			k := CellKey{X: cx, Y: cy}
			h.cells[k] = append(h.cells[k], e)
			h.count++
		}
	}
}

// QueryCircle returns every body stored in the cells touched by the bounding
// square of the query circle.
//
// A body that spans several of those cells is returned once per shared cell.
// Duplicates are part of the contract: callers dedupe before acting, and the
// result is only a candidate set that still needs an exact distance test.
func (h *SpatialHash[T]) QueryCircle(x, y, r float64) []T {
	return h.AppendQueryCircle(nil, x, y, r)
}

// AppendQueryCircle is QueryCircle appending into dst, so a caller can reuse
// one slice for every query of a frame.
func (h *SpatialHash[T]) AppendQueryCircle(dst []T, x, y, r float64) []T {
	if !finite(x) || !finite(y) {
		return dst
	}
	rng := h.Range(x, y, r)
	for cy := rng.MinY; cy <= rng.MaxY; cy++ {
		for cx := rng.MinX; cx <= rng.MaxX; cx++ {
			dst = append(dst, h.cells[CellKey{X: cx, Y: cy}]...)
		}
	}
	return dst
}

// Len returns the number of non-empty buckets
func (h *SpatialHash[T]) Len() int {
	n := 0
	for _, bucket := range h.cells {
		if len(bucket) > 0 {
			n++
		}
	}
	return n
}

// Count returns the total number of stored references, duplicates included
func (h *SpatialHash[T]) Count() int {
	return h.count
}
