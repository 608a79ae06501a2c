package collision

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

type body struct {
	id   int
	x, y float64
}

func (b *body) Position() (float64, float64) { return b.x, b.y }

func ids(bodies []*body) []int {
	seen := make(map[int]bool)
	out := make([]int, 0, len(bodies))
	for _, b := range bodies {
		if seen[b.id] {
			continue
		}
		seen[b.id] = true
		out = append(out, b.id)
	}
	sort.Ints(out)
	return out
}

func contains(bodies []*body, id int) bool {
	for _, b := range bodies {
		if b.id == id {
			return true
		}
	}
	return false
}

func TestNewSpatialHash_DefaultsBadCellSize(t *testing.T) {
	for _, size := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		h := NewSpatialHash[*body](size)
		if h.CellSize() != DefaultCellSize {
			t.Fatalf("cell size %v: expected default %v, got %v", size, DefaultCellSize, h.CellSize())
		}
	}
	if h := NewSpatialHash[*body](32); h.CellSize() != 32 {
		t.Fatalf("expected cell size 32, got %v", h.CellSize())
	}
}

func TestKey_FloorDivision(t *testing.T) {
	h := NewSpatialHash[*body](80)
	tests := []struct {
		x, y float64
		want CellKey
	}{
		{0, 0, CellKey{0, 0}},
		{79.9, 79.9, CellKey{0, 0}},
		{80, 0, CellKey{1, 0}},
		{-0.5, -0.5, CellKey{-1, -1}},
		{-80, 160, CellKey{-1, 2}},
		{-80.1, 0, CellKey{-2, 0}},
	}
	for _, tc := range tests {
		if got := h.Key(tc.x, tc.y); got != tc.want {
			t.Errorf("Key(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestRange_NegativeRadiusIsSingleCell(t *testing.T) {
	h := NewSpatialHash[*body](80)
	r := h.Range(10, 10, -25)
	if r.Cells() != 1 || !r.Contains(CellKey{0, 0}) {
		t.Fatalf("expected single cell range at origin, got %+v", r)
	}
	if z := h.Range(10, 10, 0); z != r {
		t.Fatalf("zero and negative radius should agree: %+v vs %+v", z, r)
	}
}

func TestRange_HugeRadiusIsClamped(t *testing.T) {
	h := NewSpatialHash[*body](80)
	side := 2*MaxCellSpan + 1
	for _, r := range []float64{1e6, math.Inf(1)} {
		rng := h.Range(10, 10, r)
		if rng.Cells() != side*side {
			t.Fatalf("radius %v: expected %d cells, got %d (%+v)", r, side*side, rng.Cells(), rng)
		}
		if !rng.Contains(CellKey{MaxCellSpan, -MaxCellSpan}) || rng.Contains(CellKey{MaxCellSpan + 1, 0}) {
			t.Fatalf("radius %v: range not centred on the body's cell: %+v", r, rng)
		}
	}
	if nan := h.Range(10, 10, math.NaN()); nan.Cells() != 1 {
		t.Fatalf("NaN radius should cover one cell, got %+v", nan)
	}
}

func TestInsertCircle_InfiniteRadiusStaysBounded(t *testing.T) {
	h := NewSpatialHash[*body](80)
	h.InsertCircle(&body{id: 1, x: 10, y: 10}, math.Inf(1))
	side := 2*MaxCellSpan + 1
	if h.Count() != side*side {
		t.Fatalf("expected %d refs, got %d", side*side, h.Count())
	}
	if got := h.QueryCircle(10+40*80, 10, 1); len(got) != 1 {
		t.Fatalf("expected the body in a cell 40 away, got %d hits", len(got))
	}
}

func TestInsertCircle_SpansCellRange(t *testing.T) {
	h := NewSpatialHash[*body](80)
	h.InsertCircle(&body{id: 1, x: 80, y: 80}, 10)
	// Bounding square 70..90 straddles the corner of four cells.
	if h.Len() != 4 || h.Count() != 4 {
		t.Fatalf("expected 4 buckets / 4 refs, got %d / %d", h.Len(), h.Count())
	}
}

func TestQueryCircle_ReturnsDuplicates(t *testing.T) {
	h := NewSpatialHash[*body](80)
	h.InsertCircle(&body{id: 1, x: 80, y: 80}, 10)
	got := h.QueryCircle(80, 80, 10)
	if len(got) != 4 {
		t.Fatalf("expected the body once per shared cell (4), got %d", len(got))
	}
	if len(ids(got)) != 1 {
		t.Fatalf("expected one distinct body, got %v", ids(got))
	}
}

func TestQueryCircle_SelfQueryFindsBody(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := NewSpatialHash[*body](80)
	for i := 0; i < 500; i++ {
		h.Clear()
		b := &body{id: i, x: rng.Float64()*2000 - 1000, y: rng.Float64()*2000 - 1000}
		h.InsertCircle(b, rng.Float64()*120)
		if !contains(h.QueryCircle(b.x, b.y, 0), i) {
			t.Fatalf("body %d at (%.2f, %.2f) not found by point query", i, b.x, b.y)
		}
	}
}

func TestRange_SoundForOverlappingCircles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, cellSize := range []float64{8, 80, 300} {
		h := NewSpatialHash[*body](cellSize)
		for i := 0; i < 5000; i++ {
			x1 := rng.Float64()*1000 - 500
			y1 := rng.Float64()*1000 - 500
			r1 := rng.Float64() * 60
			r2 := rng.Float64() * 60
			// Place the second circle at or inside touching distance.
			ang := rng.Float64() * 2 * math.Pi
			d := rng.Float64() * (r1 + r2)
			x2 := x1 + math.Cos(ang)*d
			y2 := y1 + math.Sin(ang)*d

			if !h.Range(x1, y1, r1).Intersects(h.Range(x2, y2, r2)) {
				t.Fatalf("cell %v: ranges of overlapping circles (%.2f,%.2f,%.2f) and (%.2f,%.2f,%.2f) are disjoint",
					cellSize, x1, y1, r1, x2, y2, r2)
			}
		}
	}
}

func TestQueryCircle_NoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	h := NewSpatialHash[*body](80)
	bodies := make([]*body, 300)
	radii := make([]float64, len(bodies))
	for i := range bodies {
		bodies[i] = &body{id: i, x: rng.Float64() * 1600, y: rng.Float64() * 1600}
		radii[i] = 4 + rng.Float64()*36
		h.InsertCircle(bodies[i], radii[i])
	}
	for i, a := range bodies {
		candidates := h.QueryCircle(a.x, a.y, radii[i])
		for j, b := range bodies {
			if math.Hypot(a.x-b.x, a.y-b.y) <= radii[i]+radii[j] && !contains(candidates, j) {
				t.Fatalf("body %d overlaps %d but was not a candidate", j, i)
			}
		}
	}
}

func TestQueryCircle_Deterministic(t *testing.T) {
	build := func() [][]int {
		rng := rand.New(rand.NewSource(99))
		h := NewSpatialHash[*body](80)
		for i := 0; i < 200; i++ {
			h.InsertCircle(&body{id: i, x: rng.Float64() * 900, y: rng.Float64() * 900}, rng.Float64()*40)
		}
		var out [][]int
		for q := 0; q < 50; q++ {
			out = append(out, ids(h.QueryCircle(rng.Float64()*900, rng.Float64()*900, rng.Float64()*60)))
		}
		return out
	}
	a, b := build(), build()
	for i := range a {
		if len(a[i]) != len(b[i]) {
			t.Fatalf("query %d: %v vs %v", i, a[i], b[i])
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("query %d: %v vs %v", i, a[i], b[i])
			}
		}
	}
}

func TestBroadPhaseScenario(t *testing.T) {
	h := NewSpatialHash[*body](80)
	left := &body{id: 1, x: 0, y: 0}
	right := &body{id: 2, x: 100, y: 0}
	near := &body{id: 3, x: 55, y: 0}
	h.InsertCircle(left, 10)
	h.InsertCircle(right, 10)

	// Query range is cell (0,0) only; (100,0) r=10 lives in cell 1.
	got := ids(h.QueryCircle(50, 0, 5))
	if contains(h.QueryCircle(50, 0, 5), 2) {
		t.Fatalf("circle at x=100 should not share a cell with the query, got %v", got)
	}

	h.InsertCircle(near, 10)
	if !contains(h.QueryCircle(50, 0, 5), 3) {
		t.Fatal("circle at (55,0) r=10 overlaps the query and must be returned")
	}
}

func TestClear_DiscardsBuckets(t *testing.T) {
	h := NewSpatialHash[*body](80)
	for i := 0; i < 10; i++ {
		h.InsertCircle(&body{id: i, x: float64(i) * 100, y: 0}, 5)
	}
	h.Clear()
	if h.Count() != 0 || h.Len() != 0 {
		t.Fatalf("expected empty hash after Clear, got count=%d len=%d", h.Count(), h.Len())
	}
	if got := h.QueryCircle(0, 0, 1000); len(got) != 0 {
		t.Fatalf("expected no results after Clear, got %d", len(got))
	}

	// A second Clear drops the buckets that stayed empty.
	h.Clear()
	if len(h.cells) != 0 {
		t.Fatalf("expected stale buckets to be dropped, %d remain", len(h.cells))
	}
}

func TestInsertCircle_SkipsNonFinite(t *testing.T) {
	h := NewSpatialHash[*body](80)
	h.InsertCircle(&body{id: 1, x: math.NaN(), y: 0}, 10)
	h.InsertCircle(&body{id: 2, x: 0, y: math.Inf(-1)}, 10)
	if h.Count() != 0 {
		t.Fatalf("expected non-finite bodies to be skipped, count=%d", h.Count())
	}
	if got := h.QueryCircle(math.NaN(), 0, 10); got != nil {
		t.Fatalf("expected nil for a non-finite query, got %v", got)
	}
}

func TestAppendQueryCircle_ReusesSlice(t *testing.T) {
	h := NewSpatialHash[*body](80)
	h.InsertCircle(&body{id: 1, x: 10, y: 10}, 5)
	buf := make([]*body, 0, 8)
	buf = h.AppendQueryCircle(buf[:0], 10, 10, 5)
	buf = h.AppendQueryCircle(buf, 10, 10, 5)
	if len(buf) != 2 {
		t.Fatalf("expected two appended results, got %d", len(buf))
	}
}

func TestCellRange_Helpers(t *testing.T) {
	a := CellRange{MinX: 0, MinY: 0, MaxX: 2, MaxY: 1}
	if a.Cells() != 6 {
		t.Fatalf("expected 6 cells, got %d", a.Cells())
	}
	if !a.Intersects(CellRange{MinX: 2, MinY: 1, MaxX: 5, MaxY: 5}) {
		t.Fatal("ranges sharing a corner cell should intersect")
	}
	if a.Intersects(CellRange{MinX: 3, MinY: 0, MaxX: 4, MaxY: 1}) {
		t.Fatal("adjacent ranges should not intersect")
	}
	if (CellRange{MinX: 1, MaxX: 0}).Cells() != 0 {
		t.Fatal("inverted range should have no cells")
	}
}
