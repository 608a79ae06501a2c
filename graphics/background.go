// Package graphics builds the full-frame backdrop of the game on the CPU: a
// drifting, tileable starfield and nebula base layer, and an optional black
// hole post-processor that re-lenses that layer and adds overlay effects.
//
// Both compositors work on *image.RGBA rasters so a frame can be produced,
// inspected and tested without a running window; the game driver uploads the
// finished frame to the screen.
package graphics

import (
	"image"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

const (
	// frameMillis is one nominal frame; dt is measured in these units
	frameMillis = 1000.0 / 60.0
	minDT       = 0.5
	maxDT       = 3.0

	// Stars drift faster than their configured speed relative to nebulas
	starDriftBoost = 2.0

	starHaloScale = 3.0
	starCoreAlpha = 0.35
)

// LayerKind tells nebula layers from star layers
type LayerKind int

const (
	LayerNebula LayerKind = iota
	LayerStars
)

func (k LayerKind) String() string {
	switch k {
	case LayerNebula:
		return "nebula"
	case LayerStars:
		return "stars"
	default:
		return "unknown"
	}
}

// LayerInfo is a read-only snapshot of one background layer
type LayerInfo struct {
	Kind       LayerKind
	TileWidth  int
	TileHeight int
	Speed      float64
	Parallax   float64

	// OffsetX and OffsetY are normalised into [0, tile size)
	OffsetX float64
	OffsetY float64
}

type layer struct {
	kind     LayerKind
	tile     *image.RGBA
	speed    float64
	parallax float64
	ox, oy   float64
}

// advance moves the offset and re-wraps it so it never grows unbounded
func (l *layer) advance(dx, dy float64) {
	tw, th := float64(l.tile.Rect.Dx()), float64(l.tile.Rect.Dy())
	l.ox = math.Mod(l.ox+dx, tw)
	l.oy = math.Mod(l.oy+dy, th)
}

func (l *layer) info() LayerInfo {
	tw, th := l.tile.Rect.Dx(), l.tile.Rect.Dy()
	return LayerInfo{
		Kind:       l.kind,
		TileWidth:  tw,
		TileHeight: th,
		Speed:      l.speed,
		Parallax:   l.parallax,
		OffsetX:    wrap(l.ox, float64(tw)),
		OffsetY:    wrap(l.oy, float64(th)),
	}
}

// wrap normalises v into [0, n)
func wrap(v, n float64) float64 {
	if n <= 0 {
		return 0
	}
	v -= math.Floor(v/n) * n
	if v >= n {
		v = 0
	}
	return v
}

// Background composes the parallax starfield and nebula layers into a frame
// buffer it owns.
type Background struct {
	w, h int
	cfg  BackgroundConfig

	rng   *rand.Rand
	now   func() time.Time
	lastT time.Time

	nebulas []layer
	stars   []layer

	// ship velocity driving the parallax term
	vx, vy float64

	frame *image.RGBA
	z     *vector.Rasterizer
}

// BackgroundOption customises a Background at construction
type BackgroundOption func(*Background)

// WithBackgroundConfig replaces the default configuration
func WithBackgroundConfig(cfg BackgroundConfig) BackgroundOption {
	return func(b *Background) { b.cfg = cloneBackgroundConfig(cfg) }
}

// WithBackgroundRand sets the random source used for procedural generation
func WithBackgroundRand(rng *rand.Rand) BackgroundOption {
	return func(b *Background) { b.rng = rng }
}

// WithBackgroundClock sets the clock Update measures frame time with
func WithBackgroundClock(now func() time.Time) BackgroundOption {
	return func(b *Background) { b.now = now }
}

// NewBackground generates every layer for a w×h viewport
func NewBackground(w, h int, opts ...BackgroundOption) *Background {
	b := &Background{
		cfg:   DefaultBackgroundConfig(),
		now:   time.Now,
		frame: image.NewRGBA(image.Rectangle{}),
		z:     vector.NewRasterizer(0, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b.lastT = b.now()
	b.Resize(w, h)
	return b
}

// Resize regenerates every layer for the new viewport and reallocates the
// frame buffer. A zero-area size is ignored.
func (b *Background) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	b.w, b.h = w, h
	b.regenerate()
}

// Size returns the current viewport size
func (b *Background) Size() (int, int) {
	return b.w, b.h
}

func (b *Background) regenerate() {
	if b.w <= 0 || b.h <= 0 {
		return
	}
	b.buildStars()
	b.buildNebulas()
	if b.frame.Rect.Dx() != b.w || b.frame.Rect.Dy() != b.h {
		b.frame = image.NewRGBA(image.Rect(0, 0, b.w, b.h))
	}
}

// SetConfig replaces the configuration and regenerates every layer
func (b *Background) SetConfig(cfg BackgroundConfig) {
	b.cfg = cloneBackgroundConfig(cfg)
	b.regenerate()
}

// UpdateConfig applies fn to a copy of the current configuration, keeping
// every field fn leaves alone, and regenerates the layers from the result
func (b *Background) UpdateConfig(fn func(*BackgroundConfig)) {
	cfg := cloneBackgroundConfig(b.cfg)
	if fn != nil {
		fn(&cfg)
	}
	b.cfg = cfg
	b.regenerate()
}

// Config returns a copy of the current configuration
func (b *Background) Config() BackgroundConfig {
	return cloneBackgroundConfig(b.cfg)
}

// SetParallax sets the ship velocity the layers react to
func (b *Background) SetParallax(vx, vy float64) {
	if math.IsNaN(vx) || math.IsInf(vx, 0) {
		vx = 0
	}
	if math.IsNaN(vy) || math.IsInf(vy, 0) {
		vy = 0
	}
	b.vx, b.vy = vx, vy
}

// Layers returns snapshots of the nebula layers (back to front) followed by
// the star layers
func (b *Background) Layers() []LayerInfo {
	out := make([]LayerInfo, 0, len(b.nebulas)+len(b.stars))
	for i := range b.nebulas {
		out = append(out, b.nebulas[i].info())
	}
	for i := range b.stars {
		out = append(out, b.stars[i].info())
	}
	return out
}

// Update advances every layer by the wall-clock time since the last update
func (b *Background) Update() {
	t := b.now()
	dt := float64(t.Sub(b.lastT)) / float64(time.Millisecond) / frameMillis
	b.lastT = t
	b.Step(dt)
}

// Step advances every layer by dt nominal frames. dt is clamped to
// [0.5, 3] so pauses and slow frames cannot make the layers jump.
func (b *Background) Step(dt float64) {
	dt = clamp(dt, minDT, maxDT)
	dx, dy := b.cfg.DriftDir.X, b.cfg.DriftDir.Y
	for i := range b.nebulas {
		l := &b.nebulas[i]
		l.advance(
			dx*l.speed*dt-b.vx*l.parallax*dt,
			dy*l.speed*dt-b.vy*l.parallax*dt,
		)
	}
	for i := range b.stars {
		l := &b.stars[i]
		l.advance(
			dx*l.speed*starDriftBoost*dt-b.vx*l.parallax*dt,
			dy*l.speed*starDriftBoost*dt-b.vy*l.parallax*dt,
		)
	}
}

// Compose advances the layers, redraws the frame buffer and returns it
func (b *Background) Compose() image.Image {
	b.Update()
	b.compose()
	return b.frame
}

// Frame returns the last composed frame without advancing anything. The
// buffer is overwritten in place by the next compose; callers must not keep
// it across frames or write to it.
func (b *Background) Frame() image.Image {
	return b.frame
}

// Draw composes a new frame and copies it onto dst
func (b *Background) Draw(dst draw.Image) {
	b.Update()
	if !b.compose() {
		return
	}
	draw.Copy(dst, dst.Bounds().Min, b.frame, b.frame.Rect, draw.Src, nil)
}

func (b *Background) compose() bool {
	if b.w <= 0 || b.h <= 0 {
		return false
	}
	draw.Draw(b.frame, b.frame.Rect, image.NewUniform(b.cfg.BaseColor), image.Point{}, draw.Src)
	for i := range b.nebulas {
		drawTiled(b.frame, &b.nebulas[i])
	}
	for i := range b.stars {
		drawTiled(b.frame, &b.stars[i])
	}
	return true
}

func drawTiled(dst *image.RGBA, l *layer) {
	tw, th := l.tile.Rect.Dx(), l.tile.Rect.Dy()
	for _, p := range TilePlacements(l.ox, l.oy, tw, th, dst.Rect.Dx(), dst.Rect.Dy()) {
		r := image.Rectangle{Min: p, Max: p.Add(image.Pt(tw, th))}
		draw.Draw(dst, r, l.tile, image.Point{}, draw.Over)
	}
}

// TilePlacements returns the top-left corners at which a tw×th tile must be
// drawn so that, for an offset (ox, oy), every pixel of a vw×vh viewport is
// covered by exactly one tile pixel.
func TilePlacements(ox, oy float64, tw, th, vw, vh int) []image.Point {
	if tw <= 0 || th <= 0 || vw <= 0 || vh <= 0 {
		return nil
	}
	x := -math.Mod(ox, float64(tw))
	y := -math.Mod(oy, float64(th))
	if x > 0 {
		x -= float64(tw)
	}
	if y > 0 {
		y -= float64(th)
	}
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	nx := 2 + (vw+tw-1)/tw
	ny := 2 + (vh+th-1)/th
	pts := make([]image.Point, 0, nx*ny)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			pts = append(pts, image.Pt(x0+ix*tw, y0+iy*th))
		}
	}
	return pts
}

func (b *Background) buildStars() {
	total := max(1, len(b.cfg.Stars))
	b.stars = b.stars[:0]
	for idx, sc := range b.cfg.Stars {
		tile := image.NewRGBA(image.Rect(0, 0, b.w, b.h))
		for i := 0; i < sc.Count; i++ {
			x := b.rng.Float64() * float64(b.w)
			y := b.rng.Float64() * float64(b.h)
			r := b.randRange(sc.MinSize, sc.MaxSize)
			a := b.randRange(sc.MinAlpha, sc.MaxAlpha)
			c := b.pick(b.cfg.Palette.Stars)
			b.stampStar(tile, x, y, r, a, c)
		}
		depth := float64(idx+1) / float64(total)
		b.stars = append(b.stars, layer{
			kind:     LayerStars,
			tile:     tile,
			speed:    sc.Speed,
			parallax: b.cfg.StarParallax * depth,
		})
	}
}

// stampStar draws a soft halo and a bright core, repeating the stamp across
// tile edges so the tile stays seamless
func (b *Background) stampStar(tile *image.RGBA, x, y, r, a float64, c Color) {
	if r <= 0 || a <= 0 {
		return
	}
	halo := r * starHaloScale
	for _, o := range wrapOffsets(x, y, halo, tile.Rect.Dx(), tile.Rect.Dy()) {
		sx, sy := x+o[0], y+o[1]
		g := newRadial(ebiten.GeoM{}, sx, sy, 0, halo,
			stop{0, c.withAlpha(a)},
			stop{0.35, c.withAlpha(a * 0.7)},
			stop{1, transparent},
		)
		fillPath(tile, b.z, newPath(ebiten.GeoM{}).circle(sx, sy, halo), g, 1, blendOver)
		core := solid(Color{R: 255, G: 255, B: 255, A: 255}.withAlpha(math.Min(starCoreAlpha, a*1.6)))
		fillPath(tile, b.z, newPath(ebiten.GeoM{}).circle(sx, sy, r), core, 1, blendOver)
	}
}

func (b *Background) buildNebulas() {
	total := max(1, len(b.cfg.Nebulas))
	b.nebulas = b.nebulas[:0]
	for idx, nc := range b.cfg.Nebulas {
		s := clamp(nc.Scale, 1, 4)
		tw := int(math.Ceil(float64(b.w) * s))
		th := int(math.Ceil(float64(b.h) * s))
		tile := image.NewRGBA(image.Rect(0, 0, tw, th))
		for i := 0; i < nc.Blobs; i++ {
			b.stampBlob(tile, nc.Alpha)
		}
		depth := float64(idx+1) / float64(total)
		b.nebulas = append(b.nebulas, layer{
			kind:     LayerNebula,
			tile:     tile,
			speed:    nc.Speed,
			parallax: b.cfg.NebulaParallax * depth,
		})
	}
}

// stampBlob approximates one cloudy patch with 5 to 8 overlapping soft
// gradients blended additively
func (b *Background) stampBlob(tile *image.RGBA, alpha float64) {
	W, H := float64(tile.Rect.Dx()), float64(tile.Rect.Dy())
	cx0 := b.randRange(W*0.1, W*0.9)
	cy0 := b.randRange(H*0.1, H*0.9)
	baseR := math.Max(W, H) * b.randRange(0.18, 0.33)
	var col Color
	if b.rng.Float64() < 0.25 {
		col = b.pick(b.cfg.Palette.Highlights)
	} else {
		col = b.pick(b.cfg.Palette.Nebulas)
	}
	n := 5 + b.rng.Intn(4)
	for k := 0; k < n; k++ {
		r := baseR * b.randRange(0.4, 1.0)
		dx := b.randRange(-baseR*0.2, baseR*0.2)
		dy := b.randRange(-baseR*0.2, baseR*0.2)
		a := alpha * b.randRange(0.35, 1.0)
		for _, o := range wrapOffsets(cx0+dx, cy0+dy, r, tile.Rect.Dx(), tile.Rect.Dy()) {
			x, y := cx0+dx+o[0], cy0+dy+o[1]
			g := newRadial(ebiten.GeoM{}, x, y, r*0.1, r, stop{0, col.withAlpha(a)}, stop{1, transparent})
			fillPath(tile, b.z, newPath(ebiten.GeoM{}).circle(x, y, r), g, 1, blendAdd)
		}
	}
}

// wrapOffsets lists the translations at which a circle must be repeated so
// the parts hanging over a tile edge reappear on the opposite edge
func wrapOffsets(x, y, r float64, w, h int) [][2]float64 {
	xs := []float64{0}
	ys := []float64{0}
	fw, fh := float64(w), float64(h)
	if x-r < 0 {
		xs = append(xs, fw)
	}
	if x+r > fw {
		xs = append(xs, -fw)
	}
	if y-r < 0 {
		ys = append(ys, fh)
	}
	if y+r > fh {
		ys = append(ys, -fh)
	}
	out := make([][2]float64, 0, len(xs)*len(ys))
	for _, oy := range ys {
		for _, ox := range xs {
			out = append(out, [2]float64{ox, oy})
		}
	}
	return out
}

func (b *Background) randRange(lo, hi float64) float64 {
	return lo + b.rng.Float64()*(hi-lo)
}

func (b *Background) pick(colors []Color) Color {
	if len(colors) == 0 {
		return Color{R: 255, G: 255, B: 255, A: 255}
	}
	return colors[b.rng.Intn(len(colors))]
}

func cloneBackgroundConfig(cfg BackgroundConfig) BackgroundConfig {
	cfg.Stars = slices.Clone(cfg.Stars)
	cfg.Nebulas = slices.Clone(cfg.Nebulas)
	cfg.Palette.Stars = slices.Clone(cfg.Palette.Stars)
	cfg.Palette.Nebulas = slices.Clone(cfg.Palette.Nebulas)
	cfg.Palette.Highlights = slices.Clone(cfg.Palette.Highlights)
	return cfg
}
