package graphics

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

const (
	grainSize = 128

	diskInner = 0.78
	diskOuter = 1.85
	rimInner  = 0.85
	rimOuter  = 1.08
	chromaR   = 1.2
	horizonIn = 0.92
)

var (
	white       = Color{R: 255, G: 255, B: 255, A: 255}
	black       = Color{A: 255}
	bloomTint   = Color{R: 255, G: 230, B: 150, A: 255}
	chromaRed   = Color{R: 255, G: 80, B: 100, A: 255}
	chromaCyan  = Color{R: 100, G: 220, B: 255, A: 255}
	dopplerBlue = Hex("#66d9ff")
	dopplerRed  = Hex("#ff3355")
)

// BlackHole post-processes a finished background frame: it lenses the frame
// around a centre point and adds an accretion disk, an event horizon and a
// few camera effects. Disabled, it copies the frame through untouched.
type BlackHole struct {
	w, h    int
	cfg     BlackHoleConfig
	enabled bool

	rng *rand.Rand
	now func() time.Time
	t0  time.Time

	// overlay holds the accretion disk before it is bloomed and added onto
	// the canvas
	overlay *image.RGBA
	glow    *image.RGBA
	small   *image.RGBA
	work    *image.RGBA
	src     *image.RGBA
	scales  []float64
	grain   *image.Gray
	z       *vector.Rasterizer
}

// BlackHoleOption customises a BlackHole at construction
type BlackHoleOption func(*BlackHole)

// WithBlackHoleConfig replaces the default tuning
func WithBlackHoleConfig(cfg BlackHoleConfig) BlackHoleOption {
	return func(b *BlackHole) { b.cfg = cfg }
}

// WithBlackHoleRand sets the random source for the grain tile and its
// per-frame offsets
func WithBlackHoleRand(rng *rand.Rand) BlackHoleOption {
	return func(b *BlackHole) { b.rng = rng }
}

// WithBlackHoleClock sets the clock animation time is read from
func WithBlackHoleClock(now func() time.Time) BlackHoleOption {
	return func(b *BlackHole) { b.now = now }
}

// NewBlackHole returns a disabled black hole for a w×h viewport
func NewBlackHole(w, h int, opts ...BlackHoleOption) *BlackHole {
	b := &BlackHole{
		cfg: DefaultBlackHoleConfig(),
		now: time.Now,
		z:   vector.NewRasterizer(0, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b.t0 = b.now()
	b.grain = makeGrain(b.rng, grainSize, grainSize)
	b.Resize(w, h)
	return b
}

func makeGrain(rng *rand.Rand, w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = uint8(rng.Intn(256))
	}
	return g
}

// Resize reallocates the overlay buffers. The grain tile does not depend on
// the viewport and is kept.
func (b *BlackHole) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	if w == b.w && h == b.h && b.overlay != nil {
		return
	}
	b.w, b.h = w, h
	r := image.Rect(0, 0, w, h)
	b.overlay = image.NewRGBA(r)
	b.glow = image.NewRGBA(r)
	b.work = nil
}

// Size returns the current viewport size
func (b *BlackHole) Size() (int, int) {
	return b.w, b.h
}

// SetEnabled turns the effect on or off
func (b *BlackHole) SetEnabled(v bool) {
	b.enabled = v
}

// Enabled reports whether Render applies the effect
func (b *BlackHole) Enabled() bool {
	return b.enabled
}

// SetConfig replaces the whole tuning; values are clamped at render time
func (b *BlackHole) SetConfig(cfg BlackHoleConfig) {
	b.cfg = cfg
}

// UpdateConfig applies fn to the current tuning, leaving every field fn does
// not touch as it was
func (b *BlackHole) UpdateConfig(fn func(*BlackHoleConfig)) {
	if fn != nil {
		fn(&b.cfg)
	}
}

// Config returns the current tuning
func (b *BlackHole) Config() BlackHoleConfig {
	return b.cfg
}

// Elapsed returns the animation time in seconds
func (b *BlackHole) Elapsed() float64 {
	return b.now().Sub(b.t0).Seconds()
}

// Pulse returns the lensing oscillation in [0, 1] at animation time t
func (b *BlackHole) Pulse(t float64) float64 {
	return 0.5 + 0.5*math.Sin(t*b.cfg.PulseSpeed*2*math.Pi)
}

// params is the config after use-time clamping
type params struct {
	cx, cy, r       float64
	k               float64
	pulse           float64
	rings           int
	outer           float64
	tilt, spin      float64
	doppler         float64
	streaks         int
	seed            uint32
	vignette        float64
	bloom           float64
	chroma          float64
	grain           float64
	innerScale      float64
	diskIn, diskOut float64
}

func (b *BlackHole) params(t float64) params {
	c := b.cfg
	p := params{
		cx:    float64(b.w) * clamp(c.X, 0, 1),
		cy:    float64(b.h) * clamp(c.Y, 0, 1),
		r:     clamp(c.Radius, 1, 1e5),
		pulse: b.Pulse(t),
		rings: int(clamp(float64(c.Rings), 8, 64)),
		tilt:  clamp(c.DiscTilt, 0.3, 1),
		spin:  t * clamp(c.DiscSpin, -100, 100),

		doppler:  clamp(c.Doppler, 0, 2),
		streaks:  int(clamp(float64(c.Streaks), 0, 64)),
		seed:     c.StreakSeed,
		vignette: clamp(c.Vignette, 0, 0.6),
		bloom:    clamp(c.Bloom, 0, 2),
		chroma:   clamp(c.Chroma, 0, 2),
		grain:    clamp(c.Grain, 0, 0.2),
	}
	if math.IsNaN(p.pulse) {
		p.pulse = 0.5
	}
	amount := clamp(c.PulseAmount, 0, 1)
	p.k = math.Max(0.02, clamp(c.Strength, 0.02, 1)) * (1 + amount*(p.pulse-0.5)*2)
	scale := c.OuterScale
	if !(scale > 1) || math.IsInf(scale, 0) {
		scale = 2
	}
	p.outer = p.r * scale
	p.innerScale = math.Max(0.78, 1-1.8*p.k)
	p.diskIn = p.r * diskInner
	p.diskOut = p.r * diskOuter
	return p
}

// Render writes the final frame into dst. Disabled, dst receives a pixel
// identical copy of base. A zero-size viewport or nil base does nothing.
func (b *BlackHole) Render(dst draw.Image, base image.Image) {
	if dst == nil || base == nil || b.w <= 0 || b.h <= 0 {
		return
	}
	if !b.enabled {
		draw.Copy(dst, dst.Bounds().Min, base, base.Bounds(), draw.Src, nil)
		return
	}
	canvas := b.canvas(dst, base)
	p := b.params(b.Elapsed())

	b.lens(canvas, base, p)

	// Everything the overlay touches fits in the disk's bounding circle
	// plus the blur margin.
	margin := 24*p.bloom + 4
	area := circleBounds(p.cx, p.cy, p.diskOut+margin).Intersect(canvas.Rect)
	clearRect(b.overlay, area)
	b.drawDisk(p)
	b.bloomOverlay(canvas, area, p)
	b.drawHorizon(canvas, p)
	b.drawChroma(canvas, p)
	b.drawVignette(canvas, p)
	b.drawGrain(canvas, p)

	if canvas != dst {
		draw.Copy(dst, dst.Bounds().Min, canvas, canvas.Rect, draw.Src, nil)
	}
}

// canvas returns dst itself when it can be drawn into directly, or a work
// buffer that is copied to dst at the end
func (b *BlackHole) canvas(dst draw.Image, base image.Image) *image.RGBA {
	if c, ok := dst.(*image.RGBA); ok && c.Rect == image.Rect(0, 0, b.w, b.h) && image.Image(c) != base {
		return c
	}
	if b.work == nil || b.work.Rect.Dx() != b.w || b.work.Rect.Dy() != b.h {
		b.work = image.NewRGBA(image.Rect(0, 0, b.w, b.h))
	}
	return b.work
}

// lens copies base, then remaps every pixel inside the outer cutoff. Ring
// pixels sample base magnified about the centre, the magnification fading
// out towards the cutoff; pixels just inside the horizon sample it shrunk.
func (b *BlackHole) lens(canvas *image.RGBA, base image.Image, p params) {
	draw.Copy(canvas, image.Point{}, base, base.Bounds(), draw.Src, nil)
	area := circleBounds(p.cx, p.cy, p.outer).Intersect(canvas.Rect)
	if area.Empty() {
		return
	}
	src := b.lensSource(base)
	scales := b.ringScales(p)
	dr := (p.outer - p.r) / float64(p.rings)
	inner := p.r * horizonIn
	outer2 := p.outer * p.outer
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := float64(y) + 0.5 - p.cy
		i := canvas.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x, i = x+1, i+4 {
			dx := float64(x) + 0.5 - p.cx
			d2 := dx*dx + dy*dy
			if d2 >= outer2 {
				continue
			}
			var s float64
			switch d := math.Sqrt(d2); {
			case d < inner:
				s = p.innerScale
			case d < p.r:
				continue
			default:
				s = scales[min(int((d-p.r)/dr), len(scales)-1)]
				if s <= 1.001 {
					continue
				}
			}
			sampleBilinear(canvas.Pix[i:i+4:i+4], src, p.cx+dx/s-0.5, p.cy+dy/s-0.5)
		}
	}
}

// lensSource returns base as an RGBA image, copying it into a scratch buffer
// when it is some other type
func (b *BlackHole) lensSource(base image.Image) *image.RGBA {
	if src, ok := base.(*image.RGBA); ok {
		return src
	}
	sr := base.Bounds()
	if b.src == nil || b.src.Rect.Size() != sr.Size() {
		b.src = image.NewRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	}
	draw.Copy(b.src, image.Point{}, base, sr, draw.Src, nil)
	return b.src
}

// ringScales returns the magnification of each lensing annulus, taken at
// the ring's middle radius
func (b *BlackHole) ringScales(p params) []float64 {
	dr := (p.outer - p.r) / float64(p.rings)
	b.scales = b.scales[:0]
	for i := 0; i < p.rings; i++ {
		mid := p.r + (float64(i)+0.5)*dr
		fall := math.Max(0, 1-(mid-p.r)/(p.outer-p.r))
		b.scales = append(b.scales, 1+p.k*math.Pow(fall, 0.85))
	}
	return b.scales
}

// drawDisk paints the tilted, spinning accretion disk with its Doppler
// halves and streaks into the overlay
func (b *BlackHole) drawDisk(p params) {
	var m ebiten.GeoM
	m.Scale(1, p.tilt)
	m.Rotate(p.spin)
	m.Translate(p.cx, p.cy)
	redA := 0.20 + 0.12*p.pulse
	goldA := 0.26 + 0.20*p.pulse
	glow := newRadial(m, 0, 0, p.diskIn*0.9, p.diskOut,
		stop{0, transparent},
		stop{0.45, Hex("#ff3322").withAlpha(redA * 0.5)},
		stop{0.60, Hex("#ff8833").withAlpha(redA)},
		stop{0.78, Hex("#ffee88").withAlpha(goldA)},
		stop{1, transparent},
	)
	fillPath(b.overlay, b.z, newPath(m).circle(0, 0, p.diskOut), glow, 1, blendAdd)

	rIn, rOut := p.diskIn*0.95, p.diskOut*0.98
	fillPath(b.overlay, b.z, newPath(m).sector(0, 0, rIn, rOut, 0, math.Pi),
		solid(dopplerBlue.withAlpha(0.6*p.doppler)), 0.55, blendAdd)
	fillPath(b.overlay, b.z, newPath(m).sector(0, 0, rIn, rOut, math.Pi, 2*math.Pi),
		solid(dopplerRed.withAlpha(0.6*p.doppler)), 0.55, blendAdd)

	for _, s := range streakLayout(p.seed, p.streaks, p.diskIn*1.02, p.diskOut*0.98) {
		var sm ebiten.GeoM
		sm.Rotate(s.angle)
		sm.Translate(s.x, s.y)
		sm.Concat(m)
		g := newLinear(sm, 0, s.length,
			stop{0, transparent},
			stop{0.5, white.withAlpha(0.6)},
			stop{1, transparent},
		)
		fillPath(b.overlay, b.z, newPath(sm).rect(0, -1.1, s.length, 2.2), g, s.alpha(p.pulse), blendAdd)
	}
}

// drawHorizon covers the lensed and bloomed canvas with the near-black
// horizon and adds the pulsing rim highlight on top
func (b *BlackHole) drawHorizon(canvas *image.RGBA, p params) {
	core := newRadial(ebiten.GeoM{}, p.cx, p.cy, 0, p.r*0.98,
		stop{0, black.withAlpha(1)},
		stop{1, black.withAlpha(0.95)},
	)
	fillPath(canvas, b.z, newPath(ebiten.GeoM{}).circle(p.cx, p.cy, p.r), core, 1, blendOver)

	rim := newRadial(ebiten.GeoM{}, p.cx, p.cy, p.r*rimInner, p.r*rimOuter,
		stop{0, transparent},
		stop{0.65, Hex("#ffeeaa").withAlpha(0.18 + 0.12*p.pulse)},
		stop{0.92, white.withAlpha(0.10 + 0.10*p.pulse)},
		stop{1, transparent},
	)
	fillPath(canvas, b.z, newPath(ebiten.GeoM{}).circle(p.cx, p.cy, p.r*rimOuter), rim, 1, blendAdd)
}

// bloomOverlay adds a warm blurred glow of the overlay, then the overlay
// itself
func (b *BlackHole) bloomOverlay(canvas *image.RGBA, area image.Rectangle, p params) {
	if blur := math.Floor(24 * p.bloom); blur > 0 {
		factor := max(2, int(blur/3))
		b.small = blurInto(b.glow, b.overlay, area, factor, b.small)
		addShadow(canvas, b.glow, area, bloomTint.withAlpha(0.55).scale(0.9))
	}
	addImage(canvas, b.overlay, area, 0.9)
}

// drawChroma adds two thin offset arcs in complementary colours
func (b *BlackHole) drawChroma(canvas *image.RGBA, p params) {
	off := 1.5 * p.chroma
	r := p.r * chromaR
	const half = 1.5
	fillPath(canvas, b.z, newPath(ebiten.GeoM{}).ring(p.cx+off, p.cy, r-half, r+half),
		solid(chromaRed.withAlpha(0.12)), 1, blendAdd)
	r *= 1.02
	fillPath(canvas, b.z, newPath(ebiten.GeoM{}).ring(p.cx-off, p.cy, r-half, r+half),
		solid(chromaCyan.withAlpha(0.12)), 1, blendAdd)
}

func (b *BlackHole) drawVignette(canvas *image.RGBA, p params) {
	if p.vignette <= 0 {
		return
	}
	w, h := float64(b.w), float64(b.h)
	maxR := math.Hypot(w, h) / 1.2
	g := newRadial(ebiten.GeoM{}, w/2, h/2, maxR*0.55, maxR,
		stop{0, transparent},
		stop{1, black.withAlpha(p.vignette)},
	)
	fill(canvas, canvas.Rect, nil, g, 1, blendOver)
}

// drawGrain tiles the noise texture over the canvas from a random offset
func (b *BlackHole) drawGrain(canvas *image.RGBA, p params) {
	a := uint8(math.Round(p.grain * 255))
	if a == 0 {
		return
	}
	tw, th := b.grain.Rect.Dx(), b.grain.Rect.Dy()
	ox, oy := b.rng.Intn(tw), b.rng.Intn(th)
	mask := image.NewUniform(color.Alpha{A: a})
	for y := -oy; y < b.h; y += th {
		for x := -ox; x < b.w; x += tw {
			r := image.Rect(x, y, x+tw, y+th)
			draw.DrawMask(canvas, r, b.grain, image.Point{}, mask, image.Point{}, draw.Over)
		}
	}
}

// streak is one short radial highlight on the disk, in disk space
type streak struct {
	x, y   float64
	angle  float64
	length float64
}

// alpha flickers with the pulse
func (s streak) alpha(pulse float64) float64 {
	return 0.08 + 0.10*math.Abs(math.Sin(s.angle*3+pulse*6))
}

// streakLayout places n streaks between rIn and rOut. The layout depends on
// nothing but its arguments.
func streakLayout(seed uint32, n int, rIn, rOut float64) []streak {
	rng := newXorshift(seed)
	out := make([]streak, 0, n)
	for i := 0; i < n; i++ {
		ang := rng.float() * 2 * math.Pi
		length := (0.02 + rng.float()*0.05) * rOut
		r := (rIn+rOut)/2 + (rng.float()-0.5)*rOut*0.05
		sin, cos := math.Sincos(ang)
		out = append(out, streak{
			x:      cos*r - cos*length/2,
			y:      sin*r - sin*length/2,
			angle:  ang,
			length: length,
		})
	}
	return out
}

// xorshift is Marsaglia's 32-bit xorshift generator
type xorshift uint32

func newXorshift(seed uint32) *xorshift {
	if seed == 0 {
		seed = 1337
	}
	x := xorshift(seed)
	return &x
}

// float returns the next value in [0, 1)
func (x *xorshift) float() float64 {
	v := uint32(*x)
	v ^= v << 13
	v ^= v >> 17
	v ^= v << 5
	*x = xorshift(v)
	return float64(v) / 4294967296
}
