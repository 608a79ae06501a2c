package graphics

import (
	"bytes"
	"image"
	"math"
	"math/rand"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Unix(1700000000, 0)
	return func() time.Time { return t }
}

func newTestBackground(w, h int, opts ...BackgroundOption) *Background {
	base := []BackgroundOption{
		WithBackgroundRand(rand.New(rand.NewSource(1))),
		WithBackgroundClock(fixedClock()),
	}
	return NewBackground(w, h, append(base, opts...)...)
}

// driftOnly has a single empty layer of each kind so offsets are easy to
// predict
func driftOnly() BackgroundConfig {
	cfg := DefaultBackgroundConfig()
	cfg.Stars = []StarLayerConfig{{Count: 0, Speed: 1}}
	cfg.Nebulas = []NebulaLayerConfig{{Blobs: 0, Scale: 1, Speed: 1}}
	cfg.DriftDir = Vec{X: 1, Y: 0}
	return cfg
}

func TestTilePlacements_CoverViewportExactlyOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		tw, th := 3+rng.Intn(20), 3+rng.Intn(20)
		vw, vh := 1+rng.Intn(50), 1+rng.Intn(50)
		ox := (rng.Float64() - 0.5) * 1000
		oy := (rng.Float64() - 0.5) * 1000

		counts := make([]int, vw*vh)
		for _, p := range TilePlacements(ox, oy, tw, th, vw, vh) {
			r := image.Rect(p.X, p.Y, p.X+tw, p.Y+th).Intersect(image.Rect(0, 0, vw, vh))
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					counts[y*vw+x]++
				}
			}
		}
		for idx, c := range counts {
			if c != 1 {
				t.Fatalf("tile %dx%d view %dx%d offset (%.2f, %.2f): pixel %d covered %d times",
					tw, th, vw, vh, ox, oy, idx, c)
			}
		}
	}
}

func TestTilePlacements_DegenerateSizes(t *testing.T) {
	if pts := TilePlacements(0, 0, 0, 10, 10, 10); pts != nil {
		t.Fatalf("expected nil for zero tile, got %v", pts)
	}
	if pts := TilePlacements(0, 0, 10, 10, 0, 10); pts != nil {
		t.Fatalf("expected nil for zero viewport, got %v", pts)
	}
}

func TestBackground_OffsetsStayWrapped(t *testing.T) {
	b := newTestBackground(64, 48)
	b.SetParallax(-7, 3)
	for i := 0; i < 20000; i++ {
		b.Step(3)
	}
	for _, l := range b.Layers() {
		if l.OffsetX < 0 || l.OffsetX >= float64(l.TileWidth) || l.OffsetY < 0 || l.OffsetY >= float64(l.TileHeight) {
			t.Fatalf("%s layer offset (%v, %v) outside tile %dx%d", l.Kind, l.OffsetX, l.OffsetY, l.TileWidth, l.TileHeight)
		}
	}
	for _, l := range append(b.nebulas, b.stars...) {
		if math.Abs(l.ox) >= float64(l.tile.Rect.Dx()) || math.Abs(l.oy) >= float64(l.tile.Rect.Dy()) {
			t.Fatalf("raw offset (%v, %v) grew past the tile", l.ox, l.oy)
		}
	}
}

func TestBackground_StepClampsDT(t *testing.T) {
	cfg := driftOnly()
	cfg.StarParallax, cfg.NebulaParallax = 0, 0

	tests := []struct {
		dt   float64
		want float64
	}{
		{1, 1},
		{100, 3},
		{0.01, 0.5},
		{-5, 0.5},
		{math.NaN(), 0.5},
	}
	for _, tc := range tests {
		b := newTestBackground(400, 300, WithBackgroundConfig(cfg))
		b.Step(tc.dt)
		layers := b.Layers()
		if got := layers[0].OffsetX; math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("dt %v: nebula moved %v, want %v", tc.dt, got, tc.want)
		}
		if got := layers[1].OffsetX; math.Abs(got-2*tc.want) > 1e-9 {
			t.Errorf("dt %v: stars moved %v, want %v", tc.dt, got, 2*tc.want)
		}
	}
}

func TestBackground_ParallaxOpposesVelocity(t *testing.T) {
	cfg := driftOnly()
	cfg.DriftDir = Vec{}
	cfg.NebulaParallax = 0.5
	b := newTestBackground(400, 300, WithBackgroundConfig(cfg))
	b.SetParallax(2, 0)
	b.Step(1)
	nebula := b.Layers()[0]
	// -1 wraps to tileWidth-1
	if want := float64(nebula.TileWidth) - 1; math.Abs(nebula.OffsetX-want) > 1e-9 {
		t.Fatalf("expected offset %v, got %v", want, nebula.OffsetX)
	}

	b.SetParallax(math.NaN(), math.Inf(1))
	before := b.Layers()
	b.Step(1)
	after := b.Layers()
	if after[0].OffsetY != before[0].OffsetY {
		t.Fatal("non-finite velocity should be treated as zero")
	}
}

func TestBackground_ResizeRegeneratesFrame(t *testing.T) {
	b := newTestBackground(64, 48)
	if got := b.Compose().Bounds(); got != image.Rect(0, 0, 64, 48) {
		t.Fatalf("unexpected frame bounds %v", got)
	}
	b.Resize(120, 30)
	if got := b.Frame().Bounds(); got != image.Rect(0, 0, 120, 30) {
		t.Fatalf("expected frame resized to 120x30, got %v", got)
	}
	if got := b.Compose().Bounds(); got != image.Rect(0, 0, 120, 30) {
		t.Fatalf("expected composed frame 120x30, got %v", got)
	}
	for _, l := range b.Layers() {
		if l.Kind == LayerStars && (l.TileWidth != 120 || l.TileHeight != 30) {
			t.Fatalf("star tile not regenerated: %dx%d", l.TileWidth, l.TileHeight)
		}
		if l.Kind == LayerNebula && (l.TileWidth < 120 || l.TileHeight < 30) {
			t.Fatalf("nebula tile smaller than viewport: %dx%d", l.TileWidth, l.TileHeight)
		}
	}
}

func TestBackground_ZeroSizeIgnored(t *testing.T) {
	b := newTestBackground(64, 48)
	b.Resize(0, 10)
	b.Resize(10, -1)
	if w, h := b.Size(); w != 64 || h != 48 {
		t.Fatalf("expected size to stay 64x48, got %dx%d", w, h)
	}

	empty := newTestBackground(0, 0)
	if got := empty.Compose().Bounds(); !got.Empty() {
		t.Fatalf("expected empty frame, got %v", got)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	dst.Pix[0] = 42
	empty.Draw(dst)
	if dst.Pix[0] != 42 {
		t.Fatal("Draw on a zero-size background must not touch dst")
	}
}

func TestBackground_FrameIsOpaque(t *testing.T) {
	b := newTestBackground(96, 64)
	f := b.Compose().(*image.RGBA)
	for i := 3; i < len(f.Pix); i += 4 {
		if f.Pix[i] != 255 {
			t.Fatalf("pixel %d has alpha %d", i/4, f.Pix[i])
		}
	}
}

func TestBackground_Deterministic(t *testing.T) {
	a := newTestBackground(96, 64)
	b := newTestBackground(96, 64)
	for i := 0; i < 5; i++ {
		fa := a.Compose().(*image.RGBA)
		fb := b.Compose().(*image.RGBA)
		if !bytes.Equal(fa.Pix, fb.Pix) {
			t.Fatalf("frame %d differs between identically seeded backgrounds", i)
		}
	}
}

func TestBackground_FrameDoesNotAdvance(t *testing.T) {
	b := newTestBackground(64, 48)
	b.Compose()
	before := b.Layers()
	b.Frame()
	b.Frame()
	after := b.Layers()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Frame advanced layer %d: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestBackground_DrawCopiesFrame(t *testing.T) {
	b := newTestBackground(32, 24)
	dst := image.NewRGBA(image.Rect(0, 0, 32, 24))
	b.Draw(dst)
	if !bytes.Equal(dst.Pix, b.Frame().(*image.RGBA).Pix) {
		t.Fatal("Draw should leave dst equal to the composed frame")
	}
}

func TestBackground_ConfigIsCopied(t *testing.T) {
	b := newTestBackground(32, 24)
	cfg := b.Config()
	cfg.Stars[0].Count = 9999
	cfg.Palette.Stars[0] = Hex("#ff0000")
	if got := b.Config(); got.Stars[0].Count == 9999 || got.Palette.Stars[0] == Hex("#ff0000") {
		t.Fatal("mutating the returned config leaked into the background")
	}
}

func TestBackground_SetConfigRebuildsLayers(t *testing.T) {
	b := newTestBackground(32, 24)
	cfg := b.Config()
	cfg.Stars = cfg.Stars[:1]
	cfg.Nebulas = nil
	b.SetConfig(cfg)
	layers := b.Layers()
	if len(layers) != 1 || layers[0].Kind != LayerStars {
		t.Fatalf("expected one star layer, got %+v", layers)
	}
}

func TestBackground_UpdateConfigKeepsUntouchedFields(t *testing.T) {
	b := newTestBackground(32, 24)
	before := b.Config()
	b.UpdateConfig(func(c *BackgroundConfig) {
		c.StarParallax = 9
	})
	got := b.Config()
	if got.StarParallax != 9 {
		t.Fatalf("expected star parallax 9, got %v", got.StarParallax)
	}
	if got.DriftDir != before.DriftDir || got.NebulaParallax != before.NebulaParallax || got.BaseColor != before.BaseColor {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if len(got.Stars) != len(before.Stars) || len(got.Nebulas) != len(before.Nebulas) {
		t.Fatalf("layer lists changed: %d/%d stars, %d/%d nebulas",
			len(got.Stars), len(before.Stars), len(got.Nebulas), len(before.Nebulas))
	}
	if len(got.Palette.Stars) == 0 || got.Palette.Stars[0] != before.Palette.Stars[0] {
		t.Fatal("star palette was dropped")
	}
	if n := len(b.Layers()); n != len(before.Stars)+len(before.Nebulas) {
		t.Fatalf("expected %d layers after update, got %d", len(before.Stars)+len(before.Nebulas), n)
	}
}

func TestBackground_UpdateConfigNilIsNoOp(t *testing.T) {
	b := newTestBackground(32, 24)
	before := b.Config()
	b.UpdateConfig(nil)
	if got := b.Config(); got.StarParallax != before.StarParallax || len(got.Stars) != len(before.Stars) {
		t.Fatal("nil update changed the configuration")
	}
}

func TestBackground_LayersAreSnapshots(t *testing.T) {
	b := newTestBackground(32, 24)
	layers := b.Layers()
	layers[0].OffsetX = 1234
	if b.Layers()[0].OffsetX == 1234 {
		t.Fatal("Layers should return copies")
	}
}

func TestBackground_ParallaxGrowsWithDepth(t *testing.T) {
	b := newTestBackground(32, 24)
	var prev float64
	for _, l := range b.Layers() {
		if l.Kind != LayerStars {
			continue
		}
		if l.Parallax <= prev {
			t.Fatalf("expected nearer star layers to react more, got %v after %v", l.Parallax, prev)
		}
		prev = l.Parallax
	}
}

func TestWrap(t *testing.T) {
	tests := []struct{ v, n, want float64 }{
		{5, 10, 5},
		{15, 10, 5},
		{-3, 10, 7},
		{-10, 10, 0},
		{3, 0, 0},
	}
	for _, tc := range tests {
		if got := wrap(tc.v, tc.n); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("wrap(%v, %v) = %v, want %v", tc.v, tc.n, got, tc.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#fff", Color{255, 255, 255, 255}, false},
		{"#030510", Color{3, 5, 16, 255}, false},
		{"ff336680", Color{255, 51, 102, 128}, false},
		{"#ff33", Color{}, true},
		{"#zzzzzz", Color{}, true},
	}
	for _, tc := range tests {
		got, err := ParseHex(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseHex(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if s := Hex("#ff336680").String(); s != "#ff336680" {
		t.Errorf("unexpected String %q", s)
	}
	if s := Hex("#abc").String(); s != "#aabbcc" {
		t.Errorf("unexpected String %q", s)
	}
}

func BenchmarkBackgroundCompose(b *testing.B) {
	bg := newTestBackground(1280, 720)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bg.Step(1)
		bg.compose()
	}
}

func TestBackground_ComposeFitsFrameBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size compose")
	}
	bg := newTestBackground(1280, 720)
	bg.Compose()
	const frames = 5
	start := time.Now()
	for i := 0; i < frames; i++ {
		bg.Step(1)
		bg.compose()
	}
	if per := time.Since(start) / frames; per > 500*time.Millisecond {
		t.Fatalf("compose took %v per frame at 1280x720", per)
	}
}
