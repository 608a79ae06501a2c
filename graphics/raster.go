package graphics

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// blend selects how a paint is composited onto a raster
type blend int

const (
	// blendOver is source-over
	blendOver blend = iota
	// blendAdd is the canvas "lighter" operator: a saturating add of
	// premultiplied channels
	blendAdd
)

// path collects closed polygons in destination space. Points are given in a
// local frame and mapped through m as they are added; the zero GeoM leaves
// them where they are.
type path struct {
	m     ebiten.GeoM
	polys [][][2]float64
}

func newPath(m ebiten.GeoM) *path {
	return &path{m: m}
}

// arcSteps picks a segment count that keeps chords under a few pixels
func arcSteps(r, sweep float64) int {
	n := int(math.Ceil(math.Abs(sweep) * r / 4))
	return max(8, min(n, 256))
}

// arc appends an arc to the current polygon, from a0 to a1 (radians)
func (p *path) arc(cx, cy, r, a0, a1 float64) {
	if len(p.polys) == 0 {
		p.polys = append(p.polys, nil)
	}
	n := arcSteps(r, a1-a0)
	cur := &p.polys[len(p.polys)-1]
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		x, y := p.m.Apply(cx+math.Cos(a)*r, cy+math.Sin(a)*r)
		*cur = append(*cur, [2]float64{x, y})
	}
}

// closePath ends the current polygon; the next arc starts a new one
func (p *path) closePath() {
	p.polys = append(p.polys, nil)
}

func (p *path) circle(cx, cy, r float64) *path {
	p.arc(cx, cy, r, 0, 2*math.Pi)
	p.closePath()
	return p
}

// ring is an annulus. The inner circle winds the opposite way so the
// rasterizer's accumulated coverage cancels inside it.
func (p *path) ring(cx, cy, rIn, rOut float64) *path {
	p.arc(cx, cy, rOut, 0, 2*math.Pi)
	p.closePath()
	if rIn > 0 {
		p.arc(cx, cy, rIn, 2*math.Pi, 0)
		p.closePath()
	}
	return p
}

// sector is the part of an annulus between angles a0 and a1
func (p *path) sector(cx, cy, rIn, rOut, a0, a1 float64) *path {
	p.arc(cx, cy, rOut, a0, a1)
	p.arc(cx, cy, rIn, a1, a0)
	p.closePath()
	return p
}

func (p *path) rect(x, y, w, h float64) *path {
	for _, pt := range [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}} {
		tx, ty := p.m.Apply(pt[0], pt[1])
		if len(p.polys) == 0 {
			p.polys = append(p.polys, nil)
		}
		p.polys[len(p.polys)-1] = append(p.polys[len(p.polys)-1], [2]float64{tx, ty})
	}
	p.closePath()
	return p
}

// bounds returns the integer rectangle covering every point of the path
func (p *path) bounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range p.polys {
		for _, pt := range poly {
			minX = math.Min(minX, pt[0])
			minY = math.Min(minY, pt[1])
			maxX = math.Max(maxX, pt[0])
			maxY = math.Max(maxY, pt[1])
		}
	}
	if minX > maxX {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// mask rasterizes the path into an alpha mask whose Rect is in destination
// coordinates, clipped to clip. It returns nil when nothing is visible.
func (p *path) mask(z *vector.Rasterizer, clip image.Rectangle) *image.Alpha {
	r := p.bounds().Intersect(clip)
	if r.Empty() {
		return nil
	}
	z.Reset(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, poly := range p.polys {
		if len(poly) < 3 {
			continue
		}
		z.MoveTo(float32(poly[0][0]-ox), float32(poly[0][1]-oy))
		for _, pt := range poly[1:] {
			z.LineTo(float32(pt[0]-ox), float32(pt[1]-oy))
		}
		z.ClosePath()
	}
	m := image.NewAlpha(r)
	z.DrawOp = draw.Src
	z.Draw(m, r, image.Opaque, image.Point{})
	return m
}

// paint yields a premultiplied colour for a destination pixel centre
type paint interface {
	at(x, y float64) rgba
}

type solid rgba

func (s solid) at(_, _ float64) rgba { return rgba(s) }

type stop struct {
	at float64
	c  rgba
}

func sample(stops []stop, t float64) rgba {
	if len(stops) == 0 {
		return transparent
	}
	if t <= stops[0].at {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			s0, s1 := stops[i-1], stops[i]
			span := s1.at - s0.at
			if span <= 0 {
				return s1.c
			}
			return lerpRGBA(s0.c, s1.c, (t-s0.at)/span)
		}
	}
	return stops[len(stops)-1].c
}

// inverse maps destination space back into m's local frame. A singular m
// leaves points unchanged.
func inverse(m ebiten.GeoM) ebiten.GeoM {
	if !m.IsInvertible() {
		return ebiten.GeoM{}
	}
	m.Invert()
	return m
}

// radialPaint is a concentric radial gradient between r0 and r1 in a local
// frame; inv maps destination space back to that frame.
type radialPaint struct {
	inv    ebiten.GeoM
	cx, cy float64
	r0, r1 float64
	stops  []stop
}

func newRadial(m ebiten.GeoM, cx, cy, r0, r1 float64, stops ...stop) *radialPaint {
	return &radialPaint{inv: inverse(m), cx: cx, cy: cy, r0: r0, r1: r1, stops: stops}
}

func (g *radialPaint) at(x, y float64) rgba {
	lx, ly := g.inv.Apply(x, y)
	d := math.Hypot(lx-g.cx, ly-g.cy)
	span := g.r1 - g.r0
	if span <= 0 {
		if d <= g.r0 {
			return g.stops[0].c
		}
		return g.stops[len(g.stops)-1].c
	}
	return sample(g.stops, (d-g.r0)/span)
}

// linearPaint runs along the local x axis from x0 to x1
type linearPaint struct {
	inv    ebiten.GeoM
	x0, x1 float64
	stops  []stop
}

func newLinear(m ebiten.GeoM, x0, x1 float64, stops ...stop) *linearPaint {
	return &linearPaint{inv: inverse(m), x0: x0, x1: x1, stops: stops}
}

func (g *linearPaint) at(x, y float64) rgba {
	lx, _ := g.inv.Apply(x, y)
	if g.x1 == g.x0 {
		return g.stops[0].c
	}
	return sample(g.stops, (lx-g.x0)/(g.x1-g.x0))
}

// fill composites p onto dst through mask with an extra alpha multiplier.
// A nil mask covers r fully.
func fill(dst *image.RGBA, r image.Rectangle, mask *image.Alpha, p paint, alpha float64, mode blend) {
	if mask != nil {
		r = r.Intersect(mask.Rect)
	}
	r = r.Intersect(dst.Rect)
	if r.Empty() || alpha <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, row = x+1, row+4 {
			cov := alpha
			if mask != nil {
				m := mask.Pix[mask.PixOffset(x, y)]
				if m == 0 {
					continue
				}
				cov *= float64(m) / 255
			}
			s := p.at(float64(x)+0.5, float64(y)+0.5)
			if s.a <= 0 && mode == blendOver {
				continue
			}
			composite(dst.Pix[row:row+4:row+4], s.scale(cov), mode)
		}
	}
}

// fillPath rasterizes p and fills it with pt; nothing happens when the path
// lies outside dst
func fillPath(dst *image.RGBA, z *vector.Rasterizer, p *path, pt paint, alpha float64, mode blend) {
	m := p.mask(z, dst.Rect)
	if m == nil {
		return
	}
	fill(dst, m.Rect, m, pt, alpha, mode)
}

// composite writes one premultiplied source pixel onto one RGBA pixel
func composite(px []uint8, s rgba, mode blend) {
	switch mode {
	case blendAdd:
		px[0] = addChannel(px[0], s.r)
		px[1] = addChannel(px[1], s.g)
		px[2] = addChannel(px[2], s.b)
		px[3] = addChannel(px[3], s.a)
	default:
		k := 1 - s.a
		px[0] = toByte(s.r + float64(px[0])/255*k)
		px[1] = toByte(s.g + float64(px[1])/255*k)
		px[2] = toByte(s.b + float64(px[2])/255*k)
		px[3] = toByte(s.a + float64(px[3])/255*k)
	}
}

func addChannel(d uint8, s float64) uint8 {
	return toByte(float64(d)/255 + s)
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// addImage adds src onto dst inside r, scaled by alpha
func addImage(dst, src *image.RGBA, r image.Rectangle, alpha float64) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if r.Empty() || alpha <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, di, si = x+1, di+4, si+4 {
			if src.Pix[si+3] == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				dst.Pix[di+c] = toByte(float64(dst.Pix[di+c])/255 + float64(src.Pix[si+c])/255*alpha)
			}
		}
	}
}

// addShadow adds tint, weighted by the alpha channel of src, onto dst
func addShadow(dst, src *image.RGBA, r image.Rectangle, tint rgba) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, di, si = x+1, di+4, si+4 {
			a := float64(src.Pix[si+3]) / 255
			if a == 0 {
				continue
			}
			composite(dst.Pix[di:di+4:di+4], tint.scale(a), blendAdd)
		}
	}
}

// clearRect zeroes dst inside r
func clearRect(dst *image.RGBA, r image.Rectangle) {
	r = r.Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := dst.PixOffset(r.Min.X, y)
		clear(dst.Pix[i : i+4*r.Dx()])
	}
}

// blurInto writes a soft blur of src (restricted to r) into dst by scaling
// down by factor and back up with bilinear filtering. small is scratch space
// and is reallocated when too small; the possibly new scratch is returned.
func blurInto(dst, src *image.RGBA, r image.Rectangle, factor int, small *image.RGBA) *image.RGBA {
	r = r.Intersect(src.Rect).Intersect(dst.Rect)
	if r.Empty() {
		return small
	}
	if factor < 2 {
		draw.Copy(dst, r.Min, src, r, draw.Src, nil)
		return small
	}
	sw := max(1, r.Dx()/factor)
	sh := max(1, r.Dy()/factor)
	if small == nil || small.Rect.Dx() < sw || small.Rect.Dy() < sh {
		small = image.NewRGBA(image.Rect(0, 0, sw, sh))
	}
	sr := image.Rect(0, 0, sw, sh)
	draw.BiLinear.Scale(small, sr, src, r, draw.Src, nil)
	draw.BiLinear.Scale(dst, r, small, sr, draw.Src, nil)
	return small
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// circleBounds is the integer bounding box of a circle
func circleBounds(cx, cy, r float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r))+1, int(math.Ceil(cy+r))+1,
	)
}

// sampleBilinear writes the colour of src at (fx, fy) into px. Coordinates
// are relative to src.Rect.Min with pixel centres on integers; samples off
// the image clamp to its edge.
func sampleBilinear(px []uint8, src *image.RGBA, fx, fy float64) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	fx = clamp(fx, 0, float64(w-1))
	fy = clamp(fy, 0, float64(h-1))
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	ax, ay := fx-float64(x0), fy-float64(y0)
	i00, i10 := y0*src.Stride+x0*4, y0*src.Stride+x1*4
	i01, i11 := y1*src.Stride+x0*4, y1*src.Stride+x1*4
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-ax) + float64(src.Pix[i10+c])*ax
		bot := float64(src.Pix[i01+c])*(1-ax) + float64(src.Pix[i11+c])*ax
		px[c] = uint8(top*(1-ay) + bot*ay + 0.5)
	}
}
