package game

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Renderer draws entities and the HUD over the composed background
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render draws every live entity, the effects and the HUD
func (r *Renderer) Render(screen *ebiten.Image, w *World) {
	for i := range w.State.Particles {
		p := &w.State.Particles[i]
		c := color.NRGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: uint8(255 * math.Min(1, p.Life*2))}
		vector.FillCircle(screen, float32(p.X), float32(p.Y), float32(p.Size), c, true)
	}

	for _, e := range w.Entities {
		if !e.Active {
			continue
		}
		switch e.Kind {
		case KindAsteroid:
			r.drawAsteroid(screen, e)
		case KindBullet:
			clr := colorShip
			if e.Owner == KindBoss {
				clr = colorBoss
			}
			vector.FillCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius), clr, true)
		case KindBoss:
			r.drawBoss(screen, e)
		case KindPowerup:
			pulse := 0.7 + 0.3*math.Sin(e.Age*6)
			vector.StrokeCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius*pulse), 2, colorPowerup, true)
		}
	}

	if !w.State.GameOver {
		r.drawShip(screen, w)
	}

	for _, t := range w.State.FloatTexts {
		ebitenutil.DebugPrintAt(screen, t.Text, int(t.X)-3*len(t.Text), int(t.Y))
	}
	r.drawHUD(screen, w)
}

// drawAsteroid draws a rough polygon whose vertex radii come from the ID so
// the shape is stable between frames
func (r *Renderer) drawAsteroid(screen *ebiten.Image, e *Entity) {
	const sides = 9
	var px, py [sides]float32
	for j := 0; j < sides; j++ {
		jag := 0.8 + 0.2*math.Sin(float64(e.ID*7+uint64(j)*13))
		ang := e.Rotation + float64(j)*2*math.Pi/sides
		px[j] = float32(e.X + math.Cos(ang)*e.Radius*jag)
		py[j] = float32(e.Y + math.Sin(ang)*e.Radius*jag)
	}
	for j := 0; j < sides; j++ {
		k := (j + 1) % sides
		vector.StrokeLine(screen, px[j], py[j], px[k], py[k], 2, colorAsteroid, true)
	}
}

func (r *Renderer) drawShip(screen *ebiten.Image, w *World) {
	p := w.Player
	// Blink while invulnerable
	if w.invuln > 0 && int(w.invuln*10)%2 == 0 {
		return
	}
	nose := func(ang, dist float64) (float32, float32) {
		return float32(p.X + math.Cos(p.Rotation+ang)*dist), float32(p.Y + math.Sin(p.Rotation+ang)*dist)
	}
	x0, y0 := nose(0, p.Radius*1.3)
	x1, y1 := nose(2.5, p.Radius)
	x2, y2 := nose(-2.5, p.Radius)
	vector.StrokeLine(screen, x0, y0, x1, y1, 2, colorShip, true)
	vector.StrokeLine(screen, x1, y1, x2, y2, 2, colorShip, true)
	vector.StrokeLine(screen, x2, y2, x0, y0, 2, colorShip, true)

	if w.State.ShieldTime > 0 {
		vector.StrokeCircle(screen, float32(p.X), float32(p.Y), float32(p.Radius*1.8), 1.5, colorPowerup, true)
	}
}

func (r *Renderer) drawBoss(screen *ebiten.Image, e *Entity) {
	vector.StrokeCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius), 3, colorBoss, true)
	vector.StrokeCircle(screen, float32(e.X), float32(e.Y), float32(e.Radius*0.5), 2, colorBoss, true)

	// Health bar
	barWidth := e.Radius * 2
	barX := e.X - barWidth/2
	barY := e.Y - e.Radius - 10
	vector.FillRect(screen, float32(barX), float32(barY), float32(barWidth), 4, color.RGBA{R: 100, A: 255}, true)
	frac := math.Max(0, e.Health/e.MaxHealth)
	vector.FillRect(screen, float32(barX), float32(barY), float32(barWidth*frac), 4, colorBoss, true)
}

func (r *Renderer) drawHUD(screen *ebiten.Image, w *World) {
	s := &w.State
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SCORE %d   LIVES %d   LEVEL %d", s.Score, s.Lives, s.Level), 10, 10)
	if s.SlowTime > 0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SLOW %.1f", s.SlowTime), 10, 26)
	}
	if s.ShieldTime > 0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("SHIELD %.1f", s.ShieldTime), 10, 42)
	}
	if s.GameOver {
		msg := "GAME OVER - press R to restart"
		b := screen.Bounds()
		ebitenutil.DebugPrintAt(screen, msg, b.Dx()/2-3*len(msg), b.Dy()/2)
	}
}
