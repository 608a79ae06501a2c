package game

import (
	"image/color"
	"math"
	"math/rand"
)

// Particle is a short lived spark from an explosion
type Particle struct {
	X, Y   float64
	VX, VY float64
	Color  color.RGBA
	Life   float64 // seconds left
	Size   float64
}

// FloatText is a score popup drifting up from where it was earned
type FloatText struct {
	X, Y  float64
	VY    float64
	Life  float64
	Text  string
	Color color.RGBA
}

// State is the run's scoreboard plus the short lived effects
type State struct {
	Score    int
	Lives    int
	Level    int
	GameOver bool

	// SlowTime is how long asteroids stay slowed
	SlowTime float64
	// ShieldTime is how long the ship ignores hits
	ShieldTime float64

	Particles  []Particle
	FloatTexts []FloatText
}

// NewState returns the state at the start of a run
func NewState(lives int) State {
	return State{
		Lives: lives,
		Level: 1,
	}
}

const (
	particleDrag  = 0.9 // velocity kept per 1/60 s
	maxParticles  = 2048
	floatTextLife = 1.0
)

// Burst emits n particles from (x, y)
func (s *State) Burst(rng *rand.Rand, x, y float64, n int, speed float64, c color.RGBA) {
	for i := 0; i < n && len(s.Particles) < maxParticles; i++ {
		ang := rng.Float64() * 2 * math.Pi
		v := speed * (0.3 + 0.7*rng.Float64())
		s.Particles = append(s.Particles, Particle{
			X:     x,
			Y:     y,
			VX:    math.Cos(ang) * v,
			VY:    math.Sin(ang) * v,
			Color: c,
			Life:  0.4 + 0.6*rng.Float64(),
			Size:  1 + 2*rng.Float64(),
		})
	}
}

// Popup adds a floating text
func (s *State) Popup(x, y float64, text string, c color.RGBA) {
	s.FloatTexts = append(s.FloatTexts, FloatText{X: x, Y: y, VY: -40, Life: floatTextLife, Text: text, Color: c})
}

// updateEffects ages particles and popups, dropping the dead ones in place
func (s *State) updateEffects(dt float64) {
	drag := math.Pow(particleDrag, dt*60)
	alive := s.Particles[:0]
	for _, p := range s.Particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.X += p.VX * dt
		p.Y += p.VY * dt
		p.VX *= drag
		p.VY *= drag
		alive = append(alive, p)
	}
	s.Particles = alive

	texts := s.FloatTexts[:0]
	for _, t := range s.FloatTexts {
		t.Life -= dt
		if t.Life <= 0 {
			continue
		}
		t.Y += t.VY * dt
		texts = append(texts, t)
	}
	s.FloatTexts = texts
}
