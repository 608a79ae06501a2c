package game

import (
	"math"
)

// Kind identifies the type of entity
type Kind int

const (
	KindPlayer Kind = iota
	KindAsteroid
	KindBullet
	KindBoss
	KindPowerup
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindAsteroid:
		return "asteroid"
	case KindBullet:
		return "bullet"
	case KindBoss:
		return "boss"
	case KindPowerup:
		return "powerup"
	}
	return "unknown"
}

// Entity is anything that moves and collides. Entities are plain values
// recycled through pools; Active false means the slot is free.
type Entity struct {
	// ID is unique among live entities and orders collision pairs
	ID uint64

	Kind Kind

	// Position in screen coordinates
	X, Y float64

	// Velocity in pixels per second
	VX, VY float64

	// Rotation in radians
	Rotation float64

	// Spin in radians per second
	Spin float64

	// Health points (0 or less means dead)
	Health    float64
	MaxHealth float64

	// Collision radius in pixels
	Radius float64

	// Whether this entity is active (used for pooling)
	Active bool

	// Time since creation in seconds
	Age float64

	// Lifetime in seconds; zero lives forever
	Lifetime float64

	// Owner is who fired a bullet
	Owner Kind

	// Boss holds the roster entry for a boss
	Boss *BossType

	// Powerup kind carried by a powerup entity
	Powerup string
}

// Position implements collision.Body
func (e *Entity) Position() (float64, float64) {
	return e.X, e.Y
}

// IsColliding checks if this entity overlaps another
func (e *Entity) IsColliding(other *Entity) bool {
	dx := e.X - other.X
	dy := e.Y - other.Y
	r := e.Radius + other.Radius
	return dx*dx+dy*dy < r*r
}

// DistanceTo calculates the distance to another entity
func (e *Entity) DistanceTo(other *Entity) float64 {
	return math.Hypot(e.X-other.X, e.Y-other.Y)
}

// Speed returns the magnitude of the velocity
func (e *Entity) Speed() float64 {
	return math.Hypot(e.VX, e.VY)
}

// Expired reports whether a finite lifetime has run out
func (e *Entity) Expired() bool {
	return e.Lifetime > 0 && e.Age >= e.Lifetime
}

// Reset clears an entity for reuse
func (e *Entity) Reset() {
	*e = Entity{}
}

// wrapPosition keeps the entity on a w×h torus
func (e *Entity) wrapPosition(w, h float64) {
	if w > 0 {
		e.X = math.Mod(e.X, w)
		if e.X < 0 {
			e.X += w
		}
	}
	if h > 0 {
		e.Y = math.Mod(e.Y, h)
		if e.Y < 0 {
			e.Y += h
		}
	}
}
