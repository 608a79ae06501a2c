package game

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"neonwreckage/collision"
)

// Audio is the set of sound hooks the world triggers
type Audio interface {
	Shoot()
	Explosion(intensity float64)
	BossEntrance()
	BossDefeat()
	SetThrust(active bool, intensity float64)
	PowerupPickup(kind string)
	PowerupExpire(kind string)
}

// Lens is the black hole overlay. A boss arriving switches it on, its
// defeat switches it off.
type Lens interface {
	SetEnabled(bool)
	Enabled() bool
}

type nopAudio struct{}

func (nopAudio) Shoot()                  {}
func (nopAudio) Explosion(float64)       {}
func (nopAudio) BossEntrance()           {}
func (nopAudio) BossDefeat()             {}
func (nopAudio) SetThrust(bool, float64) {}
func (nopAudio) PowerupPickup(string)    {}
func (nopAudio) PowerupExpire(string)    {}

type nopLens struct{ on bool }

func (l *nopLens) SetEnabled(v bool) { l.on = v }
func (l *nopLens) Enabled() bool     { return l.on }

// Powerup kinds
const (
	PowerupSlow   = "slow"
	PowerupShield = "shield"
)

var (
	colorAsteroid = color.RGBA{R: 255, G: 170, B: 90, A: 255}
	colorBoss     = color.RGBA{R: 255, G: 80, B: 160, A: 255}
	colorShip     = color.RGBA{R: 120, G: 230, B: 255, A: 255}
	colorScore    = color.RGBA{R: 255, G: 240, B: 160, A: 255}
	colorPowerup  = color.RGBA{R: 160, G: 255, B: 170, A: 255}
)

// World owns every entity, the broad phase and the run state
type World struct {
	Config Config
	State  State

	Player   *Entity
	Entities []*Entity

	hash    *collision.SpatialHash[*Entity]
	checked map[[2]uint64]bool
	near    []*Entity

	bullets *Pool[*Entity]
	nextID  uint64

	fireTimer     float64
	bossFireTimer float64
	invuln        float64

	// bossCleared is set once this level's boss is down
	bossCleared bool

	audio  Audio
	lens   Lens
	rng    *rand.Rand
	logger *log.Logger
}

// WorldOption customises a World
type WorldOption func(*World)

// WithAudio routes sound hooks to a
func WithAudio(a Audio) WorldOption {
	return func(w *World) { w.audio = a }
}

// WithLens lets bosses drive the black hole overlay
func WithLens(l Lens) WorldOption {
	return func(w *World) { w.lens = l }
}

// WithRand sets the random source for spawns and effects
func WithRand(rng *rand.Rand) WorldOption {
	return func(w *World) { w.rng = rng }
}

// WithLogger sets the logger wave and boss transitions are reported to
func WithLogger(l *log.Logger) WorldOption {
	return func(w *World) { w.logger = l }
}

// NewWorld creates a world and spawns the first wave
func NewWorld(cfg Config, opts ...WorldOption) *World {
	w := &World{
		Config:  cfg,
		hash:    collision.NewSpatialHash[*Entity](cfg.CellSize),
		checked: make(map[[2]uint64]bool, 256),
		bullets: NewPool(func() *Entity { return &Entity{} }),
		audio:   nopAudio{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.lens == nil {
		w.lens = &nopLens{}
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	w.Reset()
	return w
}

// Reset starts a new run
func (w *World) Reset() {
	for _, e := range w.Entities {
		if e.Kind == KindBullet {
			e.Reset()
			w.bullets.Release(e)
		}
	}
	w.Entities = w.Entities[:0]
	w.State = NewState(w.Config.StartLives)
	w.fireTimer, w.bossFireTimer = 0, 0
	w.bossCleared = false
	w.lens.SetEnabled(false)
	w.audio.SetThrust(false, 0)

	w.Player = w.spawn(KindPlayer)
	w.Player.Radius = w.Config.PlayerRadius
	w.Player.Health = 1
	w.centerPlayer()
	w.spawnWave()
}

// Resize changes the playfield bounds. Entities outside wrap back in on
// their next move.
func (w *World) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.Config.ScreenWidth, w.Config.ScreenHeight = width, height
}

// Hash exposes the broad phase, rebuilt every step
func (w *World) Hash() *collision.SpatialHash[*Entity] {
	return w.hash
}

// Boss returns the live boss, if any
func (w *World) Boss() *Entity {
	for _, e := range w.Entities {
		if e.Active && e.Kind == KindBoss {
			return e
		}
	}
	return nil
}

// Count returns how many live entities of kind k exist
func (w *World) Count(k Kind) int {
	n := 0
	for _, e := range w.Entities {
		if e.Active && e.Kind == k {
			n++
		}
	}
	return n
}

// Invulnerable reports whether hits are currently ignored
func (w *World) Invulnerable() bool {
	return w.invuln > 0 || w.State.ShieldTime > 0
}

// BulletPool exposes the bullet free list
func (w *World) BulletPool() *Pool[*Entity] {
	return w.bullets
}

func (w *World) spawn(k Kind) *Entity {
	var e *Entity
	if k == KindBullet {
		e = w.bullets.Acquire()
	} else {
		e = &Entity{}
	}
	w.nextID++
	*e = Entity{ID: w.nextID, Kind: k, Active: true, Health: 1, MaxHealth: 1}
	w.Entities = append(w.Entities, e)
	return e
}

func (w *World) centerPlayer() {
	p := w.Player
	p.X = float64(w.Config.ScreenWidth) / 2
	p.Y = float64(w.Config.ScreenHeight) / 2
	p.VX, p.VY = 0, 0
	p.Rotation = -math.Pi / 2
	w.invuln = w.Config.InvulnTime
}

// Step advances the world by dt seconds
func (w *World) Step(in Input, dt float64) {
	if math.IsNaN(dt) || dt <= 0 {
		return
	}
	dt = math.Min(dt, 0.1)

	if w.State.GameOver {
		if in.Restart {
			w.logger.Info("restarting")
			w.Reset()
		}
		w.State.updateEffects(dt)
		return
	}

	w.updateTimers(dt)
	w.updatePlayer(in, dt)
	w.updateBoss(dt)
	w.moveEntities(dt)
	w.resolveCollisions()
	w.compact()
	w.State.updateEffects(dt)
	w.advanceWave()
}

func (w *World) updateTimers(dt float64) {
	w.fireTimer -= dt
	w.invuln = math.Max(0, w.invuln-dt)
	if w.State.SlowTime > 0 {
		w.State.SlowTime -= dt
		if w.State.SlowTime <= 0 {
			w.State.SlowTime = 0
			w.audio.PowerupExpire(PowerupSlow)
		}
	}
	if w.State.ShieldTime > 0 {
		w.State.ShieldTime -= dt
		if w.State.ShieldTime <= 0 {
			w.State.ShieldTime = 0
			w.audio.PowerupExpire(PowerupShield)
		}
	}
}

func (w *World) updatePlayer(in Input, dt float64) {
	p := w.Player
	dx, dy := in.direction()
	p.VX += dx * w.Config.PlayerAccel * dt
	p.VY += dy * w.Config.PlayerAccel * dt

	drag := math.Pow(w.Config.PlayerDrag, dt)
	p.VX *= drag
	p.VY *= drag
	if s := p.Speed(); s > w.Config.PlayerMaxSpeed {
		p.VX *= w.Config.PlayerMaxSpeed / s
		p.VY *= w.Config.PlayerMaxSpeed / s
	}
	if in.Thrusting() {
		p.Rotation = math.Atan2(dy, dx)
	}
	w.audio.SetThrust(in.Thrusting(), p.Speed()/w.Config.PlayerMaxSpeed)

	if in.Fire && w.fireTimer <= 0 {
		w.fireTimer = w.Config.FireCooldown
		w.fire(p, p.Rotation, w.Config.BulletSpeed)
		w.audio.Shoot()
	}
}

// fire launches a bullet from the edge of the shooter
func (w *World) fire(from *Entity, angle, speed float64) {
	if w.Count(KindBullet) >= w.Config.MaxBullets {
		return
	}
	b := w.spawn(KindBullet)
	b.Owner = from.Kind
	b.Radius = w.Config.BulletRadius
	b.X = from.X + math.Cos(angle)*from.Radius
	b.Y = from.Y + math.Sin(angle)*from.Radius
	b.VX = from.VX + math.Cos(angle)*speed
	b.VY = from.VY + math.Sin(angle)*speed
	b.Rotation = angle
	b.Lifetime = w.Config.BulletLifetime
}

func (w *World) updateBoss(dt float64) {
	boss := w.Boss()
	if boss == nil {
		return
	}
	// Lissajous drift around the centre of the playfield
	cx := float64(w.Config.ScreenWidth) / 2
	cy := float64(w.Config.ScreenHeight) / 2
	t := boss.Age
	tx := cx + math.Sin(t*0.7)*float64(w.Config.ScreenWidth)*0.3
	ty := cy + math.Sin(t*1.1)*float64(w.Config.ScreenHeight)*0.25
	boss.VX = (tx - boss.X) * 1.5
	boss.VY = (ty - boss.Y) * 1.5

	w.bossFireTimer -= dt
	if w.bossFireTimer <= 0 {
		w.bossFireTimer = w.Config.BossFireCooldown
		aim := math.Atan2(w.Player.Y-boss.Y, w.Player.X-boss.X)
		w.fire(boss, aim, w.Config.BossBulletSpeed)
	}
}

func (w *World) moveEntities(dt float64) {
	sw, sh := float64(w.Config.ScreenWidth), float64(w.Config.ScreenHeight)
	slow := 1.0
	if w.State.SlowTime > 0 {
		slow = w.Config.SlowFactor
	}
	for _, e := range w.Entities {
		if !e.Active {
			continue
		}
		k := 1.0
		if e.Kind == KindAsteroid {
			k = slow
		}
		e.Age += dt
		e.X += e.VX * dt * k
		e.Y += e.VY * dt * k
		e.Rotation += e.Spin * dt * k
		e.wrapPosition(sw, sh)
		if e.Expired() {
			e.Active = false
		}
	}
}

// compact drops inactive entities and hands bullets back to the pool
func (w *World) compact() {
	alive := w.Entities[:0]
	for _, e := range w.Entities {
		if e.Active {
			alive = append(alive, e)
			continue
		}
		if e.Kind == KindBullet {
			e.Reset()
			w.bullets.Release(e)
		}
	}
	clear(w.Entities[len(alive):])
	w.Entities = alive
}

// advanceWave spawns the boss or the next wave once the field is clear
func (w *World) advanceWave() {
	if w.State.GameOver || w.Count(KindAsteroid) > 0 || w.Boss() != nil {
		return
	}
	if w.Config.BossLevel(w.State.Level) && !w.bossCleared {
		w.spawnBoss()
		return
	}
	w.State.Level++
	w.bossCleared = false
	w.spawnWave()
}

func (w *World) spawnWave() {
	n := w.Config.WaveSize(w.State.Level)
	for i := 0; i < n; i++ {
		x, y := w.edgePoint()
		ang := w.rng.Float64() * 2 * math.Pi
		speed := w.Config.AsteroidSpeed * (0.6 + 0.8*w.rng.Float64())
		w.spawnAsteroid(x, y, w.Config.AsteroidRadius, math.Cos(ang)*speed, math.Sin(ang)*speed)
	}
	w.logger.Info("wave", "level", w.State.Level, "asteroids", n)
}

func (w *World) spawnAsteroid(x, y, r, vx, vy float64) *Entity {
	a := w.spawn(KindAsteroid)
	a.X, a.Y = x, y
	a.VX, a.VY = vx, vy
	a.Radius = r
	a.Spin = (w.rng.Float64() - 0.5) * 2
	a.Rotation = w.rng.Float64() * 2 * math.Pi
	return a
}

// edgePoint picks a spawn point on the playfield border, away from the
// player's starting position
func (w *World) edgePoint() (float64, float64) {
	sw, sh := float64(w.Config.ScreenWidth), float64(w.Config.ScreenHeight)
	t := w.rng.Float64()
	switch w.rng.Intn(4) {
	case 0:
		return t * sw, 0
	case 1:
		return t * sw, sh - 1
	case 2:
		return 0, t * sh
	default:
		return sw - 1, t * sh
	}
}

func (w *World) spawnBoss() {
	bt := PickBoss(w.State.Level)
	boss := w.spawn(KindBoss)
	boss.Boss = bt
	boss.Radius = w.Config.BossRadius
	boss.Health = BossHealth(bt, w.State.Level)
	boss.MaxHealth = boss.Health
	boss.X = float64(w.Config.ScreenWidth) / 2
	boss.Y = float64(w.Config.ScreenHeight) * 0.2
	w.bossFireTimer = w.Config.BossFireCooldown

	w.lens.SetEnabled(true)
	w.audio.BossEntrance()
	w.State.Popup(boss.X, boss.Y-boss.Radius-12, bt.Name, colorBoss)
	w.logger.Info("boss spawned", "boss", bt.Name, "level", w.State.Level, "health", boss.Health)
}

func (w *World) defeatBoss(boss *Entity) {
	boss.Active = false
	w.bossCleared = true
	points := int(boss.MaxHealth) * 10
	w.State.Score += points
	w.State.Burst(w.rng, boss.X, boss.Y, 120, 320, colorBoss)
	w.State.Popup(boss.X, boss.Y, fmt.Sprintf("+%d", points), colorScore)

	w.lens.SetEnabled(false)
	w.audio.BossDefeat()
	w.logger.Info("boss defeated", "boss", boss.Boss.Name, "level", w.State.Level, "score", w.State.Score)
}

// destroyAsteroid splits a into two halves when it is big enough
func (w *World) destroyAsteroid(a *Entity) {
	a.Active = false
	points := int(100 * w.Config.AsteroidRadius / math.Max(1, a.Radius) / 2)
	w.State.Score += points
	w.State.Popup(a.X, a.Y, fmt.Sprintf("+%d", points), colorScore)
	w.State.Burst(w.rng, a.X, a.Y, int(a.Radius), 180, colorAsteroid)
	w.audio.Explosion(a.Radius / w.Config.AsteroidRadius)

	if r := a.Radius / 2; r >= w.Config.AsteroidMinRadius {
		ang := w.rng.Float64() * 2 * math.Pi
		speed := math.Max(a.Speed(), w.Config.AsteroidSpeed) * 1.3
		for _, s := range []float64{1, -1} {
			vx, vy := math.Cos(ang)*speed*s, math.Sin(ang)*speed*s
			w.spawnAsteroid(a.X, a.Y, r, vx, vy)
		}
	}
	if w.rng.Float64() < w.Config.PowerupChance {
		w.dropPowerup(a.X, a.Y)
	}
}

func (w *World) dropPowerup(x, y float64) {
	p := w.spawn(KindPowerup)
	p.X, p.Y = x, y
	p.Radius = 10
	p.Lifetime = w.Config.PowerupLifetime
	p.Powerup = PowerupSlow
	if w.rng.Intn(2) == 1 {
		p.Powerup = PowerupShield
	}
}

func (w *World) collectPowerup(p *Entity) {
	p.Active = false
	switch p.Powerup {
	case PowerupSlow:
		w.State.SlowTime = w.Config.SlowDuration
	case PowerupShield:
		w.State.ShieldTime = w.Config.ShieldDuration
	}
	w.State.Popup(p.X, p.Y, p.Powerup, colorPowerup)
	w.audio.PowerupPickup(p.Powerup)
}

// hitPlayer costs a life unless the ship is protected
func (w *World) hitPlayer() {
	if w.Invulnerable() || w.State.GameOver {
		return
	}
	p := w.Player
	w.State.Lives--
	w.State.Burst(w.rng, p.X, p.Y, 60, 260, colorShip)
	w.audio.Explosion(1.2)
	if w.State.Lives <= 0 {
		w.State.Lives = 0
		w.State.GameOver = true
		w.audio.SetThrust(false, 0)
		w.logger.Info("game over", "score", w.State.Score, "level", w.State.Level)
		return
	}
	w.logger.Debug("ship lost", "lives", w.State.Lives)
	w.centerPlayer()
}
