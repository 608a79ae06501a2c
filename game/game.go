package game

import (
	"image"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"neonwreckage/graphics"
	"neonwreckage/sound"
)

// Game implements ebiten.Game. The background and black hole are composed
// on the CPU into frame, uploaded once per draw, and the entities are
// stroked on top with the GPU.
type Game struct {
	config   Config
	world    *World
	renderer *Renderer
	input    InputProvider

	background *graphics.Background
	blackHole  *graphics.BlackHole
	sound      *sound.Context

	rng    *rand.Rand
	logger *log.Logger
	watch  *FrameWatch
	debug  DebugState

	// CPU frame and its GPU copy, both sized to the layout
	frame *image.RGBA
	img   *ebiten.Image

	dt float64
}

// Option customises a Game
type Option func(*Game)

// WithBackground uses a prepared background compositor
func WithBackground(b *graphics.Background) Option {
	return func(g *Game) { g.background = b }
}

// WithBlackHole uses a prepared black hole compositor
func WithBlackHole(b *graphics.BlackHole) Option {
	return func(g *Game) { g.blackHole = b }
}

// WithSound routes effects to a sound context
func WithSound(s *sound.Context) Option {
	return func(g *Game) { g.sound = s }
}

// WithInput replaces the keyboard
func WithInput(in InputProvider) Option {
	return func(g *Game) { g.input = in }
}

// WithGameRand seeds spawns, effects and procedural generation
func WithGameRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithGameLogger sets the logger
func WithGameLogger(l *log.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// NewGame creates a new game instance
func NewGame(config Config, opts ...Option) *Game {
	g := &Game{
		config:   config,
		renderer: NewRenderer(),
		input:    KeyboardInput{},
		dt:       1.0 / ebiten.DefaultTPS,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	w, h := config.ScreenWidth, config.ScreenHeight
	if g.background == nil {
		g.background = graphics.NewBackground(w, h, graphics.WithBackgroundRand(g.rng))
	}
	if g.blackHole == nil {
		g.blackHole = graphics.NewBlackHole(w, h, graphics.WithBlackHoleRand(g.rng))
	}

	worldOpts := []WorldOption{
		WithLens(g.blackHole),
		WithRand(g.rng),
		WithLogger(g.logger),
	}
	if g.sound != nil {
		worldOpts = append(worldOpts, WithAudio(g.sound))
	}
	g.world = NewWorld(config, worldOpts...)
	g.watch = NewFrameWatch(12*time.Millisecond, g.logger)
	g.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	return g
}

// World returns the simulation
func (g *Game) World() *World {
	return g.world
}

// Update advances the game by one tick
func (g *Game) Update() error {
	in := g.input.Poll()
	if in.ToggleMute && g.sound != nil {
		g.logger.Debug("mute toggled", "muted", g.sound.ToggleMute())
	}
	if in.ToggleBlackHole {
		g.blackHole.SetEnabled(!g.blackHole.Enabled())
		g.logger.Debug("black hole toggled", "enabled", g.blackHole.Enabled())
	}

	if in.ToggleDebug {
		g.debug.ShowGrid = !g.debug.ShowGrid
	}

	g.world.Step(in, g.dt)

	// Layers drift against the ship, in pixels per nominal frame
	p := g.world.Player
	g.background.SetParallax(p.VX*g.dt, p.VY*g.dt)
	return nil
}

// composeFrame renders the background and the black hole into the CPU frame
func (g *Game) composeFrame() *image.RGBA {
	base := g.background.Compose()
	g.blackHole.Render(g.frame, base)
	return g.frame
}

// Draw renders the game screen
func (g *Game) Draw(screen *ebiten.Image) {
	g.watch.Begin()
	frame := g.composeFrame()
	g.watch.End("compose")
	if frame.Rect.Empty() {
		return
	}
	if g.img == nil || g.img.Bounds() != frame.Rect {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(frame.Rect.Dx(), frame.Rect.Dy())
	}
	g.img.WritePixels(frame.Pix)
	screen.DrawImage(g.img, nil)
	g.renderer.Render(screen, g.world)
	if g.debug.ShowGrid {
		drawDebug(screen, g.world)
	}
}

// Layout follows the window size and forwards changes to the compositors
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.frame.Rect.Dx() || outsideHeight != g.frame.Rect.Dy() {
		g.resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func (g *Game) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	g.logger.Debug("resize", "width", w, "height", h)
	g.background.Resize(w, h)
	g.blackHole.Resize(w, h)
	g.world.Resize(w, h)
	g.frame = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Close silences every voice
func (g *Game) Close() {
	if g.sound != nil {
		g.sound.Close()
	}
}
