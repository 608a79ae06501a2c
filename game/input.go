package game

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Input is one frame of player intent
type Input struct {
	// MoveX and MoveY are the desired direction, each in [-1, 1]
	MoveX, MoveY float64

	Fire    bool
	Restart bool

	// Edge triggered toggles
	ToggleMute      bool
	ToggleBlackHole bool
	ToggleDebug     bool
}

// Thrusting reports whether any movement key is held
func (in Input) Thrusting() bool {
	return in.MoveX != 0 || in.MoveY != 0
}

// direction returns the normalised movement vector
func (in Input) direction() (float64, float64) {
	l := math.Hypot(in.MoveX, in.MoveY)
	if l == 0 {
		return 0, 0
	}
	return in.MoveX / l, in.MoveY / l
}

// InputProvider produces input once per tick
type InputProvider interface {
	Poll() Input
}

// KeyboardInput reads arrows/WASD, Space, M, B, R and F3
type KeyboardInput struct{}

// Poll samples the keyboard
func (KeyboardInput) Poll() Input {
	var in Input
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		in.MoveX--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		in.MoveX++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		in.MoveY--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		in.MoveY++
	}
	in.Fire = ebiten.IsKeyPressed(ebiten.KeySpace)
	in.Restart = inpututil.IsKeyJustPressed(ebiten.KeyR)
	in.ToggleMute = inpututil.IsKeyJustPressed(ebiten.KeyM)
	in.ToggleBlackHole = inpututil.IsKeyJustPressed(ebiten.KeyB)
	in.ToggleDebug = inpututil.IsKeyJustPressed(ebiten.KeyF3)
	return in
}
