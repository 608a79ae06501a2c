package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"neonwreckage/collision"
)

// DebugState holds debug flags that persist across restarts
type DebugState struct {
	ShowGrid bool // Show occupied hash cells and broad phase stats
}

var colorGrid = color.RGBA{R: 80, G: 255, B: 120, A: 90}

// OccupiedCells returns every distinct cell a live entity was inserted into
// on the last step
func OccupiedCells(w *World) []collision.CellKey {
	seen := make(map[collision.CellKey]bool)
	var out []collision.CellKey
	for _, e := range w.Entities {
		if !e.Active {
			continue
		}
		r := w.hash.Range(e.X, e.Y, e.Radius)
		for cy := r.MinY; cy <= r.MaxY; cy++ {
			for cx := r.MinX; cx <= r.MaxX; cx++ {
				k := collision.CellKey{X: cx, Y: cy}
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	return out
}

// drawDebug outlines occupied cells and prints broad phase counters
func drawDebug(screen *ebiten.Image, w *World) {
	size := float32(w.hash.CellSize())
	for _, k := range OccupiedCells(w) {
		vector.StrokeRect(screen, float32(k.X)*size, float32(k.Y)*size, size, size, 1, colorGrid, false)
	}
	msg := fmt.Sprintf("FPS %.0f  TPS %.0f\nentities %d  cells %d  refs %d  pooled bullets %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), len(w.Entities), w.hash.Len(), w.hash.Count(), w.bullets.Size())
	ebitenutil.DebugPrintAt(screen, msg, 10, screen.Bounds().Dy()-40)
}
