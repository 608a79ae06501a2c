// snapshot renders one frame of the background and black hole without a
// window and writes it as a PNG. Output depends only on the flags, so it is
// handy for tuning a config and for comparing renders.
package main

import (
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"neonwreckage/config"
	"neonwreckage/graphics"
)

var (
	flagConfig    string
	flagWidth     int
	flagHeight    int
	flagSeed      int64
	flagBlackHole bool
	flagTime      float64
	flagOut       string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render one background frame to a PNG",
	Example: `  snapshot --out frame.png
  snapshot --blackhole --time 2.5 --seed 7 --width 1920 --height 1080`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a settings file")
	rootCmd.Flags().IntVar(&flagWidth, "width", 1280, "Frame width")
	rootCmd.Flags().IntVar(&flagHeight, "height", 720, "Frame height")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 1, "RNG seed")
	rootCmd.Flags().BoolVar(&flagBlackHole, "blackhole", false, "Draw the black hole")
	rootCmd.Flags().Float64Var(&flagTime, "time", 0, "Seconds since the black hole appeared")
	rootCmd.Flags().StringVar(&flagOut, "out", "frame.png", "Output file")
}

func run(_ *cobra.Command, _ []string) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "snapshot"})

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	img, err := render(cfg, flagWidth, flagHeight, flagSeed, flagBlackHole, flagTime)
	if err != nil {
		return err
	}
	if err := writePNG(flagOut, img); err != nil {
		return err
	}
	logger.Info("wrote frame", "path", flagOut, "width", flagWidth, "height", flagHeight, "blackhole", flagBlackHole)
	return nil
}

// render composes one frame with a frozen clock. The black hole clock sits
// t seconds after its construction.
func render(cfg config.Settings, w, h int, seed int64, blackHole bool, t float64) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	start := time.Unix(0, 0)
	now := start
	clock := func() time.Time { return now }

	bg := graphics.NewBackground(w, h,
		graphics.WithBackgroundConfig(cfg.Background),
		graphics.WithBackgroundRand(rand.New(rand.NewSource(seed))),
		graphics.WithBackgroundClock(clock),
	)
	bh := graphics.NewBlackHole(w, h,
		graphics.WithBlackHoleConfig(cfg.BlackHole),
		graphics.WithBlackHoleRand(rand.New(rand.NewSource(seed+1))),
		graphics.WithBlackHoleClock(clock),
	)
	bh.SetEnabled(blackHole)

	base := bg.Compose()
	now = start.Add(time.Duration(t * float64(time.Second)))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	bh.Render(out, base)
	return out, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
