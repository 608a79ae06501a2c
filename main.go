// neonwreckage is an arcade space shooter drawn over a procedural parallax
// starfield, with a gravitational lens that opens whenever a boss arrives.
//
// Usage:
//
//	neonwreckage [flags]
//
// Keys: arrows/WASD move, Space fires, M mutes, B toggles the black hole,
// F3 shows the collision grid, R restarts after game over.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"neonwreckage/config"
	"neonwreckage/game"
	"neonwreckage/graphics"
	"neonwreckage/sound"
)

var (
	flagConfig     string
	flagSeed       int64
	flagWidth      int
	flagHeight     int
	flagMute       bool
	flagBlackHole  bool
	flagLogLevel   string
	flagFullscreen bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neonwreckage",
	Short: "Neon Wreckage - an arcade shooter at the edge of a black hole",
	Long: `Neon Wreckage is an arcade space shooter. Clear each asteroid wave,
then survive the boss that comes through the black hole.

Settings are read from --config, ~/.neonwreckage/config.yaml or
./configs/neonwreckage.yaml; flags override the file.

Examples:
  neonwreckage
  neonwreckage --seed 42 --blackhole
  neonwreckage --width 1920 --height 1080 --fullscreen`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a settings file")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.Flags().IntVar(&flagWidth, "width", 0, "Window width")
	rootCmd.Flags().IntVar(&flagHeight, "height", 0, "Window height")
	rootCmd.Flags().BoolVar(&flagMute, "mute", false, "Start muted")
	rootCmd.Flags().BoolVar(&flagBlackHole, "blackhole", false, "Show the black hole from the start")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolVar(&flagFullscreen, "fullscreen", false, "Start fullscreen")
}

// settings loads the file and applies any flag the user set explicitly
func settings(cmd *cobra.Command) (config.Settings, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flags.Changed("width") {
		cfg.Window.Width = flagWidth
	}
	if flags.Changed("height") {
		cfg.Window.Height = flagHeight
	}
	if flags.Changed("mute") {
		cfg.Audio.Muted = flagMute
	}
	if flags.Changed("blackhole") {
		cfg.BlackHoleOnStart = flagBlackHole
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("fullscreen") {
		cfg.Window.Fullscreen = flagFullscreen
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return cfg, fmt.Errorf("invalid window size %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	return cfg, nil
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "neonwreckage",
	})
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("starting", "seed", seed, "width", cfg.Window.Width, "height", cfg.Window.Height)

	w, h := cfg.Window.Width, cfg.Window.Height
	background := graphics.NewBackground(w, h,
		graphics.WithBackgroundConfig(cfg.Background),
		graphics.WithBackgroundRand(rand.New(rand.NewSource(seed))),
	)
	blackHole := graphics.NewBlackHole(w, h,
		graphics.WithBlackHoleConfig(cfg.BlackHole),
		graphics.WithBlackHoleRand(rand.New(rand.NewSource(seed+1))),
	)

	audio := sound.NewContext(
		sound.WithRand(rand.New(rand.NewSource(seed+2))),
		sound.WithVolume(cfg.Audio.Volume),
		sound.WithMuted(cfg.Audio.Muted),
	)
	if err := audio.Start(); err != nil {
		// The bus keeps running silently
		logger.Warn("audio unavailable", "error", err)
	}

	gcfg := game.DefaultConfig()
	gcfg.ScreenWidth, gcfg.ScreenHeight = w, h
	g := game.NewGame(gcfg,
		game.WithBackground(background),
		game.WithBlackHole(blackHole),
		game.WithSound(audio),
		game.WithGameRand(rand.New(rand.NewSource(seed+3))),
		game.WithGameLogger(logger),
	)
	defer g.Close()
	blackHole.SetEnabled(cfg.BlackHoleOnStart)

	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Neon Wreckage")
	ebiten.SetWindowResizable(true)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("game loop: %w", err)
	}
	return nil
}
