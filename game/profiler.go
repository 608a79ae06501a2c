package game

import (
	"time"

	"github.com/charmbracelet/log"
)

// FrameWatch reports slow frames. A warning is logged when a frame takes
// longer than the budget, at most once per cooldown.
type FrameWatch struct {
	budget   time.Duration
	cooldown time.Duration
	now      func() time.Time
	logger   *log.Logger

	start    time.Time
	lastWarn time.Time
	slow     int
}

// NewFrameWatch creates a watch with a budget per frame
func NewFrameWatch(budget time.Duration, logger *log.Logger) *FrameWatch {
	return &FrameWatch{
		budget:   budget,
		cooldown: 10 * time.Second, // Don't warn more than once every 10 seconds
		now:      time.Now,
		logger:   logger,
	}
}

// Begin marks the start of a frame
func (f *FrameWatch) Begin() {
	f.start = f.now()
}

// End closes the frame and returns its duration
func (f *FrameWatch) End(what string) time.Duration {
	t := f.now()
	d := t.Sub(f.start)
	if d <= f.budget {
		return d
	}
	f.slow++
	if f.lastWarn.IsZero() || t.Sub(f.lastWarn) >= f.cooldown {
		f.lastWarn = t
		f.logger.Warn("slow frame", "stage", what, "took", d, "budget", f.budget, "slow_frames", f.slow)
	}
	return d
}

// Slow returns how many frames went over budget
func (f *FrameWatch) Slow() int {
	return f.slow
}
