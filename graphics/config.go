package graphics

// StarLayerConfig describes one procedurally stamped star layer
type StarLayerConfig struct {
	Count    int     `yaml:"count"`
	MinSize  float64 `yaml:"min_size"`
	MaxSize  float64 `yaml:"max_size"`
	MinAlpha float64 `yaml:"min_alpha"`
	MaxAlpha float64 `yaml:"max_alpha"`
	Speed    float64 `yaml:"speed"`
}

// NebulaLayerConfig describes one nebula layer. Scale is the tile size
// relative to the viewport.
type NebulaLayerConfig struct {
	Blobs int     `yaml:"blobs"`
	Scale float64 `yaml:"scale"`
	Alpha float64 `yaml:"alpha"`
	Speed float64 `yaml:"speed"`
}

// Vec is a plain 2D direction or velocity
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Palette holds the colours the background picks from
type Palette struct {
	Stars      []Color `yaml:"stars"`
	Nebulas    []Color `yaml:"nebulas"`
	Highlights []Color `yaml:"highlights"`
}

// BackgroundConfig configures the starfield and nebula layers.
// Layers listed first are further away.
type BackgroundConfig struct {
	Stars   []StarLayerConfig   `yaml:"stars"`
	Nebulas []NebulaLayerConfig `yaml:"nebulas"`

	// DriftDir is the autonomous drift direction
	DriftDir Vec `yaml:"drift_dir"`

	// StarParallax and NebulaParallax scale how much the nearest layer of
	// each kind reacts to ship velocity
	StarParallax   float64 `yaml:"star_parallax"`
	NebulaParallax float64 `yaml:"nebula_parallax"`

	// BaseColor fills the frame under every layer
	BaseColor Color `yaml:"base_color"`

	Palette Palette `yaml:"palette"`
}

// DefaultBackgroundConfig returns the stock three star layers and two
// nebula layers
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{
		Stars: []StarLayerConfig{
			{Count: 220, MinSize: 0.6, MaxSize: 1.4, MinAlpha: 0.12, MaxAlpha: 0.22, Speed: 0.015}, // far
			{Count: 160, MinSize: 0.9, MaxSize: 1.9, MinAlpha: 0.16, MaxAlpha: 0.28, Speed: 0.035}, // mid
			{Count: 120, MinSize: 1.2, MaxSize: 2.4, MinAlpha: 0.20, MaxAlpha: 0.34, Speed: 0.065}, // near
		},
		Nebulas: []NebulaLayerConfig{
			{Blobs: 5, Scale: 1.6, Alpha: 0.12, Speed: 0.010},
			{Blobs: 4, Scale: 1.3, Alpha: 0.09, Speed: 0.006},
		},
		DriftDir:       Vec{X: 1, Y: 0.45},
		StarParallax:   0.35,
		NebulaParallax: 0.12,
		BaseColor:      Hex("#030510"),
		Palette: Palette{
			Stars:      []Color{Hex("#e6f7ff"), Hex("#d0f0ff"), Hex("#b8eaff"), Hex("#cfe7ff")},
			Nebulas:    []Color{Hex("#2a0b3a"), Hex("#3b0f4e"), Hex("#0b2a3a"), Hex("#142a4e"), Hex("#2a0f3a"), Hex("#1a2a4e"), Hex("#331144"), Hex("#103049")},
			Highlights: []Color{Hex("#ff66aa"), Hex("#66d9ff"), Hex("#a177ff")},
		},
	}
}

// BlackHoleConfig is a flat set of tuning values. Nothing is validated on
// set; every value is clamped where it is used.
type BlackHoleConfig struct {
	// X and Y place the centre as a fraction of the viewport
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`

	// Radius of the event horizon in pixels
	Radius float64 `yaml:"radius"`

	Strength    float64 `yaml:"strength"`
	Rings       int     `yaml:"rings"`
	OuterScale  float64 `yaml:"outer_scale"`
	PulseSpeed  float64 `yaml:"pulse_speed"`
	PulseAmount float64 `yaml:"pulse_amount"`

	DiscTilt float64 `yaml:"disc_tilt"`
	// DiscSpin is in radians per second
	DiscSpin float64 `yaml:"disc_spin"`
	Doppler  float64 `yaml:"doppler"`

	Streaks    int    `yaml:"streaks"`
	StreakSeed uint32 `yaml:"streak_seed"`

	Vignette float64 `yaml:"vignette"`
	Bloom    float64 `yaml:"bloom"`
	Chroma   float64 `yaml:"chroma"`
	Grain    float64 `yaml:"grain"`
}

// DefaultBlackHoleConfig returns the stock tuning
func DefaultBlackHoleConfig() BlackHoleConfig {
	return BlackHoleConfig{
		X:           0.5,
		Y:           0.5,
		Radius:      240,
		Strength:    0.14,
		Rings:       22,
		OuterScale:  2.25,
		PulseSpeed:  1.4,
		PulseAmount: 0.35,
		DiscTilt:    0.62,
		DiscSpin:    0.15,
		Doppler:     0.85,
		Streaks:     10,
		StreakSeed:  1337,
		Vignette:    0.18,
		Bloom:       0.6,
		Chroma:      0.7,
		Grain:       0.035,
	}
}
