// Package sound synthesises the game's sound effects procedurally. A Context
// owns the master bus: every effect is a small graph of beep streamers added
// to its mixer, and the Context itself is the streamer the speaker plays.
package sound

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	// SampleRate is the rate every effect is generated at
	SampleRate = beep.SampleRate(48000)

	// DefaultVolume is the master volume of a new Context
	DefaultVolume = 0.6

	bufferDuration = 100 * time.Millisecond
)

// Context is the master bus. It is safe to trigger effects from the game
// goroutine while the speaker pulls samples from its own.
type Context struct {
	mu      sync.Mutex
	rate    beep.SampleRate
	rng     *rand.Rand
	mixer   *beep.Mixer
	master  *effects.Volume
	volume  float64
	muted   bool
	started bool

	thrust *thrust
}

// Option customises a Context
type Option func(*Context)

// WithRand sets the random source noise is drawn from
func WithRand(rng *rand.Rand) Option {
	return func(c *Context) { c.rng = rng }
}

// WithVolume sets the initial master volume
func WithVolume(v float64) Option {
	return func(c *Context) { c.volume = clampVolume(v) }
}

// WithMuted starts the Context muted
func WithMuted(m bool) Option {
	return func(c *Context) { c.muted = m }
}

// NewContext returns a silent bus; nothing reaches a device until Start
func NewContext(opts ...Option) *Context {
	c := &Context{
		rate:   SampleRate,
		mixer:  &beep.Mixer{},
		volume: DefaultVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.master = &effects.Volume{Streamer: c.mixer, Base: 2}
	c.applyGain()
	return c
}

// Start opens the audio device and plays the bus. Calling it again is a
// no-op.
func (c *Context) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := speaker.Init(c.rate, c.rate.N(bufferDuration)); err != nil {
		return err
	}
	speaker.Play(c)

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

// Close stops every voice. The device stays open.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mixer.Clear()
	c.thrust = nil
}

// Stream implements beep.Streamer. The bus never drains: with no voices it
// streams silence.
func (c *Context) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := c.master.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// Err always returns nil; the generated voices cannot fail
func (c *Context) Err() error { return nil }

// Voices returns how many streamers are still playing
func (c *Context) Voices() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Len()
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// applyGain maps the linear master volume onto the exponential volume
// effect. Callers hold mu.
func (c *Context) applyGain() {
	if c.muted || c.volume <= 0 {
		c.master.Silent = true
		c.master.Volume = 0
		return
	}
	c.master.Silent = false
	c.master.Volume = math.Log2(c.volume)
}

// SetVolume sets the master volume, clamped to [0, 1]
func (c *Context) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = clampVolume(v)
	c.applyGain()
}

// Volume returns the master volume in [0, 1]
func (c *Context) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// SetMuted silences or restores output without touching the volume
func (c *Context) SetMuted(m bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = m
	c.applyGain()
}

// ToggleMute flips the mute flag and returns the new state
func (c *Context) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	c.applyGain()
	return c.muted
}

// Muted reports whether output is silenced
func (c *Context) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Context) play(s ...beep.Streamer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mixer.Add(s...)
}

func (c *Context) tone(w Wave, f0, f1 float64, ramp, length time.Duration) *oscillator {
	return newOscillator(w, f0, f1, ramp, length, c.rate)
}

func (c *Context) noise(f Filter, cutoff float64, length time.Duration) *noise {
	return newNoise(c.rng, f, cutoff, length, c.rate)
}

func (c *Context) env(s beep.Streamer, peak float64, attack, decay time.Duration) *envelope {
	return newEnvelope(s, peak, attack, decay, c.rate)
}

// Shoot is a short square blip pitching down from 900 Hz
func (c *Context) Shoot() {
	osc := c.tone(WaveSquare, 900, 180, 100*time.Millisecond, 160*time.Millisecond)
	c.play(c.env(osc, 0.22, 10*time.Millisecond, 130*time.Millisecond))
}

// Explosion is a lowpassed noise burst over a falling sine boom. intensity
// is clamped to [0.2, 1.5] and scales both loudness and tail length.
func (c *Context) Explosion(intensity float64) {
	i := clampIntensity(intensity)
	tail := time.Duration((0.25 + 0.15*i) * float64(time.Second))
	burst := c.env(c.noise(FilterLowpass, 1800, 600*time.Millisecond), 0.28*i, 0, tail)
	boom := c.env(c.tone(WaveSine, 120, 48, 350*time.Millisecond, 420*time.Millisecond), 0.24*i, 0, 380*time.Millisecond)
	c.play(burst, boom)
}

func clampIntensity(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(0.2, math.Min(1.5, v))
}

// BossEntrance is a bandpassed whoosh under a rising saw
func (c *Context) BossEntrance() {
	whoosh := c.env(c.noise(FilterBandpass, 280, 600*time.Millisecond), 0.25, 50*time.Millisecond, 450*time.Millisecond)
	rise := c.env(c.tone(WaveSaw, 220, 660, 600*time.Millisecond, 700*time.Millisecond), 0.18, 80*time.Millisecond, 620*time.Millisecond)
	c.play(whoosh, rise)
}

// note is one voice of the boss defeat fanfare
type note struct {
	freq  float64
	at    time.Duration
	dur   time.Duration
	level float64
}

const (
	noteC4 = 262.0
	noteE4 = 330.0
	noteG4 = 392.0
)

var fanfare = []note{
	{noteC4 * 2, 20 * time.Millisecond, 350 * time.Millisecond, 0.22},
	{noteE4 * 2, 20 * time.Millisecond, 350 * time.Millisecond, 0.18},
	{noteG4 * 2, 20 * time.Millisecond, 350 * time.Millisecond, 0.20},
	{noteC4 * 3, 220 * time.Millisecond, 220 * time.Millisecond, 0.15},
	{noteE4 * 3, 300 * time.Millisecond, 200 * time.Millisecond, 0.13},
	{noteG4 * 3, 360 * time.Millisecond, 200 * time.Millisecond, 0.12},
}

// BossDefeat layers a big noise burst, a sub sweep, a crackle tail and a
// short major fanfare
func (c *Context) BossDefeat() {
	voices := []beep.Streamer{
		c.env(c.noise(FilterLowpass, 2400, 800*time.Millisecond), 0.35, 0, 700*time.Millisecond),
		c.env(c.tone(WaveSine, 90, 35, 500*time.Millisecond, 580*time.Millisecond), 0.32, 0, 550*time.Millisecond),
		delayed(c.env(c.noise(FilterHighpass, 1200, 340*time.Millisecond), 0.12, 20*time.Millisecond, 300*time.Millisecond), 80*time.Millisecond, c.rate),
	}
	for _, n := range fanfare {
		osc := c.tone(WaveSaw, n.freq, n.freq, 0, n.dur+20*time.Millisecond)
		voices = append(voices, delayed(c.env(osc, n.level, 20*time.Millisecond, n.dur-20*time.Millisecond), n.at, c.rate))
	}
	c.play(voices...)
}

// PowerupPickup is a bright upward triangle chirp, pitched slightly by kind
func (c *Context) PowerupPickup(kind string) {
	mult := 1 + float64(absInt(kindHash(kind))%5)*0.08
	f := 500 * mult
	osc := c.tone(WaveTriangle, f, f*2.2, 180*time.Millisecond, 250*time.Millisecond)
	c.play(c.env(osc, 0.22, 20*time.Millisecond, 200*time.Millisecond))
}

// PowerupExpire is a falling sine blip over soft noise
func (c *Context) PowerupExpire(kind string) {
	blip := c.env(c.tone(WaveSine, 700, 220, 180*time.Millisecond, 220*time.Millisecond), 0.2, 0, 200*time.Millisecond)
	hiss := beep.Take(c.rate.N(140*time.Millisecond), c.noise(FilterLowpass, 1400, 150*time.Millisecond))
	c.play(blip, &effects.Gain{Streamer: hiss, Gain: 0.06 - 1})
}

// kindHash is a 31-multiplier string hash with 32-bit wraparound
func kindHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

func absInt(v int32) int {
	if v < 0 {
		return -int(v)
	}
	return int(v)
}

// thrust is the engine loop: endless bandpassed noise whose level and centre
// glide towards targets set from the game
type thrust struct {
	src  *noise
	gain smoother
	freq smoother
}

func (t *thrust) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if i%64 == 0 {
			t.src.tune(t.freq.value)
		}
		t.freq.next()
		v := t.src.sample() * t.gain.next()
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (t *thrust) Err() error { return nil }

// SetThrust glides the engine loop in or out. The loop is created on first
// use and keeps running silently afterwards so quick taps do not click.
func (c *Context) SetThrust(active bool, intensity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !active {
		if c.thrust != nil {
			c.thrust.gain.retarget(silenceFloor, 50*time.Millisecond, c.rate)
		}
		return
	}
	if math.IsNaN(intensity) {
		intensity = 1
	}
	if c.thrust == nil {
		c.thrust = &thrust{
			src:  newNoise(c.rng, FilterBandpass, 220, -1, c.rate),
			gain: newSmoother(silenceFloor),
			freq: newSmoother(220),
		}
		c.mixer.Add(c.thrust)
	}
	c.thrust.gain.retarget(math.Min(0.35, 0.2+0.2*intensity), 30*time.Millisecond, c.rate)
	c.thrust.freq.retarget(200+120*math.Min(1, math.Max(0, intensity)), 50*time.Millisecond, c.rate)
}

// ThrustLevel returns the current engine loop gain
func (c *Context) ThrustLevel() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.thrust == nil {
		return 0
	}
	return c.thrust.gain.value
}
