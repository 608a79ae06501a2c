package sound

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func newTestContext(opts ...Option) *Context {
	return NewContext(append([]Option{WithRand(rand.New(rand.NewSource(1)))}, opts...)...)
}

// pull streams d worth of samples from the bus
func pull(c *Context, d time.Duration) [][2]float64 {
	buf := make([][2]float64, SampleRate.N(d))
	for off := 0; off < len(buf); off += 512 {
		end := min(off+512, len(buf))
		n, ok := c.Stream(buf[off:end])
		if !ok || n != end-off {
			panic("bus drained")
		}
	}
	return buf
}

func peak(buf [][2]float64) float64 {
	var p float64
	for _, s := range buf {
		p = math.Max(p, math.Max(math.Abs(s[0]), math.Abs(s[1])))
	}
	return p
}

func rms(buf [][2]float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		sum += s[0] * s[0]
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func TestContext_SilentWithoutVoices(t *testing.T) {
	c := newTestContext()
	if p := peak(pull(c, 50*time.Millisecond)); p != 0 {
		t.Fatalf("expected silence, got peak %v", p)
	}
}

func TestContext_EffectsProduceSound(t *testing.T) {
	effects := map[string]func(*Context){
		"shoot":          (*Context).Shoot,
		"explosion":      func(c *Context) { c.Explosion(1) },
		"boss entrance":  (*Context).BossEntrance,
		"boss defeat":    (*Context).BossDefeat,
		"powerup pickup": func(c *Context) { c.PowerupPickup("shield") },
		"powerup expire": func(c *Context) { c.PowerupExpire("shield") },
	}
	for name, play := range effects {
		c := newTestContext()
		play(c)
		if c.Voices() == 0 {
			t.Fatalf("%s: no voices queued", name)
		}
		if p := peak(pull(c, 100*time.Millisecond)); p <= 0.01 {
			t.Fatalf("%s: expected audible output, peak %v", name, p)
		}
		pull(c, 2*time.Second)
		if v := c.Voices(); v != 0 {
			t.Fatalf("%s: %d voices still playing after 2s", name, v)
		}
	}
}

func TestContext_MutedIsSilent(t *testing.T) {
	c := newTestContext(WithMuted(true))
	c.Explosion(1.5)
	if p := peak(pull(c, 200*time.Millisecond)); p != 0 {
		t.Fatalf("muted bus produced peak %v", p)
	}
}

func TestContext_ToggleMute(t *testing.T) {
	c := newTestContext()
	if c.Muted() {
		t.Fatal("new context should not be muted")
	}
	if !c.ToggleMute() || !c.Muted() {
		t.Fatal("expected muted after toggle")
	}
	if c.ToggleMute() || c.Muted() {
		t.Fatal("expected unmuted after second toggle")
	}
}

func TestContext_VolumeClamped(t *testing.T) {
	c := newTestContext()
	if c.Volume() != DefaultVolume {
		t.Fatalf("expected default volume %v, got %v", DefaultVolume, c.Volume())
	}
	tests := []struct{ in, want float64 }{
		{0.3, 0.3},
		{2, 1},
		{-1, 0},
		{math.NaN(), 0},
	}
	for _, tc := range tests {
		c.SetVolume(tc.in)
		if got := c.Volume(); got != tc.want {
			t.Errorf("SetVolume(%v): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestContext_VolumeScalesOutput(t *testing.T) {
	loud := newTestContext(WithVolume(1))
	quiet := newTestContext(WithVolume(0.25))
	loud.Shoot()
	quiet.Shoot()
	a := pull(loud, 100*time.Millisecond)
	b := pull(quiet, 100*time.Millisecond)
	for i := range a {
		if math.Abs(a[i][0]*0.25-b[i][0]) > 1e-9 {
			t.Fatalf("sample %d: %v at full volume vs %v at quarter", i, a[i][0], b[i][0])
		}
	}

	zero := newTestContext(WithVolume(0))
	zero.Shoot()
	if p := peak(pull(zero, 100*time.Millisecond)); p != 0 {
		t.Fatalf("zero volume produced peak %v", p)
	}
}

func TestContext_ExplosionIntensityClamped(t *testing.T) {
	a := newTestContext(WithVolume(1))
	b := newTestContext(WithVolume(1))
	a.Explosion(10)
	b.Explosion(1.5)
	sa := pull(a, 300*time.Millisecond)
	sb := pull(b, 300*time.Millisecond)
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("sample %d differs: intensity above 1.5 should clamp", i)
		}
	}
	if clampIntensity(0) != 0.2 || clampIntensity(math.NaN()) != 1 {
		t.Fatal("unexpected intensity clamps")
	}
}

func TestContext_ThrustGlides(t *testing.T) {
	c := newTestContext(WithVolume(1))
	if c.ThrustLevel() != 0 {
		t.Fatal("no thrust loop should exist before SetThrust")
	}
	c.SetThrust(true, 1)
	if c.Voices() != 1 {
		t.Fatalf("expected one thrust voice, got %d", c.Voices())
	}
	pull(c, 300*time.Millisecond)
	if lvl := c.ThrustLevel(); math.Abs(lvl-0.35) > 0.01 {
		t.Fatalf("expected thrust near 0.35, got %v", lvl)
	}

	// A second call retargets the same loop.
	c.SetThrust(true, 0)
	if c.Voices() != 1 {
		t.Fatalf("expected the loop to be reused, got %d voices", c.Voices())
	}

	c.SetThrust(false, 0)
	pull(c, time.Second)
	if lvl := c.ThrustLevel(); lvl > 0.001 {
		t.Fatalf("expected thrust to fade out, got %v", lvl)
	}
	if r := rms(pull(c, 100*time.Millisecond)); r > 0.001 {
		t.Fatalf("expected near silence after release, rms %v", r)
	}
	if c.Voices() != 1 {
		t.Fatal("released thrust loop should keep running")
	}
}

func TestContext_CloseClearsVoices(t *testing.T) {
	c := newTestContext()
	c.SetThrust(true, 1)
	c.BossDefeat()
	c.Close()
	if c.Voices() != 0 || c.ThrustLevel() != 0 {
		t.Fatal("Close should drop every voice")
	}
}

func TestKindHash(t *testing.T) {
	if kindHash("") != 0 {
		t.Fatal("empty kind should hash to 0")
	}
	if kindHash("ab") != 97*31+98 {
		t.Fatalf("unexpected hash %d", kindHash("ab"))
	}
	if kindHash("shield") != kindHash("shield") {
		t.Fatal("hash must be stable")
	}
}
