package sound

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// Wave selects an oscillator shape
type Wave int

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// silenceFloor is the gain exponential ramps decay towards
const silenceFloor = 1e-4

// oscillator is a periodic wave whose frequency ramps exponentially from f0
// to f1 over the first ramp samples and then holds
type oscillator struct {
	wave   Wave
	f0, f1 float64
	ramp   int
	total  int
	pos    int
	phase  float64
	rate   beep.SampleRate
}

func newOscillator(wave Wave, f0, f1 float64, ramp, length time.Duration, rate beep.SampleRate) *oscillator {
	return &oscillator{
		wave:  wave,
		f0:    f0,
		f1:    f1,
		ramp:  rate.N(ramp),
		total: rate.N(length),
		rate:  rate,
	}
}

// freq is the instantaneous frequency at sample pos
func (o *oscillator) freq(pos int) float64 {
	switch {
	case pos >= o.ramp:
		return o.f1
	case o.f0 <= 0 || o.f1 <= 0:
		return o.f0
	}
	return o.f0 * math.Pow(o.f1/o.f0, float64(pos)/float64(o.ramp))
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.pos >= o.total {
			return i, i > 0
		}
		var v float64
		switch o.wave {
		case WaveSquare:
			if o.phase < 0.5 {
				v = 1
			} else {
				v = -1
			}
		case WaveSaw:
			v = 2 * (o.phase - 0.5)
		case WaveTriangle:
			v = 1 - 4*math.Abs(o.phase-0.5)
		default:
			v = math.Sin(2 * math.Pi * o.phase)
		}
		samples[i][0] = v
		samples[i][1] = v

		o.phase += o.freq(o.pos) / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.pos++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// Filter is a one-pole filter type applied to noise
type Filter int

const (
	FilterNone Filter = iota
	FilterLowpass
	FilterHighpass
	FilterBandpass
)

// onePole is a first order lowpass section; the highpass output is the input
// minus the lowpass
type onePole struct {
	a, y float64
}

func newOnePole(cutoff float64, rate beep.SampleRate) onePole {
	if cutoff <= 0 {
		return onePole{a: 1}
	}
	return onePole{a: 1 - math.Exp(-2*math.Pi*cutoff/float64(rate))}
}

func (f *onePole) low(x float64) float64 {
	f.y += f.a * (x - f.y)
	return f.y
}

func (f *onePole) high(x float64) float64 {
	return x - f.low(x)
}

// noise is white noise (amplitude 0.8) shaped by a one-pole filter. A
// bandpass is a highpass below the centre feeding a lowpass above it.
// A negative length streams forever.
type noise struct {
	rng    *rand.Rand
	filter Filter
	lo, hi onePole
	total  int
	pos    int
	rate   beep.SampleRate
}

func newNoise(rng *rand.Rand, filter Filter, cutoff float64, length time.Duration, rate beep.SampleRate) *noise {
	n := &noise{rng: rng, filter: filter, total: rate.N(length), rate: rate}
	if length < 0 {
		n.total = -1
	}
	n.tune(cutoff)
	return n
}

// tune moves the filter cutoff (the centre for a bandpass)
func (n *noise) tune(cutoff float64) {
	switch n.filter {
	case FilterBandpass:
		n.hi.a = newOnePole(cutoff*0.5, n.rate).a
		n.lo.a = newOnePole(cutoff*2, n.rate).a
	default:
		n.lo.a = newOnePole(cutoff, n.rate).a
	}
}

func (n *noise) sample() float64 {
	x := (n.rng.Float64()*2 - 1) * 0.8
	switch n.filter {
	case FilterLowpass:
		return n.lo.low(x)
	case FilterHighpass:
		return n.lo.high(x)
	case FilterBandpass:
		return n.lo.low(n.hi.high(x))
	default:
		return x
	}
}

func (n *noise) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if n.total >= 0 && n.pos >= n.total {
			return i, i > 0
		}
		v := n.sample()
		samples[i][0] = v
		samples[i][1] = v
		n.pos++
	}
	return len(samples), true
}

func (n *noise) Err() error { return nil }

// envelope ramps linearly from the floor to peak over attack, then decays
// exponentially back to the floor over decay. The stream ends with the
// decay even if the source has more to give.
type envelope struct {
	s      beep.Streamer
	peak   float64
	attack int
	decay  int
	pos    int
	ratio  float64
}

func newEnvelope(s beep.Streamer, peak float64, attack, decay time.Duration, rate beep.SampleRate) *envelope {
	e := &envelope{
		s:      s,
		peak:   peak,
		attack: rate.N(attack),
		decay:  max(1, rate.N(decay)),
	}
	if peak > silenceFloor {
		e.ratio = math.Log(silenceFloor / peak)
	}
	return e
}

// gain is the envelope value at sample pos
func (e *envelope) gain(pos int) float64 {
	if e.peak <= silenceFloor {
		return e.peak
	}
	if pos < e.attack {
		return silenceFloor + (e.peak-silenceFloor)*float64(pos)/float64(e.attack)
	}
	t := float64(pos-e.attack) / float64(e.decay)
	return e.peak * math.Exp(e.ratio*math.Min(t, 1))
}

func (e *envelope) length() int {
	return e.attack + e.decay
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	left := e.length() - e.pos
	if left <= 0 {
		return 0, false
	}
	if len(samples) > left {
		samples = samples[:left]
	}
	n, ok := e.s.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain(e.pos)
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	return n, ok || n > 0
}

func (e *envelope) Err() error { return e.s.Err() }

// delayed starts s after d of silence
func delayed(s beep.Streamer, d time.Duration, rate beep.SampleRate) beep.Streamer {
	if d <= 0 {
		return s
	}
	return beep.Seq(beep.Silence(rate.N(d)), s)
}

// smoother follows a target value with a first order lag, like an audio
// param's setTargetAtTime
type smoother struct {
	value, target float64
	k             float64
}

func newSmoother(v float64) smoother {
	return smoother{value: v, target: v, k: 1}
}

// retarget sets a new target reached with time constant tau
func (s *smoother) retarget(target float64, tau time.Duration, rate beep.SampleRate) {
	s.target = target
	n := float64(rate.N(tau))
	if n <= 0 {
		s.k = 1
		return
	}
	s.k = 1 - math.Exp(-1/n)
}

func (s *smoother) next() float64 {
	s.value += (s.target - s.value) * s.k
	return s.value
}
