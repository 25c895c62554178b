package blocks

import (
	"math"

	"github.com/dudk/wireup"
)

const tau = 2 * math.Pi

var (
	// Phasor produces phase in [0, 1) advancing with frequency input plus
	// frequency memory. Memory frequency is 440 Hz by default.
	Phasor = &wireup.Kind{
		Name:    "phasor",
		Inputs:  []string{"frequency"},
		Outputs: []string{"phase"},
		Memory:  []string{"value", "frequency"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			mem.Set(0, math.Mod(mem.Get(0)+(in.Get(0)+mem.Get(1))*dt, 1))
			out.Set(0, mem.Get(0))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Memory, "frequency"), args.Float("frequency", 440))
		},
	}

	// SinOsc is sine of phase.
	SinOsc = &wireup.Kind{
		Name:    "sinosc",
		Inputs:  []string{"phase"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, math.Sin(tau*in.Get(0)))
		},
	}

	// CosOsc is cosine of phase.
	CosOsc = &wireup.Kind{
		Name:    "cososc",
		Inputs:  []string{"phase"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, math.Cos(tau*in.Get(0)))
		},
	}

	// QOsc is a quadrature oscillator with gain, 0.5 by default.
	QOsc = &wireup.Kind{
		Name:    "qosc",
		Inputs:  []string{"phase", "gain"},
		Outputs: []string{"sin", "cos"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			g, ph := in.Get(1), tau*in.Get(0)
			out.Set(0, g*math.Sin(ph))
			out.Set(1, g*math.Cos(ph))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Input, "gain"), args.Float("gain", 0.5))
		},
	}

	// SqOsc is a square wave of phase.
	SqOsc = &wireup.Kind{
		Name:    "sqosc",
		Inputs:  []string{"phase"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			switch ph := in.Get(0); {
			case ph < 0.5:
				out.Set(0, -1)
			case ph > 0.5:
				out.Set(0, 1)
			default:
				out.Set(0, 0)
			}
		},
	}

	// Noise is a uniform white noise scaled by gain, 0.25 by default. The
	// generator state lives in memory, so output is reproducible for a
	// given "seed" argument.
	Noise = &wireup.Kind{
		Name:    "noise",
		Inputs:  []string{"gain"},
		Outputs: []string{"value"},
		Memory:  []string{"seed"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			x := uint32(mem.Get(0))
			if x == 0 {
				x = 1
			}
			// xorshift32
			x ^= x << 13
			x ^= x >> 17
			x ^= x << 5
			mem.Set(0, float64(x))
			out.Set(0, 2*in.Get(0)*(float64(x)/(1<<32)-0.5))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			s := newSetter(p, b)
			s.in("gain", args.Float("gain", 0.25))
			s.mem("seed", float64(uint32(args.Int("seed", 1))))
			return s.err
		},
	}

	// Wavetable is an additive oscillator defined by fourier series. Each
	// harmonic is averaged over the tick interval to reduce aliasing.
	// Series is given either with "magn" and optional "phase" or with
	// "real" and optional "imag" arguments, phases are in cycles. Default
	// is a single cosine harmonic.
	Wavetable = &wireup.Kind{
		Name:    "wavetable",
		Inputs:  []string{"frequency"},
		Outputs: []string{"cos"},
		Memory:  []string{"magn", "phase", "running"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			magn, phase, running := mem.Buffer(0), mem.Buffer(1), mem.Buffer(2)
			n := len(magn)
			if n == 0 || len(phase) < n || len(running) < n {
				out.Set(0, 0)
				return
			}
			dp := in.Get(0) * dt
			v := magn[0] * math.Cos(tau*phase[0])
			for i := 1; i < n; i++ {
				p1 := running[i] + phase[i]
				step := float64(i) * dp
				if step == 0 {
					v += magn[i] * math.Cos(tau*p1)
				} else {
					v += magn[i] * (math.Sin(tau*(p1+step)) - math.Sin(tau*p1)) / (tau * step)
				}
				running[i] = math.Mod(running[i]+step, 1)
			}
			out.Set(0, v)
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			magn, phase := series(args)
			s := newSetter(p, b)
			s.buffer("magn", magn)
			s.buffer("phase", phase)
			s.buffer("running", make([]float64, len(magn)))
			s.in("frequency", args.Float("frequency", 440))
			return s.err
		},
	}
)

// series returns magnitudes and phases of wavetable arguments.
func series(args wireup.Args) ([]float64, []float64) {
	if magn := args.Floats("magn"); len(magn) > 0 {
		phase := make([]float64, len(magn))
		copy(phase, args.Floats("phase"))
		return magn, phase
	}
	if re := args.Floats("real"); len(re) > 0 {
		imag := args.Floats("imag")
		magn, phase := make([]float64, len(re)), make([]float64, len(re))
		for i, r := range re {
			var im float64
			if i < len(imag) {
				im = imag[i]
			}
			magn[i] = math.Hypot(r, im)
			phase[i] = math.Atan2(im, r) / tau
		}
		return magn, phase
	}
	return []float64{0, 1}, []float64{0, 0}
}
