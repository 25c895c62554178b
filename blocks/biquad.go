package blocks

import (
	"fmt"
	"math"
	"sort"

	"github.com/dudk/wireup"
)

// coefficients of biquad transfer function in b0, b1, b2, a0, a1, a2 order.
type coefficients [6]float64

// designFunc computes coefficients for frequency normalized to Nyquist.
type designFunc func(args wireup.Args, nyquist float64) coefficients

var identity = coefficients{1, 0, 0, 1, 0, 0}

// Filter designs are ported from WebKit Biquad.cpp. Frequencies are in Hz,
// gains in dB.
var designs = map[string]designFunc{
	"lowpass":   lowpass,
	"highpass":  highpass,
	"bandpass":  bandpass,
	"lowshelf":  lowshelf,
	"highshelf": highshelf,
	"peaking":   peaking,
	"notch":     notch,
	"allpass":   allpass,
	"generic": func(args wireup.Args, _ float64) coefficients {
		return coefficients{
			args.Float("b0", 1),
			args.Float("b1", 0),
			args.Float("b2", 0),
			args.Float("a0", 1),
			args.Float("a1", 0),
			args.Float("a2", 0),
		}
	},
}

// Filters returns supported biquad filter types.
func Filters() []string {
	names := make([]string, 0, len(designs))
	for name := range designs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Biquad is a second order IIR filter. It's created with a single argument
// naming filter type with nested parameters:
//
//	wireup.Args{"lowpass": wireup.Args{"cutoff": 1000, "resonance": 0.1}}
//
// Every filter type is also a method which redesigns the filter live.
// Method arguments are the parameters in order: cutoff and resonance for
// lowpass and highpass, frequency and Q for bandpass, notch and allpass,
// frequency and dbGain for shelves, frequency, Q and dbGain for peaking.
var Biquad = &wireup.Kind{
	Name:    "biquad",
	Inputs:  []string{"value"},
	Outputs: []string{"value"},
	Memory:  []string{"b0", "b1", "b2", "a1", "a2", "in1", "in2", "out1", "out2"},
	Tick: func(dt float64, in, out, mem wireup.Pins) {
		const (
			b0 = iota
			b1
			b2
			a1
			a2
			in1
			in2
			out1
			out2
		)
		x := in.Get(0)
		y := mem.Get(b0)*x + mem.Get(b1)*mem.Get(in1) + mem.Get(b2)*mem.Get(in2) -
			(mem.Get(a1)*mem.Get(out1) + mem.Get(a2)*mem.Get(out2))
		mem.Set(in2, mem.Get(in1))
		mem.Set(in1, x)
		mem.Set(out2, mem.Get(out1))
		mem.Set(out1, y)
		out.Set(0, y)
	},
	Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
		for _, name := range args.Keys() {
			design, ok := designs[name]
			if !ok {
				continue
			}
			return setCoefficients(p, b, design(args.Args(name), p.TickRate()/2))
		}
		_ = setCoefficients(p, b, identity)
		return fmt.Errorf("biquad %v: %w", args.Keys(), ErrUnknownFilter)
	},
	Methods: biquadMethods(),
}

// methodParams lists positional method arguments per filter type.
var methodParams = map[string][]string{
	"lowpass":   {"cutoff", "resonance"},
	"highpass":  {"cutoff", "resonance"},
	"bandpass":  {"frequency", "Q"},
	"notch":     {"frequency", "Q"},
	"allpass":   {"frequency", "Q"},
	"lowshelf":  {"frequency", "dbGain"},
	"highshelf": {"frequency", "dbGain"},
	"peaking":   {"frequency", "Q", "dbGain"},
	"generic":   {"b0", "b1", "b2", "a0", "a1", "a2"},
}

func biquadMethods() map[string]wireup.MethodFunc {
	methods := make(map[string]wireup.MethodFunc, len(methodParams))
	for name, params := range methodParams {
		design, params := designs[name], params
		methods[name] = func(p *wireup.Processor, b *wireup.Block, values ...float64) error {
			args := wireup.Args{}
			for i, v := range values {
				if i < len(params) {
					args[params[i]] = v
				}
			}
			return setCoefficients(p, b, design(args, p.TickRate()/2))
		}
	}
	return methods
}

// setCoefficients normalizes coefficients by a0 and assigns them.
func setCoefficients(p *wireup.Processor, b *wireup.Block, c coefficients) error {
	a0inv := 1 / c[3]
	s := newSetter(p, b)
	s.mem("b0", c[0]*a0inv)
	s.mem("b1", c[1]*a0inv)
	s.mem("b2", c[2]*a0inv)
	s.mem("a1", c[4]*a0inv)
	s.mem("a2", c[5]*a0inv)
	return s.err
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

func lowpass(args wireup.Args, nyquist float64) coefficients {
	cutoff := clamp01(args.Float("cutoff", nyquist) / nyquist)
	switch {
	case cutoff == 1:
		return identity
	case cutoff > 0:
		beta, gamma, alpha := resonant(cutoff, args.Float("resonance", 0))
		b0 := 2 * alpha
		b1 := 2 * b0
		return coefficients{b0, b1, b0, 1, 2 * -gamma, 2 * beta}
	}
	return coefficients{0, 0, 0, 1, 0, 0}
}

func highpass(args wireup.Args, nyquist float64) coefficients {
	cutoff := clamp01(args.Float("cutoff", 0) / nyquist)
	switch {
	case cutoff == 1:
		return coefficients{0, 0, 0, 1, 0, 0}
	case cutoff > 0:
		beta, gamma, _ := resonant(cutoff, args.Float("resonance", 0))
		alpha := 0.25 * (0.5 + beta + gamma)
		return coefficients{2 * alpha, -4 * alpha, 2 * alpha, 1, 2 * -gamma, 2 * beta}
	}
	return identity
}

// resonant returns common terms of resonant lowpass and highpass designs.
func resonant(cutoff, resonance float64) (beta, gamma, alpha float64) {
	resonance = math.Max(0, resonance)
	g := math.Pow(10, 0.05*resonance)
	d := math.Sqrt((4 - math.Sqrt(16-16/(g*g))) / 2)
	theta := math.Pi * cutoff
	sn := 0.5 * d * math.Sin(theta)
	beta = 0.5 * (1 - sn) / (1 + sn)
	gamma = (0.5 + beta) * math.Cos(theta)
	alpha = 0.25 * (0.5 + beta - gamma)
	return beta, gamma, alpha
}

func lowshelf(args wireup.Args, nyquist float64) coefficients {
	frequency := clamp01(args.Float("frequency", 0) / nyquist)
	a := math.Pow(10, args.Float("dbGain", 0)/40)
	switch {
	case frequency == 1:
		return coefficients{a * a, 0, 0, 1, 0, 0}
	case frequency > 0:
		k, k2 := shelf(frequency, a)
		return coefficients{
			a * ((a + 1) - (a-1)*k + k2),
			2 * a * ((a - 1) - (a+1)*k),
			a * ((a + 1) - (a-1)*k - k2),
			(a + 1) + (a-1)*k + k2,
			-2 * ((a - 1) + (a+1)*k),
			(a + 1) + (a-1)*k - k2,
		}
	}
	return identity
}

func highshelf(args wireup.Args, nyquist float64) coefficients {
	frequency := clamp01(args.Float("frequency", 0) / nyquist)
	a := math.Pow(10, args.Float("dbGain", 0)/40)
	switch {
	case frequency == 1:
		return identity
	case frequency > 0:
		k, k2 := shelf(frequency, a)
		return coefficients{
			a * ((a + 1) + (a-1)*k + k2),
			-2 * a * ((a - 1) + (a+1)*k),
			a * ((a + 1) + (a-1)*k - k2),
			(a + 1) - (a-1)*k + k2,
			2 * ((a - 1) - (a+1)*k),
			(a + 1) - (a-1)*k - k2,
		}
	}
	return coefficients{a * a, 0, 0, 1, 0, 0}
}

// shelf returns cosine and alpha terms of shelf designs with slope 1.
func shelf(frequency, a float64) (k, k2 float64) {
	w0 := math.Pi * frequency
	alpha := 0.5 * math.Sin(w0) * math.Sqrt2
	return math.Cos(w0), 2 * math.Sqrt(a) * alpha
}

// bell returns cosine and alpha terms of designs with quality factor.
func bell(frequency, q float64) (k, alpha float64) {
	w0 := math.Pi * frequency
	return math.Cos(w0), math.Sin(w0) / (2 * q)
}

func peaking(args wireup.Args, nyquist float64) coefficients {
	frequency := clamp01(args.Float("frequency", 0) / nyquist)
	q := math.Max(0, args.Float("Q", 1))
	a := math.Pow(10, args.Float("dbGain", 0)/40)
	if frequency <= 0 || frequency >= 1 {
		return identity
	}
	if q == 0 {
		return coefficients{a * a, 0, 0, 1, 0, 0}
	}
	k, alpha := bell(frequency, q)
	return coefficients{1 + alpha*a, -2 * k, 1 - alpha*a, 1 + alpha/a, -2 * k, 1 - alpha/a}
}

func allpass(args wireup.Args, nyquist float64) coefficients {
	frequency := clamp01(args.Float("frequency", 0) / nyquist)
	q := math.Max(0, args.Float("Q", 1))
	if frequency <= 0 || frequency >= 1 {
		return identity
	}
	if q == 0 {
		return coefficients{-1, 0, 0, 1, 0, 0}
	}
	k, alpha := bell(frequency, q)
	return coefficients{1 - alpha, -2 * k, 1 + alpha, 1 + alpha, -2 * k, 1 - alpha}
}

func notch(args wireup.Args, nyquist float64) coefficients {
	frequency := clamp01(args.Float("frequency", 0) / nyquist)
	q := math.Max(0, args.Float("Q", 1))
	if frequency <= 0 || frequency >= 1 {
		return identity
	}
	if q == 0 {
		return coefficients{0, 0, 0, 1, 0, 0}
	}
	k, alpha := bell(frequency, q)
	return coefficients{1, -2 * k, 1, 1 + alpha, -2 * k, 1 - alpha}
}

func bandpass(args wireup.Args, nyquist float64) coefficients {
	frequency := math.Max(0, args.Float("frequency", 0)/nyquist)
	q := math.Max(0, args.Float("Q", 1))
	if frequency <= 0 || frequency >= 1 {
		return coefficients{0, 0, 0, 1, 0, 0}
	}
	if q == 0 {
		return identity
	}
	k, alpha := bell(frequency, q)
	return coefficients{alpha, 0, -alpha, 1 + alpha, -2 * k, 1 - alpha}
}
