package main

import (
	"fmt"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/blocks"
)

// patch is a built-in demo graph.
type patch struct {
	name  string
	help  string
	build func(*builder)
}

var patches = []patch{
	{
		name: "sine",
		help: "sine oscillator, signals: frequency, volume",
		build: func(b *builder) {
			b.block("osc", "phasor", wireup.Args{"frequency": 440})
			b.block("sin", "sinosc", nil)
			b.block("gain", "gain", nil)
			b.wire("osc.phase", "sin.phase")
			b.wire("sin.value", "gain.value")
			b.wire("gain.value", "aout")
			b.signal("frequency", "osc.mem.frequency")
			b.signal("volume", "gain.ain.gain")
		},
	},
	{
		name: "stereo",
		help: "quadrature oscillator, sine left and cosine right, signals: frequency",
		build: func(b *builder) {
			b.block("osc", "phasor", wireup.Args{"frequency": 220})
			b.block("q", "qosc", wireup.Args{"gain": 0.25})
			b.wire("osc.phase", "q.phase")
			b.wire("q.sin", "aoutL")
			b.wire("q.cos", "aoutR")
			b.signal("frequency", "osc.mem.frequency")
		},
	},
	{
		name: "noise",
		help: "resonant low passed noise, signals: volume, methods: filter.lowpass",
		build: func(b *builder) {
			b.block("noise", "noise", wireup.Args{"gain": 0.5})
			b.block("filter", "biquad", wireup.Args{
				"lowpass": wireup.Args{"cutoff": 800, "resonance": 6},
			})
			b.block("limit", "hardlimiter", nil)
			b.wire("noise.value", "filter.value")
			b.wire("filter.value", "limit.value")
			b.wire("limit.value", "aout")
			b.signal("volume", "noise.ain.gain")
		},
	},
	{
		name: "echo",
		help: "input feedback echo, signals: feedback, time",
		build: func(b *builder) {
			b.block("line", "vardelay", wireup.Args{"delay": 0.5, "tap": 0.6})
			b.block("feedback", "gain", wireup.Args{"gain": 0.4})
			b.wire("ain", "line.value")
			b.wire("line.tap", "feedback.value")
			b.wire("feedback.value", "line.value")
			b.wire("ain", "aout")
			b.wire("feedback.value", "aout")
			b.signal("feedback", "feedback.ain.gain")
			b.signal("time", "line.ain.tap")
		},
	},
}

func findPatch(name string) (patch, error) {
	for _, p := range patches {
		if p.name == name {
			return p, nil
		}
	}
	return patch{}, fmt.Errorf("unknown patch %q", name)
}

// builder keeps the first graph edit error.
type builder struct {
	g   *wireup.Graph
	err error
}

func (b *builder) block(name, kind string, args wireup.Args) {
	if b.err == nil {
		_, b.err = b.g.AddBlock(name, kind, args)
	}
}

func (b *builder) wire(src, dst string) {
	if b.err == nil {
		_, b.err = b.g.AddWire(src, dst)
	}
}

func (b *builder) signal(name, spec string) {
	if b.err == nil {
		b.err = b.g.DefineSignal(name, spec)
	}
}

// newGraph builds named patch with built-in kinds.
func newGraph(name string, s settings) (*wireup.Graph, error) {
	p, err := findPatch(name)
	if err != nil {
		return nil, err
	}
	options := append(s.graphOptions(),
		wireup.WithName(p.name),
		wireup.WithRegistry(blocks.Registry()),
	)
	b := builder{g: wireup.New(options...)}
	p.build(&b)
	if b.err != nil {
		return nil, fmt.Errorf("patch %s: %w", p.name, b.err)
	}
	return b.g, nil
}
