package blocks

import (
	"fmt"
	"math"

	"github.com/dudk/wireup"
)

// ProbeFunc receives level of probe window from monitor hook.
type ProbeFunc func(block string, level float64)

var (
	// Aout writes its left, centre and right inputs to output terminals.
	Aout = &wireup.Kind{
		Name:   "aout",
		Inputs: []string{"left", "centre", "right"},
		Bus:    []wireup.Terminal{wireup.AoutL, wireup.Aout, wireup.AoutR},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			in.SetBus(wireup.AoutL, in.Get(0))
			in.SetBus(wireup.Aout, in.Get(1))
			in.SetBus(wireup.AoutR, in.Get(2))
		},
	}

	// Probe records its input into a block size window. Level is the peak
	// of the last complete window. If "monitor" argument is a ProbeFunc,
	// it's called with level after every processed buffer.
	Probe = &wireup.Kind{
		Name:   "probe",
		Inputs: []string{"value"},
		Memory: []string{"record", "cursor", "peak", "level"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			record := mem.Buffer(0)
			if len(record) == 0 {
				return
			}
			v := in.Get(0)
			c := int(mem.Get(1))
			if c < 0 || c >= len(record) {
				c = 0
			}
			record[c] = v
			if a := math.Abs(v); a > mem.Get(2) {
				mem.Set(2, a)
			}
			c++
			if c >= len(record) {
				c = 0
				mem.Set(3, mem.Get(2))
				mem.Set(2, 0)
			}
			mem.Set(1, float64(c))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			s := newSetter(p, b)
			s.buffer("record", make([]float64, args.Int("size", p.BlockSize())))
			s.mem("cursor", 0)
			return s.err
		},
		Monitor: func(p *wireup.Processor, b *wireup.Block) {
			fn, ok := b.Args()["monitor"].(ProbeFunc)
			if !ok {
				return
			}
			if level, err := p.Get(b.Raw(wireup.Memory, "level")); err == nil {
				fn(b.Name(), level)
			}
		},
	}

	// Delay passes its input through. Every wire adds a sub-step of delay,
	// so this block delays by one.
	Delay = &wireup.Kind{
		Name:    "delay",
		Inputs:  []string{"value"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, in.Get(0))
		},
	}

	// Ramp integrates its rate input.
	Ramp = &wireup.Kind{
		Name:    "ramp",
		Inputs:  []string{"rate"},
		Outputs: []string{"value"},
		Memory:  []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			mem.Add(0, in.Get(0)*dt)
			out.Set(0, mem.Get(0))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			s := newSetter(p, b)
			s.in("rate", args.Float("rate", 0))
			s.mem("value", args.Float("value", 0))
			return s.err
		},
	}

	// DC adds offset to its input.
	DC = &wireup.Kind{
		Name:    "dc",
		Inputs:  []string{"value", "dc"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, in.Get(0)+in.Get(1))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Input, "dc"), args.Float("dc", 0))
		},
	}

	// Gain multiplies value by gain, 0.25 by default.
	Gain = &wireup.Kind{
		Name:    "gain",
		Inputs:  []string{"value", "gain"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, in.Get(0)*in.Get(1))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Input, "gain"), args.Float("gain", 0.25))
		},
	}

	// Panner splits value between left and right. Pan -1 is left, 1 is
	// right.
	Panner = &wireup.Kind{
		Name:    "panner",
		Inputs:  []string{"value", "pan"},
		Outputs: []string{"left", "right"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			v := in.Get(0)
			left := 0.5 * v * (1 - in.Get(1))
			out.Set(0, left)
			out.Set(1, v-left)
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Input, "pan"), args.Float("pan", 0))
		},
	}

	// Lookup reads "buffer" table with linear interpolation. Phase [0, 1]
	// maps to the whole table, last sample of the table is expected to
	// repeat the first one.
	Lookup = &wireup.Kind{
		Name:    "lookup",
		Inputs:  []string{"phase"},
		Outputs: []string{"value"},
		Memory:  []string{"buffer", "length"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			table := mem.Buffer(0)
			n := int(mem.Get(1))
			if n <= 0 || len(table) < n+1 {
				out.Set(0, 0)
				return
			}
			ix := in.Get(0) * float64(n)
			i := int(math.Floor(ix))
			switch {
			case i < 0:
				i = 0
			case i >= n:
				i = n - 1
			}
			frac := ix - float64(i)
			out.Set(0, table[i]+frac*(table[i+1]-table[i]))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			table := args.Floats("buffer")
			if len(table) < 2 {
				return fmt.Errorf("lookup needs at least 2 samples: %w", ErrNoTable)
			}
			s := newSetter(p, b)
			s.buffer("buffer", table)
			s.mem("length", float64(len(table)-1))
			return s.err
		},
	}

	// HardLimiter clips value into [low, high], [-1, 1] by default.
	HardLimiter = &wireup.Kind{
		Name:    "hardlimiter",
		Inputs:  []string{"value"},
		Outputs: []string{"value"},
		Memory:  []string{"low", "high"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, math.Max(mem.Get(0), math.Min(in.Get(0), mem.Get(1))))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			s := newSetter(p, b)
			s.mem("low", args.Float("low", -1))
			s.mem("high", args.Float("high", 1))
			return s.err
		},
	}

	// Dezipper smooths value changes with one-pole filter.
	Dezipper = &wireup.Kind{
		Name:    "dezipper",
		Inputs:  []string{"value"},
		Outputs: []string{"value"},
		Memory:  []string{"value", "rate"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			mem.Add(0, mem.Get(1)*(in.Get(0)-mem.Get(0)))
			out.Set(0, mem.Get(0))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Memory, "rate"), args.Float("rate", 0.05))
		},
	}

	// FollowEnv is a peak envelope follower.
	FollowEnv = &wireup.Kind{
		Name:    "followenv",
		Inputs:  []string{"value"},
		Outputs: []string{"env"},
		Memory:  []string{"env", "decayFactor"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			if v := in.Get(0); v < mem.Get(0) {
				mem.Set(0, mem.Get(0)*mem.Get(1))
			} else {
				mem.Set(0, v)
			}
			out.Set(0, mem.Get(0))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			s := newSetter(p, b)
			s.mem("decayFactor", args.Float("decayFactor", 0.99))
			s.mem("env", 0)
			return s.err
		},
	}
)
