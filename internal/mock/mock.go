// Package mock provides block kinds for graph tests.
package mock

import (
	"errors"
	"sync/atomic"

	"github.com/dudk/wireup"
)

// ErrInit is returned by init hook of Failing kind.
var ErrInit = errors.New("mock init error")

var (
	// Const outputs its memory value. Init sets it from "value" argument.
	Const = &wireup.Kind{
		Name:    "const",
		Outputs: []string{"value"},
		Memory:  []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, mem.Get(0))
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return p.Set(b.Raw(wireup.Memory, "value"), args.Float("value", 0))
		},
	}

	// Pass copies input to output.
	Pass = &wireup.Kind{
		Name:    "pass",
		Inputs:  []string{"value"},
		Outputs: []string{"value"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, in.Get(0))
		},
	}

	// Inc outputs input incremented by one. Wired into itself it counts
	// sub-steps.
	Inc = &wireup.Kind{
		Name:    "inc",
		Inputs:  []string{"x"},
		Outputs: []string{"y"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, in.Get(0)+1)
		},
	}

	// Counter counts ticks and accumulated time.
	Counter = &wireup.Kind{
		Name:    "counter",
		Outputs: []string{"ticks"},
		Memory:  []string{"ticks", "time"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			mem.Add(0, 1)
			mem.Add(1, dt)
			out.Set(0, mem.Get(0))
		},
	}

	// Sink counts ticks without producing anything.
	Sink = &wireup.Kind{
		Name:   "sink",
		Inputs: []string{"value"},
		Memory: []string{"ticks", "last"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			mem.Add(0, 1)
			mem.Set(1, in.Get(0))
		},
	}

	// Recorder stores input of every tick into buffer attached to its
	// cursor. Buffer size is taken from "size" argument, block size by
	// default.
	Recorder = &wireup.Kind{
		Name:   "recorder",
		Inputs: []string{"value"},
		Memory: []string{"cursor"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			buf := mem.Buffer(0)
			c := int(mem.Get(0))
			if c < len(buf) {
				buf[c] = in.Get(0)
				mem.Set(0, float64(c+1))
			}
		},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			size := args.Int("size", p.BlockSize())
			return p.SetBuffer(b.Raw(wireup.Memory, "cursor"), make([]float64, size))
		},
	}

	// Stereo writes its inputs to the left and right output terminals.
	Stereo = &wireup.Kind{
		Name:   "stereo",
		Inputs: []string{"left", "right"},
		Bus:    []wireup.Terminal{wireup.AoutL, wireup.AoutR},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			in.SetBus(wireup.AoutL, in.Get(0))
			in.SetBus(wireup.AoutR, in.Get(1))
		},
	}

	// Failing kind aborts compilation.
	Failing = &wireup.Kind{
		Name:    "failing",
		Outputs: []string{"value"},
		Tick:    func(dt float64, in, out, mem wireup.Pins) {},
		Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
			return ErrInit
		},
	}

	// Trigger outputs one for a single tick after its trigger method is
	// called.
	Trigger = &wireup.Kind{
		Name:    "trigger",
		Outputs: []string{"value"},
		Memory:  []string{"armed"},
		Tick: func(dt float64, in, out, mem wireup.Pins) {
			out.Set(0, mem.Get(0))
			mem.Set(0, 0)
		},
		Methods: map[string]wireup.MethodFunc{
			"trigger": func(p *wireup.Processor, b *wireup.Block, args ...float64) error {
				return p.Set(b.Raw(wireup.Memory, "armed"), 1)
			},
		},
	}
)

// Monitor returns a kind which counts monitor hook calls.
func Monitor(calls *int64) *wireup.Kind {
	return &wireup.Kind{
		Name:   "monitor",
		Inputs: []string{"value"},
		Tick:   func(dt float64, in, out, mem wireup.Pins) {},
		Monitor: func(p *wireup.Processor, b *wireup.Block) {
			atomic.AddInt64(calls, 1)
		},
	}
}

// Registry returns registry with all mock kinds.
func Registry() *wireup.Registry {
	return wireup.NewRegistry(Const, Pass, Inc, Counter, Sink, Recorder, Stereo, Failing, Trigger)
}
