package blocks

import (
	"math"

	"github.com/dudk/wireup"
)

// VarDelay is a delay line with movable tap. Line length is "delay"
// argument in seconds, 0.1 by default. Tap input in [0, 1] selects delay of
// tap output between zero and line length, value output is the end of the
// line.
var VarDelay = &wireup.Kind{
	Name:    "vardelay",
	Inputs:  []string{"value", "tap"},
	Outputs: []string{"tap", "value"},
	Memory:  []string{"line", "end", "delay"},
	Tick: func(dt float64, in, out, mem wireup.Pins) {
		line := mem.Buffer(0)
		d := int(mem.Get(2))
		if d <= 0 || len(line) < d {
			out.Set(0, 0)
			out.Set(1, 0)
			return
		}
		end := int(mem.Get(1))
		if end < 0 || end >= d {
			end = 0
		}
		line[end] = in.Get(0)

		tap := math.Max(0, math.Min(in.Get(1), 1))
		pos := float64(end) - tap*float64(d-1)
		if pos < 0 {
			pos += float64(d)
		}
		i1 := int(pos)
		frac := pos - float64(i1)
		i2 := (i1 + 1) % d
		out.Set(0, line[i1]+frac*(line[i2]-line[i1]))

		end = (end + 1) % d
		mem.Set(1, float64(end))
		out.Set(1, line[end])
	},
	Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
		d := int(math.Floor(args.Float("delay", 0.1) * p.TickRate()))
		if d < 1 {
			d = 1
		}
		s := newSetter(p, b)
		s.mem("delay", float64(d))
		s.mem("end", 0)
		s.buffer("line", make([]float64, d))
		s.in("tap", args.Float("tap", 1))
		return s.err
	},
}
