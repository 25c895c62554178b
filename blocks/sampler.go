package blocks

import (
	"github.com/dudk/wireup"
)

// Sampler plays "buffer" argument polyphonically. A voice starts on rising
// edge of trigger input bigger than threshold or when trigger method is
// called. When all voices are busy, the oldest one is stolen.
var Sampler = &wireup.Kind{
	Name:    "sampler",
	Inputs:  []string{"trigger"},
	Outputs: []string{"value"},
	Memory: []string{
		"buffer",
		"voices",
		"threshold",
		"offset",
		"armed",
		"first",
		"end",
		"last",
	},
	Tick: func(dt float64, in, out, mem wireup.Pins) {
		const (
			buffer = iota
			voices
			threshold
			offset
			armed
			first
			end
			last
		)
		sample, offsets := mem.Buffer(buffer), mem.Buffer(voices)
		n := len(offsets)
		if n == 0 {
			out.Set(0, 0)
			return
		}
		f, e := int(mem.Get(first)), int(mem.Get(end))
		trigger := in.Get(0)
		if trigger-mem.Get(last) > mem.Get(threshold) || mem.Get(armed) != 0 {
			if e-f >= n {
				f++
			}
			offsets[e%n] = mem.Get(offset)
			e++
			mem.Set(armed, 0)
		}
		mem.Set(last, trigger)

		var v float64
		for i := f; i < e; i++ {
			j := i % n
			pos := int(offsets[j])
			if pos < len(sample) {
				v += sample[pos]
				offsets[j]++
			}
			if i == f && pos+1 >= len(sample) {
				f++
			}
		}
		mem.Set(first, float64(f))
		mem.Set(end, float64(e))
		out.Set(0, v)
	},
	Init: func(p *wireup.Processor, b *wireup.Block, args wireup.Args) error {
		voices := args.Int("maxVoices", 16)
		if voices < 1 {
			voices = 1
		}
		s := newSetter(p, b)
		s.buffer("buffer", args.Floats("buffer"))
		s.buffer("voices", make([]float64, voices))
		s.mem("threshold", args.Float("threshold", 0.5))
		s.mem("offset", 0)
		return s.err
	},
	Methods: map[string]wireup.MethodFunc{
		// trigger starts a voice, optionally from offset.
		"trigger": func(p *wireup.Processor, b *wireup.Block, args ...float64) error {
			var offset float64
			if len(args) > 0 {
				offset = args[0]
			}
			s := newSetter(p, b)
			s.mem("offset", offset)
			s.mem("armed", 1)
			return s.err
		},
	},
}
