// Package blocks provides the built-in block kinds.
package blocks

import (
	"errors"

	"github.com/dudk/wireup"
)

var (
	// ErrNoTable is returned when a table-driven kind has no table.
	ErrNoTable = errors.New("table is not provided")
	// ErrUnknownFilter is returned when biquad is created with unsupported
	// filter type.
	ErrUnknownFilter = errors.New("unknown filter type")
)

// Kinds returns all built-in kinds.
func Kinds() []*wireup.Kind {
	return []*wireup.Kind{
		Aout,
		Probe,
		Delay,
		Ramp,
		Phasor,
		SinOsc,
		CosOsc,
		QOsc,
		SqOsc,
		DC,
		Gain,
		Panner,
		Lookup,
		HardLimiter,
		VarDelay,
		Noise,
		Dezipper,
		FollowEnv,
		Sampler,
		Biquad,
		Wavetable,
	}
}

// Register adds built-in kinds to the registry.
func Register(r *wireup.Registry) error {
	return r.Register(Kinds()...)
}

// Registry returns new registry with built-in kinds.
func Registry() *wireup.Registry {
	return wireup.NewRegistry(Kinds()...)
}

// setter assigns block slots during init and keeps the first error.
type setter struct {
	p   *wireup.Processor
	b   *wireup.Block
	err error
}

func newSetter(p *wireup.Processor, b *wireup.Block) *setter {
	return &setter{p: p, b: b}
}

func (s *setter) set(c wireup.Category, pin string, v float64) {
	if s.err != nil {
		return
	}
	s.err = s.p.Set(s.b.Raw(c, pin), v)
}

func (s *setter) in(pin string, v float64) {
	s.set(wireup.Input, pin, v)
}

func (s *setter) mem(pin string, v float64) {
	s.set(wireup.Memory, pin, v)
}

func (s *setter) buffer(pin string, buf []float64) {
	if s.err != nil {
		return
	}
	s.err = s.p.SetBuffer(s.b.Raw(wireup.Memory, pin), buf)
}
