package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/analysis"
	"github.com/dudk/wireup/blocks"
)

func filtered(t *testing.T, frequency float64, filter wireup.Args) []float64 {
	t.Helper()
	g := newGraph(t)
	addBlock(t, g, "osc", "phasor", wireup.Args{"frequency": frequency})
	addBlock(t, g, "sin", "sinosc", nil)
	addBlock(t, g, "filter", "biquad", filter)
	addWire(t, g, "osc.phase", "sin.phase")
	addWire(t, g, "sin.value", "filter.value")
	addWire(t, g, "filter.value", "aout")
	outL, _, _ := render(t, g, 8192)
	// skip transient.
	return outL[4096:]
}

func TestBiquadResponse(t *testing.T) {
	tests := []struct {
		name      string
		filter    wireup.Args
		frequency float64
		min, max  float64
	}{
		{
			name:      "lowpass pass",
			filter:    wireup.Args{"lowpass": wireup.Args{"cutoff": 1000}},
			frequency: 100,
			min:       0.6,
			max:       0.8,
		},
		{
			name:      "lowpass stop",
			filter:    wireup.Args{"lowpass": wireup.Args{"cutoff": 1000}},
			frequency: 10000,
			min:       0,
			max:       0.05,
		},
		{
			name:      "highpass stop",
			filter:    wireup.Args{"highpass": wireup.Args{"cutoff": 5000}},
			frequency: 100,
			min:       0,
			max:       0.05,
		},
		{
			name:      "highpass pass",
			filter:    wireup.Args{"highpass": wireup.Args{"cutoff": 1000}},
			frequency: 10000,
			min:       0.6,
			max:       0.8,
		},
		{
			name:      "notch",
			filter:    wireup.Args{"notch": wireup.Args{"frequency": 1000, "Q": 1}},
			frequency: 1000,
			min:       0,
			max:       0.05,
		},
		{
			name:      "allpass",
			filter:    wireup.Args{"allpass": wireup.Args{"frequency": 1000, "Q": 1}},
			frequency: 3000,
			min:       0.69,
			max:       0.72,
		},
		{
			name:      "generic identity",
			filter:    wireup.Args{"generic": wireup.Args{"a0": 2, "b0": 2}},
			frequency: 3000,
			min:       0.69,
			max:       0.72,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rms := analysis.RMS(filtered(t, test.frequency, test.filter))
			assert.GreaterOrEqual(t, rms, test.min)
			assert.LessOrEqual(t, rms, test.max)
		})
	}
}

func TestBiquadErrors(t *testing.T) {
	for _, args := range []wireup.Args{nil, {"bogus": wireup.Args{}}} {
		g := newGraph(t)
		addBlock(t, g, "filter", "biquad", args)
		_, err := g.Processor()
		var initErr *wireup.InitError
		assert.ErrorAs(t, err, &initErr)
		assert.ErrorIs(t, err, blocks.ErrUnknownFilter)
	}
}

func TestBiquadMethods(t *testing.T) {
	g := newGraph(t)
	b := addBlock(t, g, "filter", "biquad", wireup.Args{"lowpass": wireup.Args{"cutoff": 1000}})
	p, err := g.Processor()
	require.NoError(t, err)
	before := get(t, p, "filter.mem.b0")

	require.NoError(t, b.Call(p, "lowpass", 5000, 0))
	after := get(t, p, "filter.mem.b0")
	assert.Greater(t, after, before)

	require.NoError(t, b.Call(p, "generic", 0.5, 0, 0, 1, 0, 0))
	assert.Equal(t, 0.5, get(t, p, "filter.mem.b0"))
	assert.Equal(t, 0.0, get(t, p, "filter.mem.a1"))
	assert.Len(t, blocks.Filters(), len(b.Kind().Methods))
}
