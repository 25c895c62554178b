package blocks_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/analysis"
	"github.com/dudk/wireup/blocks"
	"github.com/dudk/wireup/log"
)

const sampleRate = 44100

func newGraph(t *testing.T, options ...wireup.Option) *wireup.Graph {
	t.Helper()
	options = append([]wireup.Option{
		wireup.WithRegistry(blocks.Registry()),
		wireup.WithLogger(log.Silent),
		wireup.WithSampleRate(sampleRate),
	}, options...)
	return wireup.New(options...)
}

func addBlock(t *testing.T, g *wireup.Graph, name, kind string, args wireup.Args) *wireup.Block {
	t.Helper()
	b, err := g.AddBlock(name, kind, args)
	require.NoError(t, err)
	return b
}

func addWire(t *testing.T, g *wireup.Graph, src, dst string) {
	t.Helper()
	_, err := g.AddWire(src, dst)
	require.NoError(t, err)
}

func render(t *testing.T, g *wireup.Graph, frames int) ([]float64, []float64, *wireup.Processor) {
	t.Helper()
	p, err := g.Processor()
	require.NoError(t, err)
	outL, outR := make([]float64, frames), make([]float64, frames)
	p.Process(nil, outL, outR)
	return outL, outR, p
}

func get(t *testing.T, p *wireup.Processor, name string) float64 {
	t.Helper()
	v, err := p.Get(name)
	require.NoError(t, err)
	return v
}

func sineGraph(t *testing.T, frequency float64) *wireup.Graph {
	g := newGraph(t)
	addBlock(t, g, "phasor1", "phasor", wireup.Args{"frequency": frequency})
	addBlock(t, g, "sinosc1", "sinosc", nil)
	addWire(t, g, "phasor1.phase", "sinosc1.phase")
	addWire(t, g, "sinosc1.value", "aout")
	return g
}

func TestPhasorSine(t *testing.T) {
	frames := 4096
	outL, outR, p := render(t, sineGraph(t, 440), frames)

	assert.Equal(t, 0.0, outL[0])
	for _, n := range []int{1, 100, 1000, frames - 1} {
		phase := math.Mod(float64(n)*440/sampleRate, 1)
		assert.InDelta(t, math.Sin(2*math.Pi*phase), outL[n], 1e-9, "sample %d", n)
	}
	assert.Equal(t, outL, outR)
	assert.InDelta(t, math.Mod(float64(frames)*440/sampleRate, 1), get(t, p, "phasor1.mem.value"), 1e-9)
	assert.InDelta(t, 440, analysis.PeakFrequency(outL, sampleRate), float64(sampleRate)/float64(frames))
}

func TestGainDefault(t *testing.T) {
	g := sineGraph(t, 1000)
	addBlock(t, g, "gain1", "gain", nil)
	g.RemoveWire("sinosc1.value->aout")
	addWire(t, g, "sinosc1.value", "gain1.value")
	addWire(t, g, "gain1.value", "aout")

	outL, _, _ := render(t, g, 4410)
	assert.InDelta(t, 0.25, analysis.Peak(outL), 1e-3)
}

func TestPerTick(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		args     wireup.Args
		inputs   map[string]float64
		expected map[string]float64
	}{
		{
			name:     "gain",
			kind:     "gain",
			inputs:   map[string]float64{"value": 2},
			expected: map[string]float64{"value": 0.5},
		},
		{
			name:     "panner left",
			kind:     "panner",
			inputs:   map[string]float64{"value": 1, "pan": -1},
			expected: map[string]float64{"left": 1, "right": 0},
		},
		{
			name:     "panner centre",
			kind:     "panner",
			inputs:   map[string]float64{"value": 1},
			expected: map[string]float64{"left": 0.5, "right": 0.5},
		},
		{
			name:     "qosc",
			kind:     "qosc",
			inputs:   map[string]float64{"phase": 0.25},
			expected: map[string]float64{"sin": 0.5, "cos": 0},
		},
		{
			name:     "sqosc low",
			kind:     "sqosc",
			inputs:   map[string]float64{"phase": 0.25},
			expected: map[string]float64{"value": -1},
		},
		{
			name:     "sqosc high",
			kind:     "sqosc",
			inputs:   map[string]float64{"phase": 0.75},
			expected: map[string]float64{"value": 1},
		},
		{
			name:     "sqosc edge",
			kind:     "sqosc",
			inputs:   map[string]float64{"phase": 0.5},
			expected: map[string]float64{"value": 0},
		},
		{
			name:     "cososc",
			kind:     "cososc",
			inputs:   map[string]float64{"phase": 0},
			expected: map[string]float64{"value": 1},
		},
		{
			name:     "dc",
			kind:     "dc",
			args:     wireup.Args{"dc": 0.5},
			inputs:   map[string]float64{"value": 1},
			expected: map[string]float64{"value": 1.5},
		},
		{
			name:     "hardlimiter high",
			kind:     "hardlimiter",
			inputs:   map[string]float64{"value": 3},
			expected: map[string]float64{"value": 1},
		},
		{
			name:     "hardlimiter low",
			kind:     "hardlimiter",
			args:     wireup.Args{"low": -0.5},
			inputs:   map[string]float64{"value": -1},
			expected: map[string]float64{"value": -0.5},
		},
		{
			name:     "dezipper",
			kind:     "dezipper",
			inputs:   map[string]float64{"value": 1},
			expected: map[string]float64{"value": 0.05},
		},
		{
			name:     "followenv",
			kind:     "followenv",
			inputs:   map[string]float64{"value": 0.7},
			expected: map[string]float64{"env": 0.7},
		},
		{
			name:     "ramp",
			kind:     "ramp",
			inputs:   map[string]float64{"rate": sampleRate},
			expected: map[string]float64{"value": 1},
		},
		{
			name:     "delay",
			kind:     "delay",
			inputs:   map[string]float64{"value": 0.3},
			expected: map[string]float64{"value": 0.3},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := newGraph(t)
			addBlock(t, g, "b", test.kind, test.args)
			p, err := g.Processor()
			require.NoError(t, err)
			for pin, v := range test.inputs {
				require.NoError(t, p.Set("b.ain."+pin, v))
			}
			p.Process(nil, make([]float64, 1), make([]float64, 1))
			for pin, v := range test.expected {
				assert.InDelta(t, v, get(t, p, "b.aout."+pin), 1e-9, pin)
			}
		})
	}
}

func TestFollowEnvDecay(t *testing.T) {
	g := newGraph(t)
	addBlock(t, g, "env", "followenv", wireup.Args{"decayFactor": 0.5})
	p, err := g.Processor()
	require.NoError(t, err)
	require.NoError(t, p.Set("env.ain.value", 1))
	p.Process(nil, make([]float64, 1), make([]float64, 1))
	require.NoError(t, p.Set("env.ain.value", 0))
	p.Process(nil, make([]float64, 2), make([]float64, 2))
	assert.Equal(t, 0.25, get(t, p, "env.aout.env"))
}

func TestAoutKind(t *testing.T) {
	g := newGraph(t)
	addBlock(t, g, "l", "dc", wireup.Args{"dc": 0.2})
	addBlock(t, g, "c", "dc", wireup.Args{"dc": 0.1})
	addBlock(t, g, "r", "dc", wireup.Args{"dc": -0.4})
	addBlock(t, g, "out", "aout", nil)
	addWire(t, g, "l.value", "out.left")
	addWire(t, g, "c.value", "out.centre")
	addWire(t, g, "r.value", "out.right")

	outL, outR, p := render(t, g, 3)
	assert.Empty(t, p.Warnings())
	for i := range outL {
		assert.InDelta(t, 0.3, outL[i], 1e-12)
		assert.InDelta(t, -0.3, outR[i], 1e-12)
	}
}

func TestProbe(t *testing.T) {
	var levels []float64
	monitor := blocks.ProbeFunc(func(block string, level float64) {
		assert.Equal(t, "scope", block)
		levels = append(levels, level)
	})
	g := newGraph(t)
	addBlock(t, g, "src", "dc", wireup.Args{"dc": -0.5})
	addBlock(t, g, "scope", "probe", wireup.Args{"size": 4, "monitor": monitor})
	addWire(t, g, "src.value", "scope.value")

	_, _, p := render(t, g, 6)
	record, err := p.Buffer("scope.mem.record")
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, -0.5, -0.5, -0.5}, record)
	assert.Equal(t, 2.0, get(t, p, "scope.mem.cursor"))

	assert.Equal(t, 1, g.Events().Drain())
	assert.Equal(t, []float64{0.5}, levels)
}

func TestNoise(t *testing.T) {
	noise := func(seed int) []float64 {
		g := newGraph(t)
		addBlock(t, g, "n", "noise", wireup.Args{"seed": seed, "gain": 0.5})
		addWire(t, g, "n.value", "aout")
		outL, _, _ := render(t, g, 1024)
		return outL
	}
	first, second := noise(7), noise(7)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, noise(8))
	assert.LessOrEqual(t, analysis.Peak(first), 0.5)
	assert.Greater(t, analysis.RMS(first), 0.2)
}

func TestVarDelay(t *testing.T) {
	g := newGraph(t, wireup.WithSampleRate(100))
	addBlock(t, g, "r", "ramp", wireup.Args{"rate": 100})
	addBlock(t, g, "vd", "vardelay", wireup.Args{"delay": 0.04, "tap": 0})
	addWire(t, g, "r.value", "vd.value")
	addWire(t, g, "vd.value", "aout")
	addWire(t, g, "vd.tap", "aoutL")

	outL, outR, p := render(t, g, 10)
	assert.Equal(t, 4.0, get(t, p, "vd.mem.delay"))
	for i := range outR {
		assert.InDelta(t, math.Max(float64(i-3), 0), outR[i], 1e-9, "value %d", i)
		// tap at zero returns the input itself.
		assert.InDelta(t, math.Max(float64(i-3), 0)+float64(i), outL[i], 1e-9, "tap %d", i)
	}
}

func TestSampler(t *testing.T) {
	g := newGraph(t)
	s := addBlock(t, g, "s", "sampler", wireup.Args{"buffer": []float64{1, 2, 3}})
	addWire(t, g, "s.value", "aout")
	p, err := g.Processor()
	require.NoError(t, err)

	process := func(frames int) []float64 {
		outL, outR := make([]float64, frames), make([]float64, frames)
		p.Process(nil, outL, outR)
		return outL
	}
	assert.Equal(t, []float64{0}, process(1))
	require.NoError(t, s.Call(p, "trigger"))
	assert.Equal(t, []float64{1}, process(1))
	require.NoError(t, s.Call(p, "trigger"))
	assert.Equal(t, []float64{3, 5, 3, 0}, process(4))

	require.NoError(t, s.Call(p, "trigger", 2))
	assert.Equal(t, []float64{3, 0}, process(2))
	assert.ErrorIs(t, s.Call(p, "stop"), wireup.ErrUnknownMethod)
}

func TestLookup(t *testing.T) {
	g := newGraph(t)
	addBlock(t, g, "lk", "lookup", wireup.Args{"buffer": []float64{0, 1, 2, 3, 4}})
	p, err := g.Processor()
	require.NoError(t, err)
	for _, phase := range []float64{0, 0.25, 0.625, 1} {
		require.NoError(t, p.Set("lk.ain.phase", phase))
		p.Process(nil, make([]float64, 1), make([]float64, 1))
		assert.InDelta(t, 4*phase, get(t, p, "lk.aout.value"), 1e-12)
	}

	g.RemoveBlock("lk")
	addBlock(t, g, "lk", "lookup", nil)
	_, err = g.Processor()
	assert.ErrorIs(t, err, blocks.ErrNoTable)
}

func TestWavetable(t *testing.T) {
	g := newGraph(t)
	addBlock(t, g, "wt", "wavetable", wireup.Args{"frequency": 1000})
	addWire(t, g, "wt.cos", "aout")
	outL, _, _ := render(t, g, 4096)
	assert.InDelta(t, 1000, analysis.PeakFrequency(outL, sampleRate), float64(sampleRate)/4096)
	assert.InDelta(t, 1, analysis.Peak(outL), 0.01)

	g = newGraph(t)
	addBlock(t, g, "wt", "wavetable", wireup.Args{
		"frequency": 200,
		"real":      []float64{0, 0, 1},
		"imag":      []float64{0, 0, 0},
	})
	addWire(t, g, "wt.cos", "aout")
	outL, _, _ = render(t, g, 4096)
	assert.InDelta(t, 400, analysis.PeakFrequency(outL, sampleRate), float64(sampleRate)/4096)
	assert.InDelta(t, 1, analysis.Peak(outL), 0.01)
}
