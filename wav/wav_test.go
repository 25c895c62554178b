package wav_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
	beepwav "github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/analysis"
	"github.com/dudk/wireup/blocks"
	"github.com/dudk/wireup/log"
	"github.com/dudk/wireup/wav"
)

const (
	sampleRate = 44100
	blockSize  = 512
)

func newEngine(t *testing.T, build func(*wireup.Graph)) *wireup.Engine {
	t.Helper()
	g := wireup.New(
		wireup.WithRegistry(blocks.Registry()),
		wireup.WithLogger(log.Silent),
		wireup.WithSampleRate(sampleRate),
	)
	build(g)
	e := wireup.NewEngine(g)
	_, err := e.Sync()
	require.NoError(t, err)
	return e
}

func sine(frequency float64) func(*wireup.Graph) {
	return func(g *wireup.Graph) {
		g.AddBlock("osc", "phasor", wireup.Args{"frequency": frequency})
		g.AddBlock("sin", "sinosc", nil)
		g.AddBlock("gain", "gain", wireup.Args{"gain": 0.5})
		g.AddWire("osc.phase", "sin.phase")
		g.AddWire("sin.value", "gain.value")
		g.AddWire("gain.value", "aout")
	}
}

func render(t *testing.T, path string, p wav.Processor, source *wav.Source, frames, bitDepth int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	sink, err := wav.NewSink(f, sampleRate, bitDepth)
	require.NoError(t, err)
	require.NoError(t, wav.Render(p, sink, source, frames, blockSize))
	require.NoError(t, sink.Close())
}

func TestRender(t *testing.T) {
	tests := []struct {
		bitDepth int
		frames   int
	}{
		{bitDepth: 16, frames: 8192},
		{bitDepth: 24, frames: 1000},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "sine.wav")
		render(t, path, newEngine(t, sine(441)), nil, test.frames, test.bitDepth)

		f, err := os.Open(path)
		require.NoError(t, err)
		streamer, format, err := beepwav.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, beep.SampleRate(sampleRate), format.SampleRate)
		assert.Equal(t, 2, format.NumChannels)
		assert.Equal(t, test.frames, streamer.Len())

		samples := make([][2]float64, test.frames)
		n, ok := streamer.Stream(samples)
		require.True(t, ok)
		require.Equal(t, test.frames, n)
		left := make([]float64, n)
		for i := range samples {
			left[i] = samples[i][0]
			assert.InDelta(t, samples[i][0], samples[i][1], 1e-9)
		}
		assert.InDelta(t, 0.5, analysis.Peak(left), 1e-3)
		require.NoError(t, streamer.Close())
	}
}

func TestRender32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	render(t, path, newEngine(t, sine(441)), nil, 4096, 32)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	source, err := wav.NewSource(f)
	require.NoError(t, err)
	buf := make([]float64, 4096)
	n, err := source.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
	assert.InDelta(t, 0.5, analysis.Peak(buf), 1e-6)
	assert.InDelta(t, 441, analysis.PeakFrequency(buf, sampleRate), float64(sampleRate)/4096)
}

func TestSource(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.wav")
	render(t, input, newEngine(t, sine(1000)), nil, 4096, 16)

	f, err := os.Open(input)
	require.NoError(t, err)
	defer f.Close()
	source, err := wav.NewSource(f)
	require.NoError(t, err)
	assert.Equal(t, sampleRate, source.SampleRate())

	// input passed through gain of 2 to the output.
	e := newEngine(t, func(g *wireup.Graph) {
		g.AddBlock("gain", "gain", wireup.Args{"gain": 2})
		g.AddWire("ain", "gain.value")
		g.AddWire("gain.value", "aout")
	})
	output := filepath.Join(dir, "output.wav")
	render(t, output, e, source, 6000, 16)

	out, err := os.Open(output)
	require.NoError(t, err)
	defer out.Close()
	result, err := wav.NewSource(out)
	require.NoError(t, err)
	buf := make([]float64, 8192)
	n, err := result.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 6000, n)

	assert.InDelta(t, 1000, analysis.PeakFrequency(buf[:4096], sampleRate), float64(sampleRate)/4096)
	assert.InDelta(t, 1, analysis.Peak(buf[:4096]), 1e-2)
	// silence after the end of input.
	assert.Zero(t, analysis.Peak(buf[4100:6000]))
}

func TestErrors(t *testing.T) {
	_, err := wav.NewSink(nil, sampleRate, 8)
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)

	path := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = wav.NewSource(f)
	assert.ErrorIs(t, err, wav.ErrInvalidFile)
}

func TestQuantization(t *testing.T) {
	g := wireup.New(wireup.WithLogger(log.Silent), wireup.WithRegistry(blocks.Registry()))
	g.AddBlock("dc", "dc", wireup.Args{"dc": 3})
	g.AddWire("dc.value", "aout")
	p, err := g.Processor()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "clip.wav")
	render(t, path, p, nil, 16, 16)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	source, err := wav.NewSource(f)
	require.NoError(t, err)
	buf := make([]float64, 16)
	n, err := source.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	for _, v := range buf {
		assert.InDelta(t, 1, v, 1e-4)
		assert.False(t, math.IsNaN(v))
	}
}
