package midi_test

import (
	"context"
	"testing"
	"time"

	"github.com/rakyll/portmidi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/blocks"
	"github.com/dudk/wireup/log"
	"github.com/dudk/wireup/midi"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder map[string]float64

func (r recorder) Set(name string, v float64) error {
	r[name] = v
	return nil
}

func cc(control, value int64) portmidi.Event {
	return portmidi.Event{Status: 0xb0, Data1: control, Data2: value}
}

func TestRange(t *testing.T) {
	tests := []struct {
		mapf     midi.RangeFunc
		value    int64
		expected float64
	}{
		{mapf: midi.Linear(0, 1), value: 0, expected: 0},
		{mapf: midi.Linear(0, 1), value: 127, expected: 1},
		{mapf: midi.Linear(-1, 1), value: 200, expected: 1},
		{mapf: midi.Linear(10, 20), value: -5, expected: 10},
		{mapf: midi.Exponential(20, 20000), value: 0, expected: 20},
		{mapf: midi.Exponential(20, 20000), value: 127, expected: 20000},
	}
	for _, test := range tests {
		assert.InDelta(t, test.expected, test.mapf(test.value), 1e-9)
	}
	assert.InDelta(t, 440, midi.NoteFrequency(69), 1e-9)
	assert.InDelta(t, 880, midi.NoteFrequency(81), 1e-9)
}

func TestControls(t *testing.T) {
	r := recorder{}
	c := midi.NewController(r, nil)
	c.Bind(1, "cutoff", midi.Linear(100, 200))
	c.Bind(2, "gain", nil)

	require.NoError(t, c.Handle(cc(1, 127), cc(2, 0), cc(3, 64)))
	assert.Equal(t, recorder{"cutoff": 200, "gain": 0}, r)
	last, ok := c.Last(3)
	assert.True(t, ok)
	assert.Equal(t, int64(64), last)
	_, ok = c.Last(4)
	assert.False(t, ok)

	// channel 2 control change.
	require.NoError(t, c.Handle(portmidi.Event{Status: 0xb1, Data1: 2, Data2: 127}))
	assert.Equal(t, 1.0, r["gain"])

	c.Unbind(2)
	require.NoError(t, c.Handle(cc(2, 0)))
	assert.Equal(t, 1.0, r["gain"])
}

func TestNotes(t *testing.T) {
	r := recorder{}
	c := midi.NewController(r, log.Silent)
	c.BindNotes("freq", "gate")

	require.NoError(t, c.Handle(portmidi.Event{Status: 0x90, Data1: 69, Data2: 127}))
	assert.InDelta(t, 440, r["freq"], 1e-9)
	assert.Equal(t, 1.0, r["gate"])

	// legato: release of previous note keeps gate open.
	require.NoError(t, c.Handle(
		portmidi.Event{Status: 0x90, Data1: 81, Data2: 127},
		portmidi.Event{Status: 0x80, Data1: 69},
	))
	assert.InDelta(t, 880, r["freq"], 1e-9)
	assert.Equal(t, 1.0, r["gate"])

	// note on with zero velocity is note off.
	require.NoError(t, c.Handle(portmidi.Event{Status: 0x90, Data1: 81, Data2: 0}))
	assert.Equal(t, 0.0, r["gate"])
}

func TestEngineSignals(t *testing.T) {
	g := wireup.New(wireup.WithRegistry(blocks.Registry()), wireup.WithLogger(log.Silent))
	g.AddBlock("osc", "phasor", nil)
	g.AddBlock("sin", "sinosc", nil)
	g.AddBlock("gain", "gain", nil)
	g.AddWire("osc.phase", "sin.phase")
	g.AddWire("sin.value", "gain.value")
	g.AddWire("gain.value", "aout")
	require.NoError(t, g.DefineSignal("volume", "gain.ain.gain"))
	require.NoError(t, g.DefineSignal("pitch", "osc.mem.frequency"))
	e := wireup.NewEngine(g)
	_, err := e.Sync()
	require.NoError(t, err)

	c := midi.NewController(e, log.Silent)
	c.Bind(7, "volume", midi.Linear(0, 0.5))
	c.Bind(8, "missing", nil)
	c.BindNotes("pitch", "")

	err = c.Handle(cc(8, 1), cc(7, 127), portmidi.Event{Status: 0x90, Data1: 57, Data2: 100})
	assert.ErrorIs(t, err, wireup.ErrUnknownSlot)

	v, err := e.Get("volume")
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	v, err = e.Get("pitch")
	require.NoError(t, err)
	assert.InDelta(t, 220, v, 1e-9)
}

func TestRunWithoutDevice(t *testing.T) {
	c := midi.NewController(recorder{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.Run(ctx))
	assert.NoError(t, c.Close())
}
