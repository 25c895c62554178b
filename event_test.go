package wireup_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/wireup"
	"github.com/dudk/wireup/internal/mock"
)

type recorded struct {
	events []wireup.Event
}

func (r *recorded) handler(ev wireup.Event) {
	r.events = append(r.events, ev)
}

func (r *recorded) types() []wireup.EventType {
	types := make([]wireup.EventType, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

func subscribeAll(g *wireup.Graph) *recorded {
	r := &recorded{}
	for _, t := range []wireup.EventType{
		wireup.EventDirty,
		wireup.EventReady,
		wireup.EventConnected,
		wireup.EventDisconnected,
		wireup.EventDie,
	} {
		g.Events().On(t, r.handler)
	}
	return r
}

func TestGraphEvents(t *testing.T) {
	g := newGraph(t)
	r := subscribeAll(g)

	addBlock(t, g, "a", "const", nil)
	addBlock(t, g, "p", "pass", nil)
	w := addWire(t, g, "a.value", "p.value")
	addWire(t, g, "p.value", "aout")
	// edits before first compilation are not reported as dirty.
	assert.Equal(t, []wireup.EventType{
		wireup.EventConnected, wireup.EventConnected,
		wireup.EventConnected,
	}, r.types())
	assert.Equal(t, wireup.Output, r.events[0].Side)
	assert.Equal(t, "a", r.events[0].Block.Name())
	assert.Equal(t, wireup.Input, r.events[1].Side)
	assert.Same(t, w, r.events[1].Wire)

	r.events = nil
	p := processor(t, g)
	assert.Same(t, p, processor(t, g))
	require.Equal(t, []wireup.EventType{wireup.EventReady}, r.types())
	assert.Same(t, p, r.events[0].Processor)

	r.events = nil
	g.RemoveBlock("p")
	assert.Equal(t, []wireup.EventType{
		wireup.EventDisconnected, wireup.EventDisconnected, wireup.EventDie,
		wireup.EventDisconnected, wireup.EventDie,
		wireup.EventDie,
		wireup.EventDirty,
	}, r.types())
	assert.Equal(t, "p", r.events[5].Block.Name())

	r.events = nil
	g.RemoveBlock("p")
	assert.Empty(t, r.events)
}

func TestGraphEventsReentrant(t *testing.T) {
	g := newGraph(t)
	addBlock(t, g, "a", "const", nil)
	addWire(t, g, "a.value", "aout")
	var compiled *wireup.Processor
	g.Events().On(wireup.EventDirty, func(ev wireup.Event) {
		p, err := ev.Graph.Processor()
		require.NoError(t, err)
		compiled = p
	})
	processor(t, g)
	addBlock(t, g, "b", "const", nil)
	require.NotNil(t, compiled)
	assert.False(t, g.Dirty())
}

func TestMonitor(t *testing.T) {
	var calls int64
	r := mock.Registry()
	require.NoError(t, r.Register(mock.Monitor(&calls)))
	g := newGraph(t, wireup.WithRegistry(r))
	addBlock(t, g, "a", "const", nil)
	addBlock(t, g, "m", "monitor", nil)
	addWire(t, g, "a.value", "m.value")

	var processed int
	g.Events().On(wireup.EventAudioProcess, func(wireup.Event) { processed++ })
	p := processor(t, g)
	for i := 0; i < 3; i++ {
		process(t, p, nil, 4)
	}
	assert.Zero(t, atomic.LoadInt64(&calls))
	assert.Equal(t, 3, g.Events().Drain())
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
	assert.Equal(t, 3, processed)
}

func TestEmitter(t *testing.T) {
	e := wireup.NewEmitter(2)
	var first, second int
	off := e.On(wireup.EventReady, func(wireup.Event) { first++ })
	e.On(wireup.EventReady, func(wireup.Event) { second++ })

	e.Emit(wireup.Event{Type: wireup.EventReady}, wireup.Event{Type: wireup.EventDie})
	off()
	e.Emit(wireup.Event{Type: wireup.EventReady})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	e.Off(wireup.EventReady)
	e.Emit(wireup.Event{Type: wireup.EventReady})
	assert.Equal(t, 2, second)

	assert.True(t, e.Post(wireup.Event{Type: wireup.EventAudioProcess}))
	assert.True(t, e.Post(wireup.Event{Type: wireup.EventAudioProcess}))
	assert.False(t, e.Post(wireup.Event{Type: wireup.EventAudioProcess}))
	assert.Equal(t, uint64(1), e.Dropped())
	assert.Equal(t, 2, e.Drain())
	assert.Zero(t, e.Drain())
}

func TestEmitterRun(t *testing.T) {
	e := wireup.NewEmitter(0)
	delivered := make(chan struct{}, 1)
	e.On(wireup.EventAudioProcess, func(wireup.Event) { delivered <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- e.Run(ctx)
	}()
	e.Post(wireup.Event{Type: wireup.EventAudioProcess})
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("event is not delivered")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "audioprocess", wireup.EventAudioProcess.String())
	assert.Equal(t, "disconnected", wireup.EventDisconnected.String())
	assert.Equal(t, "unknown", wireup.EventType(42).String())
}
