package wireup

import (
	"context"
	"sync"
	"sync/atomic"
)

// EventType identifies notification.
type EventType int

// Notifications emitted by graphs and processors.
const (
	// EventDirty is emitted when compiled processor became stale.
	EventDirty EventType = iota
	// EventReady is emitted when new processor is compiled.
	EventReady
	// EventAudioProcess is posted when processor completed a buffer.
	EventAudioProcess
	// EventConnected is emitted for both endpoint blocks of a new wire.
	EventConnected
	// EventDisconnected is emitted for both endpoint blocks of removed wire.
	EventDisconnected
	// EventDie is emitted for removed blocks and wires.
	EventDie
)

func (t EventType) String() string {
	switch t {
	case EventDirty:
		return "dirty"
	case EventReady:
		return "ready"
	case EventAudioProcess:
		return "audioprocess"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventDie:
		return "die"
	}
	return "unknown"
}

// Event is a notification payload. Fields not relevant to the type are nil.
type Event struct {
	Type      EventType
	Graph     *Graph
	Processor *Processor
	Block     *Block
	Wire      *Wire
	// Side is Output when Block is the wire source, Input when it's the
	// destination.
	Side Category
}

// Handler receives notifications.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// defaultQueueSize is the capacity of the queue between audio goroutine and
// notification drain.
const defaultQueueSize = 64

// Emitter dispatches notifications to subscribers. Emit is synchronous and
// meant for control goroutines. Post never blocks and is safe to call from
// audio goroutine: events are queued and delivered by Drain or Run.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   int

	queue   chan Event
	dropped uint64
}

// NewEmitter returns emitter with queue of provided size.
func NewEmitter(queueSize int) *Emitter {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Emitter{
		handlers: make(map[EventType][]subscription),
		queue:    make(chan Event, queueSize),
	}
}

// On subscribes handler to event type. Returned function unsubscribes it.
func (e *Emitter) On(t EventType, h Handler) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers[t] = append(e.handlers[t], subscription{id: id, fn: h})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		subs := e.handlers[t]
		for i := range subs {
			if subs[i].id == id {
				e.handlers[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Off removes all handlers of event type.
func (e *Emitter) Off(t EventType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, t)
}

// Emit delivers events synchronously.
func (e *Emitter) Emit(events ...Event) {
	for _, ev := range events {
		e.mu.RLock()
		subs := e.handlers[ev.Type]
		e.mu.RUnlock()
		for _, s := range subs {
			s.fn(ev)
		}
	}
}

// Post queues event without blocking. It returns false and counts the event
// as dropped if queue is full.
func (e *Emitter) Post(ev Event) bool {
	select {
	case e.queue <- ev:
		return true
	default:
		atomic.AddUint64(&e.dropped, 1)
		return false
	}
}

// Dropped returns number of events lost because of full queue.
func (e *Emitter) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// Drain delivers all queued events and returns their number.
func (e *Emitter) Drain() int {
	n := 0
	for {
		select {
		case ev := <-e.queue:
			e.Emit(ev)
			n++
		default:
			return n
		}
	}
}

// Run delivers queued events until context is done.
func (e *Emitter) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-e.queue:
			e.Emit(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
