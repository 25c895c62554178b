package wireup

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/xid"

	"github.com/dudk/wireup/log"
)

// DefaultRegistry is used by graphs created without WithRegistry option.
var DefaultRegistry = NewRegistry()

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// Graph is a mutable set of named blocks, wires and signals. It compiles
// into a Processor lazily: every structural edit drops the memoized
// processor and next call of Processor builds a fresh one.
//
// Graph methods are safe for concurrent use. Notifications are emitted
// after the graph lock is released, so handlers may call graph methods.
type Graph struct {
	uid        string
	name       string
	sampleRate int
	oversample int
	blockSize  int
	registry   *Registry
	logger     log.Logger
	events     *Emitter

	mu        sync.Mutex
	blocks    []*Block
	wires     []*Wire
	signals   map[string]string
	processor *Processor
}

// New creates an empty graph.
func New(options ...Option) *Graph {
	g := &Graph{
		uid:        newUID(),
		sampleRate: DefaultSampleRate,
		oversample: 1,
		blockSize:  DefaultBlockSize,
		registry:   DefaultRegistry,
		logger:     log.GetLogger(),
		signals:    make(map[string]string),
	}
	for _, option := range options {
		option(g)
	}
	if g.name == "" {
		g.name = g.uid
	}
	if g.events == nil {
		g.events = NewEmitter(defaultQueueSize)
	}
	g.events.On(EventAudioProcess, func(ev Event) {
		if ev.Graph != g || ev.Processor == nil {
			return
		}
		ev.Processor.monitor()
	})
	return g
}

// ID returns graph id.
func (g *Graph) ID() string {
	return g.uid
}

// Name returns graph name.
func (g *Graph) Name() string {
	return g.name
}

// SampleRate returns host sample rate.
func (g *Graph) SampleRate() int {
	return g.sampleRate
}

// Oversample returns number of sub-steps per sample.
func (g *Graph) Oversample() int {
	return g.oversample
}

// BlockSize returns advertised buffer size.
func (g *Graph) BlockSize() int {
	return g.blockSize
}

// Events returns graph notification emitter.
func (g *Graph) Events() *Emitter {
	return g.events
}

// AddBlock creates a block of registered kind. If block with the same name
// already exists, it's removed with all its wires first.
func (g *Graph) AddBlock(name, kind string, args Args) (*Block, error) {
	k, err := g.registry.Lookup(kind)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", name, err)
	}
	b, err := newBlock(name, k, args)
	if err != nil {
		return nil, err
	}

	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	if old := g.lookup(name); old != nil {
		events = g.removeBlock(old, events)
	}
	g.blocks = append(g.blocks, b)
	events = g.invalidate(events)
	return b, nil
}

// RemoveBlock removes wires touching the block and then the block itself.
// It's no-op if there is no such block.
func (g *Graph) RemoveBlock(name string) {
	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.lookup(name)
	if b == nil {
		return
	}
	events = g.removeBlock(b, events)
	events = g.invalidate(events)
}

// AddWire connects source to destination. Source is either "block.pin" of
// an output or one of input terminals. Destination is either "block.pin"
// of an input or one of output terminals. If identical wire exists, it's
// returned unchanged.
func (g *Graph) AddWire(src, dst string) (*Wire, error) {
	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	source, err := resolveEndpoint(src, Output, g.lookup)
	if err != nil {
		return nil, err
	}
	dest, err := resolveEndpoint(dst, Input, g.lookup)
	if err != nil {
		return nil, err
	}
	name := wireName(source, dest)
	if w := g.wire(name); w != nil {
		return w, nil
	}
	w := newWire(source, dest)
	g.wires = append(g.wires, w)
	events = g.invalidate(events)
	events = appendWireEvents(events, EventConnected, g, w)
	return w, nil
}

// RemoveWire removes wire by its canonical name. It's no-op if there is no
// such wire.
func (g *Graph) RemoveWire(name string) {
	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.wire(name)
	if w == nil {
		return
	}
	events = g.removeWire(w, events)
	events = g.invalidate(events)
}

// DefineSignal binds name to a slot. Spec is a bus terminal, qualified
// "block.category.pin", short "block.pin" or raw slot name. Only syntax is
// checked here, spec is resolved by compilation. Existing signal is
// overwritten.
func (g *Graph) DefineSignal(name, spec string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty name: %w", ErrInvalidSignal)
	}
	if err := checkSignalSpec(spec); err != nil {
		return fmt.Errorf("signal %s: %w", name, err)
	}
	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.signals[name] = spec
	events = g.invalidate(events)
	return nil
}

// Processor returns the compiled processor. If graph changed since last
// call, new processor is compiled and "ready" is emitted. Compilation
// errors leave graph without memoized processor.
func (g *Graph) Processor() (*Processor, error) {
	var events []Event
	defer func() { g.events.Emit(events...) }()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.processor != nil {
		return g.processor, nil
	}
	p, err := g.compile()
	if err != nil {
		return nil, err
	}
	g.processor = p
	events = append(events, Event{Type: EventReady, Graph: g, Processor: p})
	return p, nil
}

// Dirty returns true if graph has no valid compiled processor.
func (g *Graph) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processor == nil
}

// Block returns block by name.
func (g *Graph) Block(name string) (*Block, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.lookup(name)
	return b, b != nil
}

// Blocks returns blocks in registration order.
func (g *Graph) Blocks() []*Block {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Block(nil), g.blocks...)
}

// Wires returns wires in registration order.
func (g *Graph) Wires() []*Wire {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Wire(nil), g.wires...)
}

// Signals returns a copy of signal definitions.
func (g *Graph) Signals() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	signals := make(map[string]string, len(g.signals))
	for k, v := range g.signals {
		signals[k] = v
	}
	return signals
}

func (g *Graph) String() string {
	return g.name
}

// lookup returns block by name. Must be called under lock.
func (g *Graph) lookup(name string) *Block {
	for _, b := range g.blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// wire returns wire by name. Must be called under lock.
func (g *Graph) wire(name string) *Wire {
	for _, w := range g.wires {
		if w.name == name {
			return w
		}
	}
	return nil
}

// removeBlock drops touching wires and the block. Must be called under lock.
func (g *Graph) removeBlock(b *Block, events []Event) []Event {
	for i := 0; i < len(g.wires); {
		if w := g.wires[i]; w.touches(b) {
			events = g.removeWire(w, events)
			continue
		}
		i++
	}
	for i := range g.blocks {
		if g.blocks[i] == b {
			g.blocks = append(g.blocks[:i], g.blocks[i+1:]...)
			break
		}
	}
	return append(events, Event{Type: EventDie, Graph: g, Block: b})
}

// removeWire drops the wire. Must be called under lock.
func (g *Graph) removeWire(w *Wire, events []Event) []Event {
	for i := range g.wires {
		if g.wires[i] == w {
			g.wires = append(g.wires[:i], g.wires[i+1:]...)
			break
		}
	}
	events = appendWireEvents(events, EventDisconnected, g, w)
	return append(events, Event{Type: EventDie, Graph: g, Wire: w})
}

// invalidate drops memoized processor. Dirty is only reported when there
// was a processor to drop.
func (g *Graph) invalidate(events []Event) []Event {
	if g.processor == nil {
		return events
	}
	g.processor = nil
	return append(events, Event{Type: EventDirty, Graph: g})
}

// appendWireEvents adds notification for each block endpoint of the wire.
func appendWireEvents(events []Event, t EventType, g *Graph, w *Wire) []Event {
	if w.src.Block != nil {
		events = append(events, Event{Type: t, Graph: g, Block: w.src.Block, Wire: w, Side: Output})
	}
	if w.dst.Block != nil {
		events = append(events, Event{Type: t, Graph: g, Block: w.dst.Block, Wire: w, Side: Input})
	}
	return events
}

// checkSignalSpec validates signal target syntax.
func checkSignalSpec(spec string) error {
	parts := strings.Split(spec, ".")
	for _, part := range parts {
		if !pinPattern.MatchString(part) {
			return fmt.Errorf("%q: %w", spec, ErrInvalidSignal)
		}
	}
	switch len(parts) {
	case 1, 2:
		return nil
	case 3:
		if _, ok := parseCategory(parts[1]); !ok {
			return fmt.Errorf("%q unknown category %s: %w", spec, parts[1], ErrInvalidSignal)
		}
		return nil
	}
	return fmt.Errorf("%q: %w", spec, ErrInvalidSignal)
}
