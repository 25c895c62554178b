package wireup

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dudk/wireup/log"
	"github.com/dudk/wireup/metric"
)

// EngineOption configures an engine.
type EngineOption func(*Engine)

// WithMetric enables engine metrics under provided component name.
func WithMetric(component string) EngineOption {
	return func(e *Engine) {
		e.component = component
	}
}

// WithEngineLogger sets the engine logger. Graph logger is used by default.
func WithEngineLogger(l log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine drives the active processor of a graph. Sync is called from
// control goroutines, Process from the audio goroutine. The active
// processor is replaced atomically, so Process observes either old or new
// processor and never a partial one.
type Engine struct {
	graph     *Graph
	logger    log.Logger
	component string
	measure   metric.MeasureFunc

	mu     sync.Mutex
	active atomic.Pointer[Processor]
	swaps  uint64
}

// NewEngine returns engine without active processor. Call Sync to compile
// and activate graph.
func NewEngine(g *Graph, options ...EngineOption) *Engine {
	e := &Engine{
		graph:  g,
		logger: g.logger,
	}
	for _, option := range options {
		option(e)
	}
	if e.component != "" {
		e.measure = metric.Meter(e.component, g.sampleRate)()
	}
	return e
}

// Graph returns driven graph.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Active returns active processor, nil if there is none.
func (e *Engine) Active() *Processor {
	return e.active.Load()
}

// Swaps returns number of activated processors.
func (e *Engine) Swaps() uint64 {
	return atomic.LoadUint64(&e.swaps)
}

// Sync activates the current processor of the graph. If graph changed,
// it's recompiled and state of the active processor is transferred before
// the swap. Compilation error leaves active processor running.
func (e *Engine) Sync() (*Processor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.graph.Processor()
	if err != nil {
		return e.active.Load(), fmt.Errorf("sync %s: %w", e.graph, err)
	}
	e.swap(p)
	return p, nil
}

// Swap activates provided processor and returns the replaced one. State of
// the replaced processor is transferred.
func (e *Engine) Swap(p *Processor) *Processor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swap(p)
}

func (e *Engine) swap(p *Processor) *Processor {
	old := e.active.Load()
	if old == p {
		return old
	}
	TransferState(old, p)
	e.active.Store(p)
	atomic.AddUint64(&e.swaps, 1)
	if e.component != "" {
		metric.Swapped(e.component)
	}
	if old != nil {
		e.logger.Debug(fmt.Sprintf("engine %s: swapped %s -> %s", e.graph, old.ID(), p.ID()))
	}
	return old
}

// Process computes one buffer with active processor. Without active
// processor outputs are silent.
func (e *Engine) Process(in, outL, outR []float64) {
	p := e.active.Load()
	if p == nil {
		for i := range outL {
			outL[i] = 0
		}
		for i := range outR {
			outR[i] = 0
		}
		return
	}
	p.Process(in, outL, outR)
	if e.measure != nil {
		e.measure(int64(len(outL)))
	}
}

// Get reads slot of active processor.
func (e *Engine) Get(name string) (float64, error) {
	p := e.active.Load()
	if p == nil {
		return 0, ErrNoProcessor
	}
	return p.Get(name)
}

// Set writes slot of active processor.
func (e *Engine) Set(name string, v float64) error {
	p := e.active.Load()
	if p == nil {
		return ErrNoProcessor
	}
	return p.Set(name, v)
}

// Call invokes block method against active processor. Block is the
// instance compiled into it, edits not yet synced are not visible.
func (e *Engine) Call(block, method string, args ...float64) error {
	p := e.active.Load()
	if p == nil {
		return ErrNoProcessor
	}
	b := p.block(block)
	if b == nil {
		return fmt.Errorf("%q: %w", block, ErrUnknownSlot)
	}
	return b.Call(p, method, args...)
}
