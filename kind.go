package wireup

import (
	"fmt"
	"sort"
	"sync"
)

type (
	// TickFunc is a transfer function of a block kind. It's called once per
	// sub-step and must only write out and mem pins. It must run in constant
	// time and must not allocate.
	TickFunc func(dt float64, in, out, mem Pins)

	// InitFunc seeds default values and allocates buffers of a block. It's
	// called once per compilation, before processor is published.
	InitFunc func(p *Processor, b *Block, args Args) error

	// MonitorFunc is called after processed buffers, outside of audio
	// goroutine.
	MonitorFunc func(p *Processor, b *Block)

	// MethodFunc is an externally invocable block method, like sampler's
	// trigger.
	MethodFunc func(p *Processor, b *Block, args ...float64) error
)

// Kind declares a block kind: its pins, transfer function and hooks.
type Kind struct {
	Name    string
	Inputs  []string
	Outputs []string
	Memory  []string
	// Bus lists terminals the kind writes directly from Tick.
	Bus     []Terminal
	Tick    TickFunc
	Init    InitFunc
	Monitor MonitorFunc
	Methods map[string]MethodFunc
}

func (k *Kind) pins(c Category) []string {
	switch c {
	case Input:
		return k.Inputs
	case Output:
		return k.Outputs
	case Memory:
		return k.Memory
	}
	return nil
}

func (k *Kind) validate() error {
	if k == nil {
		return fmt.Errorf("nil kind: %w", ErrInvalidKind)
	}
	if k.Name == "" {
		return fmt.Errorf("kind without name: %w", ErrInvalidKind)
	}
	if k.Tick == nil {
		return fmt.Errorf("kind %s without tick: %w", k.Name, ErrInvalidKind)
	}
	return nil
}

// Registry maps kind names to declarations.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// NewRegistry returns a registry with provided kinds. It panics if any of
// kinds is invalid.
func NewRegistry(kinds ...*Kind) *Registry {
	r := &Registry{kinds: make(map[string]*Kind)}
	if err := r.Register(kinds...); err != nil {
		panic(err)
	}
	return r
}

// Register adds kinds to the registry. Kinds with the same name are
// replaced.
func (r *Registry) Register(kinds ...*Kind) error {
	for _, k := range kinds {
		if err := k.validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range kinds {
		r.kinds[k.Name] = k
	}
	return nil
}

// Lookup returns kind by its name.
func (r *Registry) Lookup(name string) (*Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k, ok := r.kinds[name]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}

// Names returns sorted kind names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pins is an indexed view of one block's pins of one category over the
// processor working state. Index is the position of pin in kind
// declaration.
type Pins struct {
	state []float64
	bufs  [][]float64
	at    []int
}

// Len returns number of pins.
func (p Pins) Len() int {
	return len(p.at)
}

// Get returns pin value.
func (p Pins) Get(i int) float64 {
	return p.state[p.at[i]]
}

// Set assigns pin value.
func (p Pins) Set(i int, v float64) {
	p.state[p.at[i]] = v
}

// Add increments pin value.
func (p Pins) Add(i int, v float64) {
	p.state[p.at[i]] += v
}

// Buffer returns backing buffer attached to the pin, nil if none.
func (p Pins) Buffer(i int) []float64 {
	return p.bufs[p.at[i]]
}

// Bus returns terminal value.
func (p Pins) Bus(t Terminal) float64 {
	return p.state[t]
}

// SetBus assigns terminal value. Only sink kinds which declare the terminal
// should use it.
func (p Pins) SetBus(t Terminal, v float64) {
	p.state[t] = v
}

// Args are init arguments of a block.
type Args map[string]interface{}

// Has returns true if argument is set.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Float returns numeric argument or default value.
func (a Args) Float(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return def
}

// Int returns integer argument or default value.
func (a Args) Int(key string, def int) int {
	if !a.Has(key) {
		return def
	}
	return int(a.Float(key, float64(def)))
}

// Floats returns numeric slice argument.
func (a Args) Floats(key string) []float64 {
	switch v := a[key].(type) {
	case []float64:
		return v
	case []float32:
		f := make([]float64, len(v))
		for i := range v {
			f[i] = float64(v[i])
		}
		return f
	}
	return nil
}

// Args returns nested arguments.
func (a Args) Args(key string) Args {
	switch v := a[key].(type) {
	case Args:
		return v
	case map[string]interface{}:
		return Args(v)
	}
	return nil
}

// Keys returns sorted argument names.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
