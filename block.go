package wireup

import "fmt"

// Block is a named instance of a kind. Its slots are allocated once and
// survive recompilations.
type Block struct {
	name  string
	kind  *Kind
	args  Args
	slots [numCategories][]Slot
}

// newBlock allocates slots for every declared pin of the kind.
func newBlock(name string, kind *Kind, args Args) (*Block, error) {
	if !pinPattern.MatchString(name) {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if _, ok := ParseTerminal(name); ok {
		return nil, fmt.Errorf("%q is a bus terminal: %w", name, ErrInvalidName)
	}
	if err := kind.validate(); err != nil {
		return nil, err
	}
	if args == nil {
		args = Args{}
	}
	b := &Block{
		name: name,
		kind: kind,
		args: args,
	}
	for c := Input; c < numCategories; c++ {
		slots, err := allocate(name, c, kind.pins(c))
		if err != nil {
			return nil, err
		}
		b.slots[c] = slots
	}
	return b, nil
}

// Name returns block name.
func (b *Block) Name() string {
	return b.name
}

// Kind returns block kind.
func (b *Block) Kind() *Kind {
	return b.kind
}

// Args returns init arguments.
func (b *Block) Args() Args {
	return b.args
}

// Slots returns block slots of category.
func (b *Block) Slots(c Category) []Slot {
	if c < 0 || c >= numCategories {
		return nil
	}
	return b.slots[c]
}

// Slot returns block slot by category and pin name.
func (b *Block) Slot(c Category, pin string) (Slot, bool) {
	for _, s := range b.Slots(c) {
		if s.Pin == pin {
			return s, true
		}
	}
	return Slot{}, false
}

// Raw returns raw slot name of the pin, empty if there is no such pin.
func (b *Block) Raw(c Category, pin string) string {
	if s, ok := b.Slot(c, pin); ok {
		return s.Raw()
	}
	return ""
}

// producing blocks have at least one output and run in the oversampled
// loop. Others are sinks and run once per sample.
func (b *Block) producing() bool {
	return len(b.slots[Output]) > 0
}

// Call invokes kind method against processor.
func (b *Block) Call(p *Processor, method string, args ...float64) error {
	fn, ok := b.kind.Methods[method]
	if !ok {
		return fmt.Errorf("%s.%s: %w", b.name, method, ErrUnknownMethod)
	}
	return fn(p, b, args...)
}

func (b *Block) String() string {
	return fmt.Sprintf("%s(%s)", b.name, b.kind.Name)
}
