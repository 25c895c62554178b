package wireup

import (
	"fmt"
	"strings"
)

// Endpoint is one side of a wire: either a block pin or a bus terminal.
type Endpoint struct {
	Block    *Block
	Pin      string
	Terminal Terminal
}

// IsBus returns true if endpoint is a bus terminal.
func (e Endpoint) IsBus() bool {
	return e.Block == nil
}

func (e Endpoint) String() string {
	if e.IsBus() {
		return e.Terminal.String()
	}
	return e.Block.name + "." + e.Pin
}

// slot returns the storage slot of block endpoint.
func (e Endpoint) slot(c Category) Slot {
	s, _ := e.Block.Slot(c, e.Pin)
	return s
}

// Wire carries value of source output to destination input.
type Wire struct {
	name string
	src  Endpoint
	dst  Endpoint
}

func newWire(src, dst Endpoint) *Wire {
	return &Wire{
		name: wireName(src, dst),
		src:  src,
		dst:  dst,
	}
}

// wireName is the canonical wire identity.
func wireName(src, dst Endpoint) string {
	return src.String() + "->" + dst.String()
}

// Name returns canonical wire name.
func (w *Wire) Name() string {
	return w.name
}

// Source returns source endpoint.
func (w *Wire) Source() Endpoint {
	return w.src
}

// Dest returns destination endpoint.
func (w *Wire) Dest() Endpoint {
	return w.dst
}

// touches returns true if any of endpoints is the block.
func (w *Wire) touches(b *Block) bool {
	return w.src.Block == b || w.dst.Block == b
}

func (w *Wire) String() string {
	return w.name
}

// resolveEndpoint parses "block.pin" or bare terminal spec. Sources must be
// block outputs or input terminals, destinations must be block inputs or
// output terminals.
func resolveEndpoint(spec string, c Category, lookup func(string) *Block) (Endpoint, error) {
	blockName, pin, ok := strings.Cut(spec, ".")
	if !ok {
		t, ok := ParseTerminal(spec)
		if !ok {
			return Endpoint{}, fmt.Errorf("%q is not a terminal: %w", spec, ErrInvalidEndpoint)
		}
		if t.IsInput() != (c == Output) {
			return Endpoint{}, fmt.Errorf("terminal %q cannot be a wire %s: %w", spec, side(c), ErrInvalidEndpoint)
		}
		return Endpoint{Terminal: t}, nil
	}
	b := lookup(blockName)
	if b == nil {
		return Endpoint{}, fmt.Errorf("%q unknown block: %w", spec, ErrInvalidEndpoint)
	}
	if _, ok := b.Slot(c, pin); !ok {
		return Endpoint{}, fmt.Errorf("%q block %s has no %s pin %s: %w", spec, b, c, pin, ErrInvalidEndpoint)
	}
	return Endpoint{Block: b, Pin: pin}, nil
}

func side(c Category) string {
	if c == Output {
		return "source"
	}
	return "destination"
}
