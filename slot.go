package wireup

import (
	"fmt"
	"regexp"
	"sync/atomic"
)

// Category of a slot: input port, output port or memory cell.
type Category int

const (
	// Input is a block input port.
	Input Category = iota
	// Output is a block output port.
	Output
	// Memory is a persistent memory cell.
	Memory
	numCategories
)

// String returns the category prefix used in slot names.
func (c Category) String() string {
	switch c {
	case Input:
		return "ain"
	case Output:
		return "aout"
	case Memory:
		return "mem"
	}
	return "unknown"
}

func parseCategory(s string) (Category, bool) {
	for c := Input; c < numCategories; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Terminal is one of the global bus terminals. Terminals occupy the first
// slots of every processor state.
type Terminal int

// Bus terminals.
const (
	Ain Terminal = iota
	Aout
	AinL
	AinR
	AoutL
	AoutR
	numTerminals
)

var terminalNames = [numTerminals]string{"ain", "aout", "ainL", "ainR", "aoutL", "aoutR"}

func (t Terminal) String() string {
	if t < 0 || t >= numTerminals {
		return "unknown"
	}
	return terminalNames[t]
}

// IsInput returns true for terminals carrying external input.
func (t Terminal) IsInput() bool {
	return t == Ain || t == AinL || t == AinR
}

// ParseTerminal resolves bare terminal name.
func ParseTerminal(s string) (Terminal, bool) {
	for i, name := range terminalNames {
		if name == s {
			return Terminal(i), true
		}
	}
	return 0, false
}

// Slot is a uniquely identified storage location bound to a single
// (block, category, pin) triple.
type Slot struct {
	Block    string
	Category Category
	Pin      string
	id       uint64
}

// slotCounter is shared by all graphs, so two instances of the same kind
// never get the same raw names.
var slotCounter uint64

var pinPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)

// ID returns unique slot identifier.
func (s Slot) ID() uint64 {
	return s.id
}

// Raw returns the name in "<category>_<pin>_<id>" form.
func (s Slot) Raw() string {
	return fmt.Sprintf("%s_%s_%d", s.Category, s.Pin, s.id)
}

// Qualified returns the name in "<block>.<category>.<pin>" form.
func (s Slot) Qualified() string {
	return fmt.Sprintf("%s.%s.%s", s.Block, s.Category, s.Pin)
}

func (s Slot) String() string {
	return s.Qualified()
}

// allocate derives distinct pin names of one category and assigns fresh
// slots to them. Declaration order is kept.
func allocate(block string, c Category, pins []string) ([]Slot, error) {
	slots := make([]Slot, 0, len(pins))
	seen := make(map[string]struct{}, len(pins))
	for _, pin := range pins {
		if !pinPattern.MatchString(pin) {
			return nil, fmt.Errorf("%s.%s.%q: %w", block, c, pin, ErrMalformedPin)
		}
		if _, ok := seen[pin]; ok {
			continue
		}
		seen[pin] = struct{}{}
		slots = append(slots, Slot{
			Block:    block,
			Category: c,
			Pin:      pin,
			id:       atomic.AddUint64(&slotCounter, 1),
		})
	}
	return slots, nil
}
