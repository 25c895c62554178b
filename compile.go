package wireup

import (
	"fmt"
	"sort"
	"strings"
)

// compile builds a processor from current blocks, wires and signals. Must
// be called under graph lock.
func (g *Graph) compile() (*Processor, error) {
	var warns warnings
	if !g.outputUsed() {
		warns = append(warns, "nothing connected to the output")
		g.logger.Warn(fmt.Sprintf("graph %s: nothing connected to the output", g.name))
	}

	// bus terminals first, then block slots in registration order.
	size := int(numTerminals)
	for _, b := range g.blocks {
		for c := Input; c < numCategories; c++ {
			size += len(b.slots[c])
		}
	}
	p := newProcessor(g, size)
	p.blocks = append([]*Block(nil), g.blocks...)
	for t := Terminal(0); t < numTerminals; t++ {
		p.index[t.String()] = int(t)
	}
	at := make(map[uint64]int, size)
	next := int(numTerminals)
	for _, b := range g.blocks {
		for c := Input; c < numCategories; c++ {
			for _, s := range b.slots[c] {
				at[s.id] = next
				p.index[s.Raw()] = next
				p.index[s.Qualified()] = next
				next++
			}
		}
	}

	for _, b := range g.blocks {
		s := step{
			tick: b.kind.Tick,
			in:   p.pins(b, Input, at),
			out:  p.pins(b, Output, at),
			mem:  p.pins(b, Memory, at),
		}
		if b.producing() {
			p.producing = append(p.producing, s)
		} else {
			p.terminal = append(p.terminal, s)
		}
	}

	written := make(map[int]struct{}, len(g.wires))
	for _, w := range g.wires {
		src := endpointIndex(w.src, Output, at)
		dst := endpointIndex(w.dst, Input, at)
		_, add := written[dst]
		written[dst] = struct{}{}
		p.transmit = append(p.transmit, transmission{src: src, dst: dst, add: add})
		if w.src.IsBus() && w.src.Terminal == Ain {
			p.readsInput = true
		}
	}

	for _, name := range sortedKeys(g.signals) {
		i, err := g.resolveSignal(p, g.signals[name])
		if err != nil {
			warns = append(warns, err.Error())
			g.logger.Warn(fmt.Sprintf("graph %s: signal %s skipped: %v", g.name, name, err))
			continue
		}
		p.index[name] = i
	}
	p.warnings = warns

	for _, b := range g.blocks {
		if b.kind.Init == nil {
			continue
		}
		if err := b.kind.Init(p, b, b.args); err != nil {
			return nil, &InitError{Block: b.name, Err: err}
		}
	}
	p.load()
	p.publish()
	g.logger.Debug(fmt.Sprintf("graph %s: compiled %s with %d slots, %d producing, %d terminal blocks, %d transmissions",
		g.name, p.uid, size, len(p.producing), len(p.terminal), len(p.transmit)))
	return p, nil
}

// pins builds indexed view of block slots.
func (p *Processor) pins(b *Block, c Category, at map[uint64]int) Pins {
	slots := b.slots[c]
	idx := make([]int, len(slots))
	for i, s := range slots {
		idx[i] = at[s.id]
	}
	return Pins{state: p.work, bufs: p.view, at: idx}
}

func endpointIndex(e Endpoint, c Category, at map[uint64]int) int {
	if e.IsBus() {
		return int(e.Terminal)
	}
	return at[e.slot(c).id]
}

// outputUsed returns true if anything can write output terminals.
func (g *Graph) outputUsed() bool {
	for _, w := range g.wires {
		if w.dst.IsBus() {
			return true
		}
	}
	for _, b := range g.blocks {
		for _, t := range b.kind.Bus {
			if !t.IsInput() {
				return true
			}
		}
	}
	return false
}

// resolveSignal finds slot index of signal target.
func (g *Graph) resolveSignal(p *Processor, spec string) (int, error) {
	if t, ok := ParseTerminal(spec); ok {
		return int(t), nil
	}
	parts := strings.Split(spec, ".")
	switch len(parts) {
	case 2:
		b := g.lookup(parts[0])
		if b == nil {
			return 0, fmt.Errorf("%q unknown block: %w", spec, ErrUnknownSlot)
		}
		var found []Slot
		for c := Input; c < numCategories; c++ {
			if s, ok := b.Slot(c, parts[1]); ok {
				found = append(found, s)
			}
		}
		switch len(found) {
		case 0:
			return 0, fmt.Errorf("%q: %w", spec, ErrUnknownSlot)
		case 1:
			return p.index[found[0].Qualified()], nil
		}
		return 0, fmt.Errorf("%q is ambiguous between %d categories: %w", spec, len(found), ErrInvalidSignal)
	}
	if i, ok := p.index[spec]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("%q: %w", spec, ErrUnknownSlot)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
