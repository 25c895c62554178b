package wireup

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

// step is one tick call of the compiled instruction list.
type step struct {
	tick TickFunc
	in   Pins
	out  Pins
	mem  Pins
}

// transmission moves value of source slot into destination slot. The first
// wire into a destination overwrites it, others add.
type transmission struct {
	src int
	dst int
	add bool
}

// handoff carries state of replaced processor. It's applied by the first
// Process call of new processor, on the goroutine that ran the old one.
// source maps destination index to index in from.
type handoff struct {
	from   *Processor
	pairs  [][2]int
	source map[int]int
}

// Processor is a compiled graph. Its instruction list, transmission table
// and slot layout never change after compilation. Only slot values and
// buffer contents do.
//
// Process must be called from a single goroutine. Get, Set, Buffer and
// SetBuffer are safe to call concurrently with Process: writes are
// applied at the start of next processed buffer and reads observe values
// published at the end of last processed buffer.
type Processor struct {
	uid        string
	graph      *Graph
	sampleRate int
	blockSize  int
	oversample int
	dt         float64

	blocks     []*Block
	producing  []step
	terminal   []step
	transmit   []transmission
	readsInput bool

	index    map[string]int
	warnings warnings

	// work and view are owned by the goroutine calling Process.
	work []float64
	view [][]float64

	published []uint64
	mailbox   []uint64
	pending   []uint32
	dirty     uint32
	buffers   []atomic.Pointer[[]float64]
	bufDirty  uint32
	handoff   atomic.Pointer[handoff]
	frames    uint64
}

func newProcessor(g *Graph, size int) *Processor {
	return &Processor{
		uid:        newUID(),
		graph:      g,
		sampleRate: g.sampleRate,
		blockSize:  g.blockSize,
		oversample: g.oversample,
		dt:         1 / float64(g.oversample*g.sampleRate),
		index:      make(map[string]int),
		work:       make([]float64, size),
		view:       make([][]float64, size),
		published:  make([]uint64, size),
		mailbox:    make([]uint64, size),
		pending:    make([]uint32, size),
		buffers:    make([]atomic.Pointer[[]float64], size),
	}
}

// ID returns processor id.
func (p *Processor) ID() string {
	return p.uid
}

// Graph returns the graph processor was compiled from.
func (p *Processor) Graph() *Graph {
	return p.graph
}

// SampleRate returns host sample rate.
func (p *Processor) SampleRate() int {
	return p.sampleRate
}

// BlockSize returns advertised host buffer size.
func (p *Processor) BlockSize() int {
	return p.blockSize
}

// Oversample returns number of sub-steps per sample.
func (p *Processor) Oversample() int {
	return p.oversample
}

// TickRate returns number of sub-steps per second. Kinds should design
// their coefficients with it.
func (p *Processor) TickRate() float64 {
	return float64(p.sampleRate * p.oversample)
}

// Blocks returns compiled blocks in registration order.
func (p *Processor) Blocks() []*Block {
	return append([]*Block(nil), p.blocks...)
}

// block returns compiled block by name.
func (p *Processor) block(name string) *Block {
	for _, b := range p.blocks {
		if b.name == name {
			return b
		}
	}
	return nil
}

// Warnings returns non-fatal compilation findings.
func (p *Processor) Warnings() []string {
	return append([]string(nil), p.warnings...)
}

// Frames returns number of processed frames.
func (p *Processor) Frames() uint64 {
	return atomic.LoadUint64(&p.frames)
}

// Names returns sorted names of all addressable slots: terminals, raw
// names, qualified names and signals.
func (p *Processor) Names() []string {
	names := make([]string, 0, len(p.index))
	for name := range p.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns true if name is addressable.
func (p *Processor) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

func (p *Processor) lookup(name string) (int, error) {
	i, ok := p.index[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownSlot)
	}
	return i, nil
}

// Get returns slot value by terminal, raw, qualified or signal name.
func (p *Processor) Get(name string) (float64, error) {
	i, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(atomic.LoadUint64(&p.published[i])), nil
}

// Set assigns slot value by terminal, raw, qualified or signal name. The
// value is observed by processing from the next buffer.
func (p *Processor) Set(name string, v float64) error {
	i, err := p.lookup(name)
	if err != nil {
		return err
	}
	bits := math.Float64bits(v)
	atomic.StoreUint64(&p.mailbox[i], bits)
	atomic.StoreUint64(&p.published[i], bits)
	atomic.StoreUint32(&p.pending[i], 1)
	atomic.StoreUint32(&p.dirty, 1)
	return nil
}

// Buffer returns backing buffer attached to the slot, nil if none.
func (p *Processor) Buffer(name string) ([]float64, error) {
	i, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	if b := p.buffers[i].Load(); b != nil {
		return *b, nil
	}
	return nil, nil
}

// SetBuffer attaches backing buffer to the slot. Buffer is visible to
// kinds from the next processed buffer.
func (p *Processor) SetBuffer(name string, buf []float64) error {
	i, err := p.lookup(name)
	if err != nil {
		return err
	}
	p.buffers[i].Store(&buf)
	atomic.StoreUint32(&p.bufDirty, 1)
	return nil
}

// Process computes one buffer. Input is optional and feeds the "ain"
// terminal when it's wired. Number of frames is the length of shortest
// output channel.
func (p *Processor) Process(in, outL, outR []float64) {
	p.load()
	n := len(outL)
	if len(outR) < n {
		n = len(outR)
	}
	w := p.work
	for i := 0; i < n; i++ {
		if p.readsInput && i < len(in) {
			w[Ain] = in[i]
		}
		for k := 0; k < p.oversample; k++ {
			for j := range p.producing {
				s := &p.producing[j]
				s.tick(p.dt, s.in, s.out, s.mem)
			}
			for _, t := range p.transmit {
				if t.add {
					w[t.dst] += w[t.src]
				} else {
					w[t.dst] = w[t.src]
				}
			}
		}
		for j := range p.terminal {
			s := &p.terminal[j]
			s.tick(p.dt, s.in, s.out, s.mem)
		}
		outL[i] = w[AoutL] + w[Aout]
		outR[i] = w[AoutR] + w[Aout]
	}
	p.publish()
	atomic.AddUint64(&p.frames, uint64(n))
	p.graph.events.Post(Event{Type: EventAudioProcess, Graph: p.graph, Processor: p})
}

// load brings external changes into working state: state handed off by
// replaced processor, then pending writes, then buffer attachments.
func (p *Processor) load() {
	if h := p.handoff.Swap(nil); h != nil {
		for _, pair := range h.pairs {
			p.work[pair[1]] = h.from.value(pair[0])
		}
	}
	if atomic.CompareAndSwapUint32(&p.dirty, 1, 0) {
		for i := range p.pending {
			if atomic.CompareAndSwapUint32(&p.pending[i], 1, 0) {
				p.work[i] = math.Float64frombits(atomic.LoadUint64(&p.mailbox[i]))
			}
		}
	}
	if atomic.CompareAndSwapUint32(&p.bufDirty, 1, 0) {
		for i := range p.buffers {
			if b := p.buffers[i].Load(); b != nil {
				p.view[i] = *b
			} else {
				p.view[i] = nil
			}
		}
	}
}

// value returns working value of the slot or the pending write if it
// wasn't applied yet. A processor replaced before it ever ran still holds
// its own handoff, then the value comes from the processor it replaced.
func (p *Processor) value(i int) float64 {
	if atomic.LoadUint32(&p.pending[i]) == 1 {
		return math.Float64frombits(atomic.LoadUint64(&p.mailbox[i]))
	}
	if h := p.handoff.Load(); h != nil {
		if j, ok := h.source[i]; ok {
			return h.from.value(j)
		}
	}
	return p.work[i]
}

// publish exposes working state to readers. Slots with pending writes keep
// the written value.
func (p *Processor) publish() {
	for i, v := range p.work {
		if atomic.LoadUint32(&p.pending[i]) == 0 {
			atomic.StoreUint64(&p.published[i], math.Float64bits(v))
		}
	}
}

// monitor runs monitor hooks of blocks.
func (p *Processor) monitor() {
	for _, b := range p.blocks {
		if b.kind.Monitor != nil {
			b.kind.Monitor(p, b)
		}
	}
}

func (p *Processor) String() string {
	return fmt.Sprintf("%s/%s", p.graph, p.uid)
}

// TransferState copies values of every qualified slot common to both
// processors from src to dst. Buffers are shared when dst has none or has
// one of the same length. It must
// be called before dst is processed for the first time. Values which src
// computes after the call are handed off to dst by its first Process call,
// which therefore must run on the goroutine that processed src.
func TransferState(src, dst *Processor) {
	if src == nil || dst == nil || src == dst {
		return
	}
	pairs := make([][2]int, 0, len(dst.index))
	for t := Terminal(0); t < numTerminals; t++ {
		pairs = append(pairs, [2]int{int(t), int(t)})
	}
	for _, b := range dst.blocks {
		for c := Input; c < numCategories; c++ {
			for _, s := range b.slots[c] {
				name := s.Qualified()
				from, ok := src.index[name]
				if !ok {
					continue
				}
				to := dst.index[name]
				pairs = append(pairs, [2]int{from, to})
				if buf := src.buffers[from].Load(); buf != nil {
					if cur := dst.buffers[to].Load(); cur == nil || len(*cur) == len(*buf) {
						dst.buffers[to].Store(buf)
						atomic.StoreUint32(&dst.bufDirty, 1)
					}
				}
			}
		}
	}
	for _, pair := range pairs {
		if atomic.LoadUint32(&dst.pending[pair[1]]) == 1 {
			continue
		}
		bits := atomic.LoadUint64(&src.published[pair[0]])
		dst.work[pair[1]] = math.Float64frombits(bits)
		atomic.StoreUint64(&dst.published[pair[1]], bits)
	}
	source := make(map[int]int, len(pairs))
	for _, pair := range pairs {
		source[pair[1]] = pair[0]
	}
	dst.handoff.Store(&handoff{from: src, pairs: pairs, source: source})
}
