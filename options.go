package wireup

import "github.com/dudk/wireup/log"

const (
	// DefaultSampleRate is used when graph has no sample rate option.
	DefaultSampleRate = 44100
	// DefaultBlockSize is the advertised host buffer size.
	DefaultBlockSize = 1024
	// MaxOversample is the upper bound of oversample factor.
	MaxOversample = 64
)

// Option configures a graph.
type Option func(*Graph)

// WithSampleRate sets the host sample rate. Non-positive values are
// ignored.
func WithSampleRate(sampleRate int) Option {
	return func(g *Graph) {
		if sampleRate > 0 {
			g.sampleRate = sampleRate
		}
	}
}

// WithOversample sets number of sub-steps per output sample. The value is
// clamped to [1, MaxOversample].
func WithOversample(k int) Option {
	return func(g *Graph) {
		g.oversample = clampOversample(k)
	}
}

// WithBlockSize sets the advertised host buffer size. Non-positive values
// are ignored.
func WithBlockSize(blockSize int) Option {
	return func(g *Graph) {
		if blockSize > 0 {
			g.blockSize = blockSize
		}
	}
}

// WithRegistry sets the registry used to look up block kinds.
func WithRegistry(r *Registry) Option {
	return func(g *Graph) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets the graph logger.
func WithLogger(l log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithName sets the graph name used in log messages.
func WithName(name string) Option {
	return func(g *Graph) {
		g.name = name
	}
}

// WithEmitter makes graph share notification emitter. Useful when several
// graphs are monitored by one drain goroutine.
func WithEmitter(e *Emitter) Option {
	return func(g *Graph) {
		if e != nil {
			g.events = e
		}
	}
}

func clampOversample(k int) int {
	if k < 1 {
		return 1
	}
	if k > MaxOversample {
		return MaxOversample
	}
	return k
}
