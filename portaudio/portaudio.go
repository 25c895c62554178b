// Package portaudio plays processors through the default audio device.
package portaudio

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ErrStarted is returned when host is started twice.
var ErrStarted = errors.New("host is already started")

// Processor computes stereo buffers from optional mono input.
type Processor interface {
	Process(in, outL, outR []float64)
}

type (
	// Host drives processor from the default stream callback. Stream is
	// non-interleaved float32 with two output channels and optional mono
	// input.
	Host struct {
		p          Processor
		sampleRate int
		blockSize  int
		input      bool

		mu     sync.Mutex
		stream *portaudio.Stream

		in, outL, outR []float64
	}

	// Option configures host.
	Option func(*Host)
)

// WithInput opens one input channel and feeds it into input bus.
func WithInput() Option {
	return func(h *Host) {
		h.input = true
	}
}

// NewHost allocates scratch buffers of blockSize frames.
func NewHost(p Processor, sampleRate, blockSize int, options ...Option) *Host {
	h := &Host{
		p:          p,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		in:         make([]float64, blockSize),
		outL:       make([]float64, blockSize),
		outR:       make([]float64, blockSize),
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Start initializes portaudio and starts the default stream.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream != nil {
		return ErrStarted
	}
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	inputs := 0
	if h.input {
		inputs = 1
	}
	stream, err := portaudio.OpenDefaultStream(inputs, 2, float64(h.sampleRate), h.blockSize, h.callback)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	h.stream = stream
	return nil
}

// Stop stops and closes the stream and terminates portaudio. Stopped host
// can be started again.
func (h *Host) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stream == nil {
		return nil
	}
	stream := h.stream
	h.stream = nil
	if err := stream.Stop(); err != nil {
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}

// callback converts device buffers through float64 scratch. Device buffers
// larger than scratch are processed in chunks.
func (h *Host) callback(in, out [][]float32) {
	if len(out) < 2 {
		return
	}
	frames := len(out[0])
	for done := 0; done < frames; done += h.blockSize {
		n := h.blockSize
		if left := frames - done; left < n {
			n = left
		}
		var input []float64
		if len(in) > 0 {
			input = h.in[:n]
			for i := range input {
				input[i] = float64(in[0][done+i])
			}
		}
		h.p.Process(input, h.outL[:n], h.outR[:n])
		for i := 0; i < n; i++ {
			out[0][done+i] = float32(h.outL[i])
			out[1][done+i] = float32(h.outR[i])
		}
	}
}
