// Package stream exposes processors as beep streamers.
package stream

import (
	"github.com/gopxl/beep"
)

// Processor computes stereo buffers.
type Processor interface {
	Process(in, outL, outR []float64)
}

// Streamer is an endless beep.Streamer over processor. Optional input
// streamer is downmixed into input bus, silence follows its end.
type Streamer struct {
	p     Processor
	input beep.Streamer

	in, outL, outR []float64
	frames         [][2]float64
	err            error
}

// New allocates buffers of blockSize frames. Input can be nil.
func New(p Processor, blockSize int, input beep.Streamer) *Streamer {
	if blockSize <= 0 {
		blockSize = 512
	}
	s := &Streamer{
		p:     p,
		input: input,
		outL:  make([]float64, blockSize),
		outR:  make([]float64, blockSize),
	}
	if input != nil {
		s.in = make([]float64, blockSize)
		s.frames = make([][2]float64, blockSize)
	}
	return s
}

// Format returns stereo beep format for sample rate.
func Format(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}

// Stream fills samples. It never drains.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	for done := 0; done < len(samples); {
		n := len(s.outL)
		if left := len(samples) - done; left < n {
			n = left
		}
		var in []float64
		if s.in != nil {
			in = s.read(n)
		}
		s.p.Process(in, s.outL[:n], s.outR[:n])
		for i := 0; i < n; i++ {
			samples[done+i] = [2]float64{s.outL[i], s.outR[i]}
		}
		done += n
	}
	return len(samples), true
}

func (s *Streamer) read(n int) []float64 {
	in := s.in[:n]
	read := 0
	for read < n && s.input != nil {
		r, ok := s.input.Stream(s.frames[read:n])
		for i := read; i < read+r; i++ {
			in[i] = (s.frames[i][0] + s.frames[i][1]) / 2
		}
		read += r
		if !ok || r == 0 {
			s.err = s.input.Err()
			s.input = nil
		}
	}
	for i := read; i < n; i++ {
		in[i] = 0
	}
	return in
}

// Err returns the error of input streamer, if any.
func (s *Streamer) Err() error {
	return s.err
}
