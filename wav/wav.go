// Package wav renders processors into wav files and feeds wav files into
// the input terminal.
package wav

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

// ErrInvalidFile is returned when source is not a valid wav file.
var ErrInvalidFile = errors.New("wav is not valid")

// Processor computes stereo buffers. Both *wireup.Engine and
// *wireup.Processor implement it.
type Processor interface {
	Process(in, outL, outR []float64)
}

type (
	// Source reads mono signal from wav file. Multichannel files are
	// downmixed.
	Source struct {
		decoder     *wav.Decoder
		ib          *audio.IntBuffer
		numChannels int
		scale       float64
	}

	// Sink encodes stereo signal into wav file.
	Sink struct {
		encoder *wav.Encoder
		ib      *audio.IntBuffer
		max     float64
	}
)

func supported(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}

// NewSource validates the wav file and prepares decoding.
func NewSource(rs io.ReadSeeker) (*Source, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}
	bitDepth := int(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, fmt.Errorf("%d: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	return &Source{
		decoder:     decoder,
		numChannels: int(decoder.NumChans),
		scale:       1 / float64(int64(1)<<(bitDepth-1)),
		ib: &audio.IntBuffer{
			Format:         decoder.Format(),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// SampleRate returns sample rate of the file.
func (s *Source) SampleRate() int {
	return int(s.decoder.SampleRate)
}

// Read fills buffer with next samples and returns their number. It returns
// io.EOF when there is no data left.
func (s *Source) Read(in []float64) (int, error) {
	if size := len(in) * s.numChannels; cap(s.ib.Data) < size {
		s.ib.Data = make([]int, size)
	} else {
		s.ib.Data = s.ib.Data[:size]
	}
	read, err := s.decoder.PCMBuffer(s.ib)
	if err != nil {
		return 0, err
	}
	if read == 0 {
		return 0, io.EOF
	}
	frames := read / s.numChannels
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < s.numChannels; c++ {
			sum += s.ib.Data[i*s.numChannels+c]
		}
		in[i] = float64(sum) * s.scale / float64(s.numChannels)
	}
	return frames, nil
}

// NewSink creates stereo wav encoder.
func NewSink(ws io.WriteSeeker, sampleRate, bitDepth int) (*Sink, error) {
	if !supported(bitDepth) {
		return nil, fmt.Errorf("%d: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	return &Sink{
		encoder: wav.NewEncoder(ws, sampleRate, bitDepth, 2, 1),
		max:     float64(int64(1)<<(bitDepth-1) - 1),
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 2,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write encodes interleaved channels. Samples are clipped to [-1, 1].
func (s *Sink) Write(outL, outR []float64) error {
	n := len(outL)
	if len(outR) < n {
		n = len(outR)
	}
	if cap(s.ib.Data) < 2*n {
		s.ib.Data = make([]int, 2*n)
	}
	s.ib.Data = s.ib.Data[:2*n]
	for i := 0; i < n; i++ {
		s.ib.Data[2*i] = s.quantize(outL[i])
		s.ib.Data[2*i+1] = s.quantize(outR[i])
	}
	return s.encoder.Write(s.ib)
}

func (s *Sink) quantize(v float64) int {
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int(v * s.max)
}

// Close finalizes wav headers. It doesn't close underlying writer.
func (s *Sink) Close() error {
	return s.encoder.Close()
}

// Render processes frames in buffers of blockSize and writes them into
// sink. Source is optional, its signal is passed as input and silence
// follows its end.
func Render(p Processor, sink *Sink, source *Source, frames, blockSize int) error {
	if blockSize <= 0 {
		return fmt.Errorf("invalid block size %d", blockSize)
	}
	var (
		in         []float64
		outL, outR = make([]float64, blockSize), make([]float64, blockSize)
		sourceDone bool
	)
	if source != nil {
		in = make([]float64, blockSize)
	}
	for done := 0; done < frames; {
		n := blockSize
		if left := frames - done; left < n {
			n = left
		}
		if source != nil {
			read := 0
			if !sourceDone {
				var err error
				read, err = source.Read(in[:n])
				if err == io.EOF {
					sourceDone = true
				} else if err != nil {
					return err
				}
			}
			for i := read; i < n; i++ {
				in[i] = 0
			}
		}
		var input []float64
		if in != nil {
			input = in[:n]
		}
		p.Process(input, outL[:n], outR[:n])
		if err := sink.Write(outL[:n], outR[:n]); err != nil {
			return err
		}
		done += n
	}
	return nil
}
