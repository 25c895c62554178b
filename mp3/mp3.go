// Package mp3 encodes rendered stereo signal with lame.
package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/viert/lame"
)

// DefaultBitRate is used when zero bit rate is passed to NewSink.
const DefaultBitRate = 192

// ErrClosed is returned when sink is used after Close.
var ErrClosed = errors.New("mp3 sink is closed")

// Processor computes stereo buffers.
type Processor interface {
	Process(in, outL, outR []float64)
}

// Sink writes stereo signal into mp3 stream.
type Sink struct {
	wr     *lame.LameWriter
	buf    []byte
	closed bool
}

// NewSink creates joint stereo VBR encoder. Quality is lame quality from 0
// (best) to 9 (fastest).
func NewSink(w io.Writer, sampleRate, bitRate, quality int) (*Sink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if quality < 0 || quality > 9 {
		return nil, fmt.Errorf("invalid quality %d", quality)
	}
	if bitRate == 0 {
		bitRate = DefaultBitRate
	}
	wr := lame.NewWriter(w)
	wr.Encoder.SetBitrate(bitRate)
	wr.Encoder.SetQuality(quality)
	wr.Encoder.SetNumChannels(2)
	wr.Encoder.SetInSamplerate(sampleRate)
	wr.Encoder.SetMode(lame.JOINT_STEREO)
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()
	return &Sink{wr: wr}, nil
}

// Write encodes channels as interleaved 16 bit samples. Samples are
// clipped to [-1, 1].
func (s *Sink) Write(outL, outR []float64) error {
	if s.closed {
		return ErrClosed
	}
	n := len(outL)
	if len(outR) < n {
		n = len(outR)
	}
	if size := 4 * n; cap(s.buf) < size {
		s.buf = make([]byte, size)
	} else {
		s.buf = s.buf[:size]
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(s.buf[4*i:], uint16(pcm16(outL[i])))
		binary.LittleEndian.PutUint16(s.buf[4*i+2:], uint16(pcm16(outR[i])))
	}
	_, err := s.wr.Write(s.buf)
	return err
}

// Close flushes encoder. Underlying writer is not closed.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.wr.Close()
}

func pcm16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}

// Render processes frames in buffers of blockSize and encodes them.
func Render(p Processor, sink *Sink, frames, blockSize int) error {
	if blockSize <= 0 {
		return fmt.Errorf("invalid block size %d", blockSize)
	}
	outL, outR := make([]float64, blockSize), make([]float64, blockSize)
	for done := 0; done < frames; done += blockSize {
		n := blockSize
		if left := frames - done; left < n {
			n = left
		}
		p.Process(nil, outL[:n], outR[:n])
		if err := sink.Write(outL[:n], outR[:n]); err != nil {
			return err
		}
	}
	return nil
}
