// Package midi maps MIDI controller input onto processor signals.
package midi

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rakyll/portmidi"

	"github.com/dudk/wireup/log"
)

const (
	noteOff       = 0x80
	noteOn        = 0x90
	controlChange = 0xb0

	readSize     = 1024
	pollInterval = 2 * time.Millisecond
)

// Setter receives mapped values. Both *wireup.Engine and *wireup.Processor
// implement it.
type Setter interface {
	Set(name string, v float64) error
}

// RangeFunc maps 7 bit controller value into signal range.
type RangeFunc func(int64) float64

// Linear maps [0, 127] onto [low, high].
func Linear(low, high float64) RangeFunc {
	return func(v int64) float64 {
		return low + (high-low)*norm(v)
	}
}

// Exponential maps [0, 127] onto [low, high] with equal ratio per step.
// Both bounds must be positive.
func Exponential(low, high float64) RangeFunc {
	return func(v int64) float64 {
		return low * math.Pow(high/low, norm(v))
	}
}

func norm(v int64) float64 {
	switch {
	case v < 0:
		v = 0
	case v > 127:
		v = 127
	}
	return float64(v) / 127
}

// NoteFrequency returns equal tempered frequency of note, A4 is 440 Hz.
func NoteFrequency(note int64) float64 {
	return 440 * math.Pow(2, (float64(note)-69)/12)
}

type binding struct {
	signal string
	mapf   RangeFunc
}

// Controller dispatches control changes and notes to bound signals.
type Controller struct {
	target Setter
	logger log.Logger

	mu        sync.Mutex
	controls  map[int64]binding
	last      map[int64]int64
	frequency string
	gate      string
	note      int64
	stream    *portmidi.Stream
}

// NewController creates controller without device. Messages can be
// delivered with Handle.
func NewController(target Setter, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.Silent
	}
	return &Controller{
		target:   target,
		logger:   logger,
		controls: make(map[int64]binding),
		last:     make(map[int64]int64),
		note:     -1,
	}
}

// Bind maps controller number onto signal. Nil range maps to [0, 1].
func (c *Controller) Bind(control int64, signal string, mapf RangeFunc) {
	if mapf == nil {
		mapf = Linear(0, 1)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls[control] = binding{signal: signal, mapf: mapf}
}

// Unbind removes controller mapping.
func (c *Controller) Unbind(control int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.controls, control)
}

// BindNotes sets note frequency into frequency signal and velocity into
// gate signal. Empty name disables the target.
func (c *Controller) BindNotes(frequency, gate string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frequency, c.gate = frequency, gate
}

// Last returns the last value received from controller.
func (c *Controller) Last(control int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.last[control]
	return v, ok
}

// Handle dispatches events. Channel is ignored. The first error is
// returned, remaining events are still handled.
func (c *Controller) Handle(events ...portmidi.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	for _, ev := range events {
		switch ev.Status & 0xf0 {
		case controlChange:
			c.last[ev.Data1] = ev.Data2
			if b, ok := c.controls[ev.Data1]; ok {
				keep(c.set(b.signal, b.mapf(ev.Data2)))
			}
		case noteOn:
			if ev.Data2 == 0 {
				keep(c.release(ev.Data1))
				continue
			}
			c.note = ev.Data1
			keep(c.set(c.frequency, NoteFrequency(ev.Data1)))
			keep(c.set(c.gate, norm(ev.Data2)))
		case noteOff:
			keep(c.release(ev.Data1))
		default:
			c.logger.Debug(fmt.Sprintf("midi: skip status %#x", ev.Status))
		}
	}
	return first
}

// release closes gate only for the sounding note.
func (c *Controller) release(note int64) error {
	if note != c.note {
		return nil
	}
	c.note = -1
	return c.set(c.gate, 0)
}

func (c *Controller) set(signal string, v float64) error {
	if signal == "" {
		return nil
	}
	if err := c.target.Set(signal, v); err != nil {
		return fmt.Errorf("midi: set %s: %w", signal, err)
	}
	return nil
}

// Open starts reading from input device. Portmidi must be initialized.
func (c *Controller) Open(id portmidi.DeviceID) error {
	stream, err := portmidi.NewInputStream(id, readSize)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()
	return nil
}

// Run polls the opened device until context is done. Set errors are
// logged.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	stream := c.stream
	c.mu.Unlock()
	if stream == nil {
		return fmt.Errorf("midi: device is not opened")
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		events, err := stream.Read(readSize)
		if err != nil {
			return err
		}
		if err := c.Handle(events...); err != nil {
			c.logger.Warn(err)
		}
	}
}

// Close closes the device stream.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	return err
}
