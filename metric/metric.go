// Package metric publishes engine counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "wireup.components"

const (
	// BufferCounter measures number of processed buffers.
	BufferCounter = "Buffers"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered instances.
	ComponentCounter = "Components"
	// SwapCounter counts processor hot swaps.
	SwapCounter = "Swaps"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		BufferCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
		SwapCounter,
	}
)

// Get metrics values for provided component.
func Get(component string) map[string]string {
	return getCounters(component)
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

// Components returns sorted names of measured components.
func Components() []string {
	components.Lock()
	defer components.Unlock()
	names := make([]string, 0, len(components.m))
	for component := range components.m {
		names = append(names, component)
	}
	sort.Strings(names)
	return names
}

func getCounters(component string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(component, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when buffer is processed.
type MeasureFunc func(bufferSize int64)

// Meter creates new meter closure to capture component counters.
func Meter(component string, sampleRate int) ResetFunc {
	metric := components.get(component)
	metric.components.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			bufferSize     int64
			bufferDuration time.Duration
		)
		return func(s int64) {
			metric.latency.set(time.Since(calledAt))
			metric.buffers.Add(1)
			metric.samples.Add(s)
			// recalculate buffer duration only when buffer size has changed
			if bufferSize != s {
				bufferSize = s
				bufferDuration = durationOf(sampleRate, s)
			}
			metric.duration.add(bufferDuration)
			calledAt = time.Now()
		}
	}
}

// Swapped counts processor swap of the component.
func Swapped(component string) {
	components.get(component).swaps.Add(1)
}

// durationOf returns time duration of samples at provided sample rate.
func durationOf(sampleRate int, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(component string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[component]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(component)
	m.m[component] = metric
	return metric
}

type metric struct {
	key        string
	components *expvar.Int
	buffers    *expvar.Int
	samples    *expvar.Int
	swaps      *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(component string) metric {
	m := metric{
		key:        component,
		components: expvar.NewInt(key(component, ComponentCounter)),
		buffers:    expvar.NewInt(key(component, BufferCounter)),
		samples:    expvar.NewInt(key(component, SampleCounter)),
		swaps:      expvar.NewInt(key(component, SwapCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(component, LatencyCounter), m.latency)
	expvar.Publish(key(component, DurationCounter), m.duration)
	return m
}

func key(component, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, component, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
