// Package analysis measures rendered signals. It's used by monitors and
// tests, never on the audio goroutine.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/maddyblue/go-dsp/fft"
	"github.com/maddyblue/go-dsp/window"
)

// Spectrum returns normalized magnitude spectrum of Hann-windowed signal.
// Result has len(x)/2+1 bins.
func Spectrum(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	windowed := make([]float64, len(x))
	copy(windowed, x)
	window.Apply(windowed, window.Hann)

	bins := fft.FFTReal(windowed)
	magnitude := make([]float64, len(bins)/2+1)
	for i, c := range bins[:len(magnitude)] {
		magnitude[i] = cmplx.Abs(c) / float64(len(x))
	}
	return magnitude
}

// BinFrequency returns center frequency of spectrum bin for a signal of n
// samples.
func BinFrequency(bin, n, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(n)
}

// PeakFrequency returns frequency of the strongest bin, DC excluded.
func PeakFrequency(x []float64, sampleRate int) float64 {
	spectrum := Spectrum(x)
	peak := 0
	for i := 1; i < len(spectrum); i++ {
		if peak == 0 || spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	return BinFrequency(peak, len(x), sampleRate)
}

// BandEnergy returns sum of squared magnitudes of bins within [low, high]
// Hz.
func BandEnergy(x []float64, sampleRate int, low, high float64) float64 {
	var energy float64
	for i, m := range Spectrum(x) {
		if f := BinFrequency(i, len(x), sampleRate); f >= low && f <= high {
			energy += m * m
		}
	}
	return energy
}

// RMS returns root mean square of signal.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Peak returns maximum absolute value of signal.
func Peak(x []float64) float64 {
	var peak float64
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
