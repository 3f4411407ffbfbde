package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data after removing its mean. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	centred := make([]float64, len(data))
	m := mean(data)
	for i, v := range data {
		centred[i] = v - m
	}

	spectrum := fft.FFTReal(centred)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency in Hz for data
// sampled at sampleRate, and its magnitude.
func DominantFrequency(data []float64, sampleRate float64) (float64, float64) {
	ps := PowerSpectrum(data)
	best, power := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			best, power = i, ps[i]
		}
	}
	if best == 0 {
		return 0, 0
	}
	return float64(best) * sampleRate / float64(len(data)), power
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
