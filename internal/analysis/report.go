package analysis

import (
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

func EnergySeries(frames []dynamo.Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.KineticEnergy
	}
	return out
}

func StableSeries(frames []dynamo.Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.StableFraction
	}
	return out
}

func ContactSeries(frames []dynamo.Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = float64(f.ContactPairs)
	}
	return out
}

// SettleIndex returns the first frame from which a populated arena stays
// fully stable for at least hold frames, or -1.
func SettleIndex(frames []dynamo.Frame, hold int) int {
	if hold <= 0 {
		hold = 1
	}
	start, streak := -1, 0
	for i, f := range frames {
		if f.Population == 0 || f.StableFraction < 1 {
			start, streak = -1, 0
			continue
		}
		if streak == 0 {
			start = i
		}
		streak++
		if streak >= hold {
			return start
		}
	}
	return -1
}

type Report struct {
	Frames       int
	Duration     float64
	PeakEnergy   float64
	FinalEnergy  float64
	MeanStable   float64
	MeanContacts float64
	Impacts      int
	SettleTime   float64 // -1 when the run never settled
	DominantHz   float64
}

// Analyze summarises frames recorded at tickRate Hz.
func Analyze(frames []dynamo.Frame, tickRate float64) Report {
	r := Report{Frames: len(frames), SettleTime: -1}
	if len(frames) == 0 {
		return r
	}

	energy := EnergySeries(frames)
	for _, e := range energy {
		r.PeakEnergy = math.Max(r.PeakEnergy, e)
	}
	r.FinalEnergy = energy[len(energy)-1]
	r.MeanStable = mean(StableSeries(frames))
	r.MeanContacts = mean(ContactSeries(frames))
	for _, f := range frames {
		r.Impacts += f.Impacts
	}
	r.Duration = frames[len(frames)-1].Time

	if idx := SettleIndex(frames, int(tickRate/2)); idx >= 0 {
		r.SettleTime = frames[idx].Time
	}
	r.DominantHz, _ = DominantFrequency(energy, tickRate)
	return r
}
