// Package analysis summarises recorded runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of a frame series,
//     used to spot rhythmic bouncing or sloshing piles
//   - [SettleIndex]: first frame from which every body stays stable
//   - [Analyze]: one-shot report over a run's frames
//
// Series are taken from frames with [EnergySeries] and friends:
//
//	hz, _ := analysis.DominantFrequency(analysis.EnergySeries(frames), 60)
package analysis
