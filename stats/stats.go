// Package stats turns per-pass timing samples into latency and throughput
// statistics.
//
// Every statistic is computed over whole-pass aggregates: one sample is the
// summed wall-clock time of compressing (or decompressing) every payload of a
// batch once. Throughput is derived per pass and then averaged, since the
// mean of reciprocals is not the reciprocal of the mean.
package stats

import (
	"math"
	"time"
)

// TimingStats summarizes the passes of one operation.
type TimingStats struct {
	AvgMs             float64 `json:"avg_ms" yaml:"avg_ms"`
	StdMs             float64 `json:"std_ms" yaml:"std_ms"`
	ThroughputMBps    float64 `json:"throughput_mbps" yaml:"throughput_mbps"`
	ThroughputStdMBps float64 `json:"throughput_std_mbps" yaml:"throughput_std_mbps"`
}

// FromTimes computes TimingStats from per-pass times in milliseconds and the
// uncompressed bytes processed by one pass.
//
// Parameters:
//   - timesMs: aggregate time of each pass
//   - totalBytes: uncompressed bytes per pass
//
// Returns:
//   - TimingStats: all zero for no samples; StdMs and ThroughputStdMBps are
//     zero for a single sample. A zero-duration pass counts as 0 MB/s.
func FromTimes(timesMs []float64, totalBytes int) TimingStats {
	avg := Mean(timesMs)

	throughputs := make([]float64, len(timesMs))
	for i, t := range timesMs {
		throughputs[i] = Throughput(totalBytes, t)
	}
	tput := Mean(throughputs)

	return TimingStats{
		AvgMs:             avg,
		StdMs:             StdDev(timesMs, avg),
		ThroughputMBps:    tput,
		ThroughputStdMBps: StdDev(throughputs, tput),
	}
}

// FromDurations is FromTimes for time.Duration samples.
func FromDurations(passes []time.Duration, totalBytes int) TimingStats {
	return FromTimes(Milliseconds(passes), totalBytes)
}

// Milliseconds converts durations to fractional milliseconds.
func Milliseconds(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = float64(d) / float64(time.Millisecond)
	}

	return out
}

// Throughput returns MB/s (10^6 bytes) for totalBytes processed in ms
// milliseconds, or 0 if ms is not positive.
func Throughput(totalBytes int, ms float64) float64 {
	if ms <= 0 {
		return 0
	}

	return (float64(totalBytes) / 1e6) / (ms / 1000)
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (N-1 denominator) of values
// around mean, or 0 for fewer than two values.
func StdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return math.Sqrt(sq / float64(len(values)-1))
}
