package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	require.Equal(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}))
	require.Equal(t, 0.0, Mean(nil))
	require.Equal(t, 42.0, Mean([]float64{42}))
}

func TestStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	require.InDelta(t, 2.138, StdDev(values, Mean(values)), 0.001)

	require.Equal(t, 0.0, StdDev([]float64{7}, 7))
	require.Equal(t, 0.0, StdDev(nil, 0))
	require.Equal(t, 0.0, StdDev([]float64{3, 3, 3}, 3))
}

func TestFromTimes(t *testing.T) {
	tests := []struct {
		name       string
		times      []float64
		bytes      int
		want       TimingStats
		wantStdPos bool
	}{
		{
			name:  "constant passes",
			times: []float64{100, 100, 100},
			bytes: 10_000_000,
			want:  TimingStats{AvgMs: 100, StdMs: 0, ThroughputMBps: 100, ThroughputStdMBps: 0},
		},
		{
			name:  "no passes",
			times: nil,
			bytes: 10_000_000,
			want:  TimingStats{},
		},
		{
			name:  "single pass",
			times: []float64{50},
			bytes: 1_000_000,
			want:  TimingStats{AvgMs: 50, StdMs: 0, ThroughputMBps: 20, ThroughputStdMBps: 0},
		},
		{
			name:  "zero duration pass",
			times: []float64{0, 0},
			bytes: 1_000_000,
			want:  TimingStats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTimes(tt.times, tt.bytes)
			require.InDelta(t, tt.want.AvgMs, got.AvgMs, 1e-9)
			require.InDelta(t, tt.want.StdMs, got.StdMs, 1e-9)
			require.InDelta(t, tt.want.ThroughputMBps, got.ThroughputMBps, 1e-9)
			require.InDelta(t, tt.want.ThroughputStdMBps, got.ThroughputStdMBps, 1e-9)
		})
	}
}

func TestFromTimes_ThroughputIsPerPass(t *testing.T) {
	// 100 ms and 300 ms over 10 MB: 100 MB/s and 33.3 MB/s average to 66.7,
	// not to 10 MB / 200 ms = 50.
	got := FromTimes([]float64{100, 300}, 10_000_000)
	require.InDelta(t, 200, got.AvgMs, 1e-9)
	require.InDelta(t, (100.0+100.0/3)/2, got.ThroughputMBps, 1e-9)
	require.Greater(t, got.ThroughputStdMBps, 0.0)
}

func TestFromDurations(t *testing.T) {
	got := FromDurations([]time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, 10_000_000)
	require.InDelta(t, 100, got.AvgMs, 1e-9)
	require.InDelta(t, 100, got.ThroughputMBps, 1e-9)
	require.Equal(t, []float64{1.5}, Milliseconds([]time.Duration{1500 * time.Microsecond}))
}

func TestThroughput(t *testing.T) {
	require.Equal(t, 0.0, Throughput(1000, 0))
	require.Equal(t, 0.0, Throughput(1000, -1))
	require.InDelta(t, 1.0, Throughput(1_000_000, 1000), 1e-12)
}
