package scaling

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/arloliu/codecbench/report"
)

// Codec names the size column a series is built from.
type Codec string

const (
	Uncompressed Codec = "uncompressed"
	Baseline     Codec = "baseline"
	Structured   Codec = "structured"
)

// Key identifies one series.
type Key struct {
	Dataset string
	Codec   Codec
	// Variant is the row label, which separates formats of one dataset.
	Variant string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Dataset, k.Variant, k.Codec)
}

// PointSeries is the BPP of one key at every measured batch size, ordered by
// batch size.
type PointSeries struct {
	Key    Key
	Points []Point
}

// Series builds one series per (dataset, codec, variant). Results without a
// data point count are skipped, and so are structured columns that were not
// measured.
func Series(results []report.BenchmarkResult) []PointSeries {
	index := make(map[Key]int)
	var out []PointSeries

	add := func(k Key, batch, bytes, points int) {
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, PointSeries{Key: k})
		}
		out[i].Points = append(out[i].Points, Point{BatchSize: batch, BPP: report.PerPoint(bytes, points)})
	}

	for _, r := range results {
		if r.TotalDataPoints <= 0 {
			continue
		}

		add(Key{Dataset: r.Dataset, Codec: Uncompressed, Variant: r.Compressor}, r.BatchSize, r.TotalUncompressedBytes, r.TotalDataPoints)
		add(Key{Dataset: r.Dataset, Codec: Baseline, Variant: r.Compressor}, r.BatchSize, r.Baseline.TotalBytes, r.TotalDataPoints)
		if r.Structured != nil {
			add(Key{Dataset: r.Dataset, Codec: Structured, Variant: r.Compressor}, r.BatchSize, r.Structured.TotalBytes, r.TotalDataPoints)
		}
	}

	for i := range out {
		slices.SortFunc(out[i].Points, func(a, b Point) int { return cmp.Compare(a.BatchSize, b.BatchSize) })
	}
	slices.SortFunc(out, func(a, b PointSeries) int {
		return cmp.Or(
			cmp.Compare(a.Key.Dataset, b.Key.Dataset),
			cmp.Compare(a.Key.Variant, b.Key.Variant),
			cmp.Compare(a.Key.Codec, b.Key.Codec),
		)
	})

	return out
}
