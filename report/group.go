package report

import (
	"cmp"
	"slices"
	"strconv"
)

// RowKind orders rows inside a group.
type RowKind int

const (
	BaselineRow RowKind = iota
	StructuredRow
)

func (k RowKind) String() string {
	if k == BaselineRow {
		return "baseline"
	}

	return "structured"
}

// Row is one codec line of a group.
type Row struct {
	Kind   RowKind
	Label  string
	Codec  string
	Source *BenchmarkResult
	Result CodecResult
}

// Group collects the results of one (dataset, batch size).
type Group struct {
	Dataset   string
	BatchSize int
	Results   []BenchmarkResult
}

// Rows flattens the group into baseline rows followed by structured rows,
// each block sorted by label.
func (g Group) Rows() []Row {
	rows := make([]Row, 0, 2*len(g.Results))
	for i := range g.Results {
		r := &g.Results[i]
		rows = append(rows, Row{
			Kind:   BaselineRow,
			Label:  r.Compressor,
			Codec:  r.BaselineCodec(),
			Source: r,
			Result: r.Baseline,
		})
		if r.Structured != nil {
			rows = append(rows, Row{
				Kind:   StructuredRow,
				Label:  r.Compressor,
				Codec:  r.Engine,
				Source: r,
				Result: *r.Structured,
			})
		}
	}

	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Label, b.Label))
	})

	return rows
}

// Find returns the result labelled compressor, or nil.
func (g Group) Find(compressor string) *BenchmarkResult {
	for i := range g.Results {
		if g.Results[i].Compressor == compressor {
			return &g.Results[i]
		}
	}

	return nil
}

// BaselineCodec names the baseline codec the way Baseline.Label does.
func (r *BenchmarkResult) BaselineCodec() string {
	if r.BaselineAlgorithm == "zstd" {
		return r.BaselineAlgorithm + strconv.Itoa(r.BaselineLevel)
	}

	return r.BaselineAlgorithm
}

// GroupResults groups results by (dataset, batch size), ordered by dataset
// then batch size. Results inside a group are ordered by label.
func GroupResults(results []BenchmarkResult) []Group {
	type key struct {
		dataset string
		batch   int
	}

	index := make(map[key]int)
	var groups []Group
	for _, r := range results {
		k := key{r.Dataset, r.BatchSize}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Dataset: r.Dataset, BatchSize: r.BatchSize})
		}
		groups[i].Results = append(groups[i].Results, r)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Results, func(a, b BenchmarkResult) int {
			return cmp.Compare(a.Compressor, b.Compressor)
		})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		return cmp.Or(cmp.Compare(a.Dataset, b.Dataset), cmp.Compare(a.BatchSize, b.BatchSize))
	})

	return groups
}

// SortResults orders results the way GroupResults lays them out.
func SortResults(results []BenchmarkResult) {
	slices.SortStableFunc(results, func(a, b BenchmarkResult) int {
		return cmp.Or(
			cmp.Compare(a.Dataset, b.Dataset),
			cmp.Compare(a.BatchSize, b.BatchSize),
			cmp.Compare(a.Compressor, b.Compressor),
		)
	})
}
