package report

// SummaryRow is one line of a size summary table. Ratios are relative to the
// uncompressed size of the group's reference row, so an alternative encoding
// of the same records is credited for being smaller before compression.
type SummaryRow struct {
	Label string

	UncompressedBytes    int
	UncompressedRatio    float64
	UncompressedPerPoint float64

	BaselineBytes    int
	BaselineRatio    float64
	BaselinePerPoint float64

	// HasStructured is false when the row has no structured measurement.
	HasStructured      bool
	StructuredBytes    int
	StructuredRatio    float64
	StructuredPerPoint float64
}

// Reference returns the row the group's ratios are computed against: the
// result labelled with its own schema name, falling back to any result with
// a schema, then to the first result.
func (g Group) Reference() *BenchmarkResult {
	var fallback *BenchmarkResult
	for i := range g.Results {
		r := &g.Results[i]
		if r.Schema != "" && r.Compressor == r.Schema {
			return r
		}
		if fallback == nil && r.Schema != "" {
			fallback = r
		}
	}
	if fallback != nil {
		return fallback
	}
	if len(g.Results) > 0 {
		return &g.Results[0]
	}

	return nil
}

// Summary computes the size summary of the group, reference row first.
func (g Group) Summary() []SummaryRow {
	ref := g.Reference()
	if ref == nil {
		return nil
	}

	rows := []SummaryRow{summaryRow(ref, ref.TotalUncompressedBytes)}
	for i := range g.Results {
		r := &g.Results[i]
		if r == ref {
			continue
		}
		rows = append(rows, summaryRow(r, ref.TotalUncompressedBytes))
	}

	return rows
}

func summaryRow(r *BenchmarkResult, refBytes int) SummaryRow {
	row := SummaryRow{
		Label:                r.Compressor,
		UncompressedBytes:    r.TotalUncompressedBytes,
		UncompressedRatio:    Ratio(refBytes, r.TotalUncompressedBytes),
		UncompressedPerPoint: PerPoint(r.TotalUncompressedBytes, r.TotalDataPoints),
		BaselineBytes:        r.Baseline.TotalBytes,
		BaselineRatio:        Ratio(refBytes, r.Baseline.TotalBytes),
		BaselinePerPoint:     PerPoint(r.Baseline.TotalBytes, r.TotalDataPoints),
	}
	if s := r.Structured; s != nil {
		row.HasStructured = true
		row.StructuredBytes = s.TotalBytes
		row.StructuredRatio = Ratio(refBytes, s.TotalBytes)
		row.StructuredPerPoint = PerPoint(s.TotalBytes, r.TotalDataPoints)
	}

	return row
}

// FilterBatchSize keeps the groups of one batch size.
func FilterBatchSize(groups []Group, batchSize int) []Group {
	var out []Group
	for _, g := range groups {
		if g.BatchSize == batchSize {
			out = append(out, g)
		}
	}

	return out
}
