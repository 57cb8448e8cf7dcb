package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	colorBorder   = lipgloss.Color("#16858E")
	colorHeader   = lipgloss.Color("#2CD7C7")
	colorMuted    = lipgloss.Color("244")
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).MarginTop(1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorHeader).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numberStyle   = cellStyle.Align(lipgloss.Right)
	baselineStyle = numberStyle.Foreground(colorMuted)
)

const missing = "-"

// GroupTitle is the heading printed above a group's tables.
func GroupTitle(g Group) string {
	return fmt.Sprintf("%s (batch = %d)", g.Dataset, g.BatchSize)
}

// ComparisonTable renders the latency and ratio comparison of one group.
func ComparisonTable(g Group) string {
	rows := g.Rows()

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers("Format", "Codec", "Size", "Ratio", "Compress (ms)", "Decompress (ms)", "Comp MB/s", "Decomp MB/s").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < 2:
				return cellStyle
			case row >= 0 && row < len(rows) && rows[row].Kind == BaselineRow:
				return baselineStyle
			default:
				return numberStyle
			}
		})

	for _, r := range rows {
		res := r.Result
		t.Row(
			r.Label,
			r.Codec,
			humanize.Bytes(uint64(max(res.TotalBytes, 0))),
			fmt.Sprintf("%.2fx", res.CompressionRatio),
			fmt.Sprintf("%.2f ± %.2f", res.Compression.AvgMs, res.Compression.StdMs),
			fmt.Sprintf("%.2f ± %.2f", res.Decompression.AvgMs, res.Decompression.StdMs),
			fmt.Sprintf("%.1f ± %.1f", res.Compression.ThroughputMBps, res.Compression.ThroughputStdMBps),
			fmt.Sprintf("%.1f ± %.1f", res.Decompression.ThroughputMBps, res.Decompression.ThroughputStdMBps),
		)
	}

	return t.String()
}

// SummaryTable renders the size summary of one group.
func SummaryTable(g Group, baselineCodec, structuredCodec string) string {
	perPoint := "Bytes/pt"
	if strings.HasPrefix(g.Dataset, "tpch") {
		perPoint = "Bytes/row"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(
			"Format",
			"Uncompressed", "Ratio", perPoint,
			baselineCodec, "Ratio", perPoint,
			structuredCodec, "Ratio", perPoint,
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		})

	for _, r := range g.Summary() {
		structured := []string{missing, missing, missing}
		if r.HasStructured {
			structured = []string{
				humanize.Bytes(uint64(max(r.StructuredBytes, 0))),
				fmt.Sprintf("%.2fx", r.StructuredRatio),
				fmt.Sprintf("%.1f", r.StructuredPerPoint),
			}
		}

		t.Row(
			r.Label,
			humanize.Bytes(uint64(max(r.UncompressedBytes, 0))),
			fmt.Sprintf("%.2fx", r.UncompressedRatio),
			fmt.Sprintf("%.1f", r.UncompressedPerPoint),
			humanize.Bytes(uint64(max(r.BaselineBytes, 0))),
			fmt.Sprintf("%.2fx", r.BaselineRatio),
			fmt.Sprintf("%.1f", r.BaselinePerPoint),
			structured[0], structured[1], structured[2],
		)
	}

	return t.String()
}

// PrintComparison writes a titled comparison table for every group.
func PrintComparison(w io.Writer, groups []Group) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(GroupTitle(g)), ComparisonTable(g)); err != nil {
			return err
		}
	}

	return nil
}

// PrintSummary writes a titled summary table for every group.
func PrintSummary(w io.Writer, groups []Group, baselineCodec, structuredCodec string) error {
	for _, g := range groups {
		if _, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(GroupTitle(g)), SummaryTable(g, baselineCodec, structuredCodec)); err != nil {
			return err
		}
	}

	return nil
}
