package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arloliu/codecbench/report"
	"github.com/arloliu/codecbench/scaling"
)

const defaultSummaryBatch = 50000

func newSummaryCommand(a *app) *cobra.Command {
	var (
		batchSize int
		fit       bool
	)

	cmd := &cobra.Command{
		Use:   "summary <results-file>",
		Short: "Print size summary tables from a saved result document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.summary(afero.NewOsFs(), args[0], batchSize, fit)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", defaultSummaryBatch, "batch size to summarize (0 for every size)")
	cmd.Flags().BoolVar(&fit, "fit", false, "also fit bytes per point against batch size")

	return cmd
}

func (a *app) summary(fsys afero.Fs, path string, batchSize int, fit bool) error {
	suite, err := report.Read(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	groups := report.GroupResults(suite.Results)
	if batchSize > 0 {
		groups = report.FilterBatchSize(groups, batchSize)
	}
	if len(groups) == 0 {
		fmt.Fprintf(a.stdout, "no results for batch size %d in %s\n", batchSize, path)
	} else {
		baselineCodec, structuredCodec := columnNames(suite.Results)
		if err := report.PrintSummary(a.stdout, groups, baselineCodec, structuredCodec); err != nil {
			return err
		}
	}

	if fit {
		return printFits(a.stdout, suite.Results)
	}

	return nil
}

func columnNames(results []report.BenchmarkResult) (string, string) {
	baselineCodec, structuredCodec := "baseline", "structured"
	for i := range results {
		if i == 0 {
			baselineCodec = results[i].BaselineCodec()
		}
		if results[i].Engine != "" {
			structuredCodec = results[i].Engine
			break
		}
	}

	return baselineCodec, structuredCodec
}

func printFits(w io.Writer, results []report.BenchmarkResult) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Series", "Model", "Formula", "R²", "RMSE")

	rows := 0
	for _, s := range scaling.Series(results) {
		res, err := scaling.Fit(s.Points)
		if errors.Is(err, scaling.ErrInsufficientData) {
			continue
		}
		if err != nil {
			return fmt.Errorf("fit %s: %w", s.Key, err)
		}
		best := res.BestFit
		t.Row(s.Key.String(), best.Type.String(), best.Formula, fmt.Sprintf("%.4f", best.RSquared), fmt.Sprintf("%.3f", best.RMSE))
		rows++
	}

	if rows == 0 {
		_, err := fmt.Fprintln(w, "\nnot enough batch sizes to fit scaling curves")
		return err
	}
	_, err := fmt.Fprintf(w, "\nBytes per point vs batch size\n%s\n", t.String())

	return err
}
