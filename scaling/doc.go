// Package scaling models how compressed size per data point changes with
// batch size.
//
// Larger batches give a compressor more context, so bytes per point (BPP)
// usually falls as the batch size grows and flattens out. The package fits
// three candidate curves of BPP against batch size and picks the one with the
// highest R²:
//
//   - Hyperbolic: BPP = a + b / size
//   - Logarithmic: BPP = a + b * ln(size)
//   - Power: BPP = a * size^b
//
// Series turns a benchmark run into one point set per (dataset, codec,
// format) so each combination gets its own curve:
//
//	for _, s := range scaling.Series(suite.Results) {
//		res, err := scaling.Fit(s.Points)
//		if errors.Is(err, scaling.ErrInsufficientData) {
//			continue
//		}
//		fmt.Printf("%s: %s (R²=%.4f)\n", s.Key, res.BestFit.Formula, res.BestFit.RSquared)
//	}
package scaling
