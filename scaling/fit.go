package scaling

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/arloliu/codecbench/stats"
)

// ErrInsufficientData is returned when fewer than two distinct batch sizes
// are available.
var ErrInsufficientData = errors.New("need at least two distinct batch sizes")

// Point is one observation: a batch size and its bytes per data point.
type Point struct {
	BatchSize int     `json:"batch_size" yaml:"batch_size"`
	BPP       float64 `json:"bpp" yaml:"bpp"`
}

// Model is one fitted curve.
type Model struct {
	Type         ModelType
	Coefficients []float64
	// RSquared is the coefficient of determination; higher is better.
	RSquared float64
	// RMSE is in bytes per point; lower is better.
	RMSE      float64
	Formula   string
	Estimator Estimator
}

func (m *Model) String() string {
	return fmt.Sprintf("Model{Type: %s, R²: %.4f, RMSE: %.4f, Formula: %s}", m.Type, m.RSquared, m.RMSE, m.Formula)
}

// Result is the outcome of Fit.
type Result struct {
	BestFit *Model
	// AllModels is ordered by R², best first.
	AllModels []*Model
}

func (r *Result) String() string {
	if r.BestFit == nil {
		return "Result{BestFit: nil}"
	}

	return fmt.Sprintf("Result{BestFit: %s, TotalModels: %d}", r.BestFit, len(r.AllModels))
}

// Fit fits every candidate curve to points and ranks them by R².
//
// Points with a non-positive batch size are ignored. The power curve is fitted
// in log space and is left out when any BPP is not positive.
func Fit(points []Point) (*Result, error) {
	x := make([]float64, 0, len(points))
	y := make([]float64, 0, len(points))
	distinct := make(map[int]struct{})
	positive := true
	for _, p := range points {
		if p.BatchSize <= 0 || math.IsNaN(p.BPP) || math.IsInf(p.BPP, 0) {
			continue
		}
		x = append(x, float64(p.BatchSize))
		y = append(y, p.BPP)
		distinct[p.BatchSize] = struct{}{}
		if p.BPP <= 0 {
			positive = false
		}
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientData, len(distinct))
	}

	models := []*Model{fitHyperbolic(x, y), fitLogarithmic(x, y)}
	if positive {
		models = append(models, fitPower(x, y))
	}

	slices.SortStableFunc(models, func(a, b *Model) int {
		return cmp.Compare(b.RSquared, a.RSquared)
	})

	return &Result{BestFit: models[0], AllModels: models}, nil
}

// leastSquares fits v = a + b*u.
func leastSquares(u, v []float64) (a, b float64) {
	meanU, meanV := stats.Mean(u), stats.Mean(v)

	var sxy, sxx float64
	for i := range u {
		du := u[i] - meanU
		sxy += du * (v[i] - meanV)
		sxx += du * du
	}

	b = sxy / sxx
	a = meanV - b*meanU

	return a, b
}

func transform(x []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = f(v)
	}

	return out
}

func newModel(mt ModelType, a, b float64, formula string, x, y []float64) *Model {
	est := &curve{kind: mt, a: a, b: b}
	predicted := transform(x, est.Estimate)

	return &Model{
		Type:         mt,
		Coefficients: []float64{a, b},
		RSquared:     rSquared(y, predicted),
		RMSE:         rmse(y, predicted),
		Formula:      formula,
		Estimator:    est,
	}
}

func fitHyperbolic(x, y []float64) *Model {
	a, b := leastSquares(transform(x, func(v float64) float64 { return 1 / v }), y)
	return newModel(ModelTypeHyperbolic, a, b, fmt.Sprintf("BPP = %.2f + %.2f / size", a, b), x, y)
}

func fitLogarithmic(x, y []float64) *Model {
	a, b := leastSquares(transform(x, math.Log), y)
	return newModel(ModelTypeLogarithmic, a, b, fmt.Sprintf("BPP = %.2f + %.2f * ln(size)", a, b), x, y)
}

// fitPower fits ln(BPP) = ln(a) + b*ln(size).
func fitPower(x, y []float64) *Model {
	logA, b := leastSquares(transform(x, math.Log), transform(y, math.Log))
	a := math.Exp(logA)

	return newModel(ModelTypePower, a, b, fmt.Sprintf("BPP = %.2f * size^%.3f", a, b), x, y)
}

// rSquared is 1 - SS_res/SS_tot, or 0 when the observations are constant.
func rSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	mean := stats.Mean(observed)

	var ssTot, ssRes float64
	for i := range observed {
		ssTot += (observed[i] - mean) * (observed[i] - mean)
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0
	}

	return 1 - ssRes/ssTot
}

func rmse(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	var sum float64
	for i := range observed {
		d := observed[i] - predicted[i]
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(observed)))
}
