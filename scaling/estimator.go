package scaling

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ModelType identifies a fitted curve.
type ModelType int

const (
	// ModelTypeHyperbolic is BPP = a + b / size.
	ModelTypeHyperbolic ModelType = iota
	// ModelTypeLogarithmic is BPP = a + b * ln(size).
	ModelTypeLogarithmic
	// ModelTypePower is BPP = a * size^b.
	ModelTypePower
)

var modelTypeNames = map[ModelType]string{
	ModelTypeHyperbolic:  "hyperbolic",
	ModelTypeLogarithmic: "logarithmic",
	ModelTypePower:       "power",
}

func (mt ModelType) String() string {
	if name, ok := modelTypeNames[mt]; ok {
		return name
	}

	return "unknown"
}

// ParseModelType maps a name back to its ModelType. The boolean is false for
// unknown names.
func ParseModelType(name string) (ModelType, bool) {
	name = strings.ToLower(name)
	for mt, n := range modelTypeNames {
		if n == name {
			return mt, true
		}
	}

	return 0, false
}

// Estimator predicts bytes per point for a batch size.
type Estimator interface {
	// Estimate returns the predicted BPP; +Inf for a non-positive size.
	Estimate(batchSize float64) float64
	Type() ModelType
	// Coefficients returns [a, b].
	Coefficients() []float64
}

// curve is a two-coefficient Estimator.
type curve struct {
	kind ModelType
	a, b float64
}

// NewEstimator builds an estimator of type mt from coefficients [a, b].
func NewEstimator(mt ModelType, coeffs []float64) (Estimator, error) {
	if _, ok := modelTypeNames[mt]; !ok {
		names := make([]string, 0, len(modelTypeNames))
		for _, n := range modelTypeNames {
			names = append(names, n)
		}
		slices.Sort(names)

		return nil, fmt.Errorf("unknown model type %d, supported: %s", int(mt), strings.Join(names, ", "))
	}
	if len(coeffs) != 2 {
		return nil, fmt.Errorf("%s model expects exactly 2 coefficients, got %d", mt, len(coeffs))
	}

	return &curve{kind: mt, a: coeffs[0], b: coeffs[1]}, nil
}

func (c *curve) Estimate(batchSize float64) float64 {
	if batchSize <= 0 {
		return math.Inf(1)
	}

	switch c.kind {
	case ModelTypeHyperbolic:
		return c.a + c.b/batchSize
	case ModelTypeLogarithmic:
		return c.a + c.b*math.Log(batchSize)
	default:
		return c.a * math.Pow(batchSize, c.b)
	}
}

func (c *curve) Type() ModelType { return c.kind }

func (c *curve) Coefficients() []float64 { return []float64{c.a, c.b} }
