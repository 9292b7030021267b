// Package analytics provides the regression and z-score primitives behind
// the timing signal.
package analytics

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Fit is the result of an ordinary least-squares fit. Quality is the signal
// scalar 1 - SSR/((n-1) * sampleVar(y)). It is not a bounded R-squared: for
// poor fits it can be negative or exceed 1, and downstream code uses it as a
// multiplier, so it is reported exactly as defined.
type Fit struct {
	Intercept float64
	Slope     float64
	Quality   float64
}

// LeastSquares fits y = intercept + slope*x over two aligned sequences of
// equal length >= 2.
func LeastSquares(x, y []float64) (Fit, error) {
	if len(x) != len(y) {
		return Fit{}, fmt.Errorf("mismatched series lengths %d and %d", len(x), len(y))
	}
	if len(x) < 2 {
		return Fit{}, fmt.Errorf("need at least 2 observations, got %d", len(x))
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	var ssr float64
	for i := range x {
		r := y[i] - (alpha + beta*x[i])
		ssr += r * r
	}
	tss := float64(len(y)-1) * stat.Variance(y, nil)

	return Fit{
		Intercept: alpha,
		Slope:     beta,
		Quality:   1 - ssr/tss,
	}, nil
}

// ZScoreLast returns the z-score of the final element of values against the
// mean and sample standard deviation of the whole sequence. Sequences
// shorter than 2 elements, or with no variance, yield the neutral 0.0.
func ZScoreLast(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 {
		return 0
	}
	return (values[len(values)-1] - stat.Mean(values, nil)) / sd
}
