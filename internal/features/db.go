package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	dbAmin = 1e-10
	dbTop  = 80.0
)

// powerToDB converts power values to decibels relative to 1.0 and clips
// everything more than 80 dB below the loudest value.
func powerToDB(power *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return 10 * math.Log10(math.Max(dbAmin, v))
	}, power)

	floor := mat.Max(&out) - dbTop
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, &out)
	return &out
}
