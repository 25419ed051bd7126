// Package match computes distance-based decisions between face descriptors.
// No normalization is applied: callers are responsible for supplying
// descriptors produced by a consistent feature extractor.
package match

import (
	"math"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

// Result is the outcome of comparing a probe descriptor against a stored one.
type Result struct {
	Matched   bool    `json:"matched"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
}

// Distance returns the Euclidean distance between two equal-length
// descriptors. Mismatched lengths are an error, never a silent prefix
// comparison.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, dErrors.New(dErrors.CodeValidation, "descriptor dimension mismatch")
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Verify compares a stored descriptor against a probe under the configured
// threshold. The comparison is inclusive: distance exactly at the threshold
// is a match.
func Verify(stored, probe []float32, threshold float64) (Result, error) {
	dist, err := Distance(stored, probe)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Matched:   dist <= threshold,
		Distance:  dist,
		Threshold: threshold,
	}, nil
}
