package verify

import (
	"errors"
	"math"

	"golang.org/x/xerrors"
)

const (
	DefaultThreshold = 0.01
	riskyThreshold   = 0.5
)

var ErrBadThreshold = errors.New("threshold is not normalised")

// CheckThreshold accepts thresholds in [0, 1). Thresholds of 0.5 and above
// are accepted but reported as risky.
func CheckThreshold(threshold float64) (bool, error) {
	switch {
	case math.IsNaN(threshold), threshold < 0, threshold >= 1:
		return false, xerrors.Errorf("threshold %v: %w", threshold, ErrBadThreshold)
	case threshold >= riskyThreshold:
		return true, nil
	default:
		return false, nil
	}
}

// Passed reports whether a difference is within threshold.
func Passed(diffAmount float64, threshold float64) bool {
	return diffAmount <= threshold
}
