package image

import (
	"errors"
	"math"

	"golang.org/x/xerrors"
)

const (
	DefaultTolerance   = 0.1
	DefaultScaleFactor = 0.03
)

var ErrInvalidStrategy = errors.New("invalid comparison strategy")

// Strategy selects how screenshots are prepared and which pixels count as
// equal. The set of implementations is closed: Strict, WithTolerance,
// Greyscale, DNA and AverageColor.
type Strategy interface {
	Name() string
	strategy()
}

// Strict compares original screenshots pixel by pixel.
type Strict struct{}

// WithTolerance downscales screenshots and accepts pixels whose redmean
// distance is within Tolerance.
type WithTolerance struct {
	Tolerance float64
}

// Greyscale downscales screenshots and accepts pixels whose light intensities
// differ by at most Tolerance.
type Greyscale struct {
	Tolerance float64
}

// DNA extremely downscales screenshots by ScaleFactor and then compares them
// like WithTolerance.
type DNA struct {
	Tolerance   float64
	ScaleFactor float64
}

// AverageColor compares the average colors of the opaque parts.
type AverageColor struct{}

func NewWithTolerance() WithTolerance {
	return WithTolerance{Tolerance: DefaultTolerance}
}

func NewGreyscale() Greyscale {
	return Greyscale{Tolerance: DefaultTolerance}
}

func NewDNA() DNA {
	return DNA{Tolerance: DefaultTolerance, ScaleFactor: DefaultScaleFactor}
}

func (Strict) Name() string        { return "strict" }
func (WithTolerance) Name() string { return "tolerance" }
func (Greyscale) Name() string     { return "greyscale" }
func (DNA) Name() string           { return "dna" }
func (AverageColor) Name() string  { return "average-color" }

func (Strict) strategy()        {}
func (WithTolerance) strategy() {}
func (Greyscale) strategy()     {}
func (DNA) strategy()           {}
func (AverageColor) strategy()  {}

// ParseStrategy builds a strategy from its name. Parameters that the named
// strategy does not use are ignored.
func ParseStrategy(name string, tolerance float64, scaleFactor float64) (Strategy, error) {
	switch name {
	case "strict":
		return Canonical(Strict{})
	case "tolerance", "with-tolerance":
		return Canonical(WithTolerance{Tolerance: tolerance})
	case "greyscale", "grayscale":
		return Canonical(Greyscale{Tolerance: tolerance})
	case "dna":
		return Canonical(DNA{Tolerance: tolerance, ScaleFactor: scaleFactor})
	case "average-color", "average":
		return Canonical(AverageColor{})
	default:
		return nil, xerrors.Errorf("unknown strategy %q: %w", name, ErrInvalidStrategy)
	}
}

// Canonical returns s as a validated value. Pointers to strategies are
// dereferenced; nil strategies and invalid parameters are rejected.
func Canonical(s Strategy) (Strategy, error) {
	switch s := s.(type) {
	case Strict, AverageColor:
		return s, nil
	case WithTolerance:
		if err := validateTolerance(s.Tolerance); err != nil {
			return nil, err
		}
		return s, nil
	case Greyscale:
		if err := validateTolerance(s.Tolerance); err != nil {
			return nil, err
		}
		return s, nil
	case DNA:
		if err := validateTolerance(s.Tolerance); err != nil {
			return nil, err
		}
		if math.IsNaN(s.ScaleFactor) || s.ScaleFactor <= 0 || s.ScaleFactor > 1 {
			return nil, xerrors.Errorf("scale factor %v is outside (0, 1]: %w", s.ScaleFactor, ErrInvalidStrategy)
		}
		return s, nil
	case *Strict:
		if s == nil {
			return nil, xerrors.Errorf("nil strategy: %w", ErrInvalidStrategy)
		}
		return Canonical(*s)
	case *WithTolerance:
		if s == nil {
			return nil, xerrors.Errorf("nil strategy: %w", ErrInvalidStrategy)
		}
		return Canonical(*s)
	case *Greyscale:
		if s == nil {
			return nil, xerrors.Errorf("nil strategy: %w", ErrInvalidStrategy)
		}
		return Canonical(*s)
	case *DNA:
		if s == nil {
			return nil, xerrors.Errorf("nil strategy: %w", ErrInvalidStrategy)
		}
		return Canonical(*s)
	case *AverageColor:
		if s == nil {
			return nil, xerrors.Errorf("nil strategy: %w", ErrInvalidStrategy)
		}
		return Canonical(*s)
	default:
		return nil, xerrors.Errorf("strategy %T: %w", s, ErrInvalidStrategy)
	}
}

func validateTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || tolerance < 0 {
		return xerrors.Errorf("tolerance %v is negative: %w", tolerance, ErrInvalidStrategy)
	}
	return nil
}

// equality returns the pixel predicate of a canonical pixel strategy.
func equality(s Strategy) (func(Pixel, Pixel) bool, error) {
	switch s := s.(type) {
	case Strict:
		return func(a Pixel, b Pixel) bool {
			return a == b
		}, nil
	case WithTolerance:
		squaredTolerance := s.Tolerance * s.Tolerance
		return func(a Pixel, b Pixel) bool {
			return a.SquaredDistance(b) <= squaredTolerance
		}, nil
	case DNA:
		squaredTolerance := s.Tolerance * s.Tolerance
		return func(a Pixel, b Pixel) bool {
			return a.SquaredDistance(b) <= squaredTolerance
		}, nil
	case Greyscale:
		tolerance := s.Tolerance
		return func(a Pixel, b Pixel) bool {
			return a.IntensityDistance(b) <= tolerance
		}, nil
	default:
		return nil, xerrors.Errorf("strategy %T does not compare pixels: %w", s, ErrInvalidStrategy)
	}
}
