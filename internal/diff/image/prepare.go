package image

import (
	"errors"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/xerrors"
)

var ErrInvalidDensity = errors.New("pixel density must be positive")

// Prepare converts a screenshot into the buffer the strategy compares.
// density is the number of image pixels per logical point of the device
// the screenshot was taken on.
func Prepare(strategy Strategy, img image.Image, density float64) (*Buffer, error) {
	if math.IsNaN(density) || math.IsInf(density, 0) || density <= 0 {
		return nil, xerrors.Errorf("density %v: %w", density, ErrInvalidDensity)
	}

	strategy, err := Canonical(strategy)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	switch s := strategy.(type) {
	case Strict:
		return FromImage(img), nil
	case DNA:
		return resize(img, math.Round(width*s.ScaleFactor)/density, math.Round(height*s.ScaleFactor)/density), nil
	default:
		return resize(img, width/density, height/density), nil
	}
}

// resize resamples img to the given size rounded to whole pixels. Non-empty
// images never shrink below 1x1.
func resize(img image.Image, width float64, height float64) *Buffer {
	bounds := img.Bounds()
	if bounds.Empty() {
		return &Buffer{}
	}

	w := max(1, int(math.Round(width)))
	h := max(1, int(math.Round(height)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)

	return FromImage(dst)
}

// MatchesAverageColor reduces img to a single pixel and reports its redmean
// distance from expected, and whether that distance is within tolerance.
func MatchesAverageColor(img image.Image, expected Pixel, tolerance float64) (float64, bool) {
	if img.Bounds().Empty() {
		return math.Inf(1), false
	}

	actual := resize(img, 1, 1).pixels[0]
	distance := math.Sqrt(actual.SquaredDistance(expected))

	return distance, distance <= tolerance
}
