package image

import (
	"errors"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/xerrors"
)

var (
	ErrUnexpectedSize  = errors.New("the size of the actual image is unexpected")
	ErrNothingInCommon = errors.New("the opaque areas do not overlap")
)

const averageColorSwatchSize = 100

// Palette holds the colors painted into pixel diff images.
type Palette struct {
	// Fill is painted where both pixels are opaque and equal.
	Fill Pixel
	// Tint is painted where both pixels are opaque and differ.
	Tint Pixel
	// Ignored is painted where either pixel is transparent.
	Ignored Pixel
}

var DefaultPalette = Palette{
	Fill:    White,
	Tint:    Black,
	Ignored: Clear,
}

type ComparatorOption func(*Comparator)

func WithPalette(palette Palette) ComparatorOption {
	return func(c *Comparator) {
		c.palette = palette
	}
}

// WithWorkers bounds the number of goroutines walking the pixels. Values
// below one fall back to GOMAXPROCS.
func WithWorkers(n int) ComparatorOption {
	return func(c *Comparator) {
		c.workers = n
	}
}

type Comparator struct {
	strategy Strategy
	palette  Palette
	workers  int
}

func NewComparator(strategy Strategy, opts ...ComparatorOption) *Comparator {
	c := &Comparator{
		strategy: strategy,
		palette:  DefaultPalette,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Comparator) Palette() Palette {
	return c.palette
}

// Compare compares actual against reference with the default palette.
func Compare(strategy Strategy, actual *Buffer, reference *Buffer) (*DiffResult, error) {
	return NewComparator(strategy).Calculate(actual, reference)
}

func (c *Comparator) Calculate(actual *Buffer, reference *Buffer) (*DiffResult, error) {
	strategy, err := Canonical(c.strategy)
	if err != nil {
		return nil, err
	}
	if _, ok := strategy.(AverageColor); ok {
		return c.calculateAverageColor(actual, reference)
	}

	if actual.width != reference.width || actual.height != reference.height {
		return nil, xerrors.Errorf("actual %dx%d, reference %dx%d: %w", actual.width, actual.height, reference.width, reference.height, ErrUnexpectedSize)
	}

	equal, err := equality(strategy)
	if err != nil {
		return nil, err
	}
	diff := NewUniformBuffer(c.palette.Fill, actual.width, actual.height)

	var comparedPixelCount int64
	var mismatchedPixelCount int64

	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	numWorkers := c.workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	height := actual.height
	rowsPerWorker := height / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = height
		}

		go func(startY int, endY int) {
			defer wg.Done()
			c.process(actual, reference, diff, equal, startY*actual.width, endY*actual.width, &comparedPixelCount, &mismatchedPixelCount)
		}(startY, endY)
	}

	wg.Wait()

	if comparedPixelCount == 0 {
		return nil, xerrors.Errorf("%dx%d: %w", actual.width, actual.height, ErrNothingInCommon)
	}

	return &DiffResult{
		Image:      diff,
		DiffAmount: float64(mismatchedPixelCount) / float64(comparedPixelCount),
		Compared:   comparedPixelCount,
		Mismatched: mismatchedPixelCount,
	}, nil
}

// process walks the pixels in [start, end). Workers own disjoint ranges of
// diff, so only the counters are shared.
func (c *Comparator) process(actual *Buffer, reference *Buffer, diff *Buffer, equal func(Pixel, Pixel) bool, start int, end int, comparedCount *int64, mismatchedCount *int64) {
	var localCompared int64
	var localMismatched int64

	for i := start; i < end; i++ {
		actualPixel := actual.pixels[i]
		referencePixel := reference.pixels[i]

		if actualPixel.IsOpaque() && referencePixel.IsOpaque() {
			localCompared++
			if !equal(actualPixel, referencePixel) {
				localMismatched++
				diff.pixels[i] = c.palette.Tint
			}
		} else {
			diff.pixels[i] = c.palette.Ignored
		}
	}

	atomic.AddInt64(comparedCount, localCompared)
	atomic.AddInt64(mismatchedCount, localMismatched)
}

// calculateAverageColor renders a 100x200 swatch: the actual average on top,
// the reference average below.
func (c *Comparator) calculateAverageColor(actual *Buffer, reference *Buffer) (*DiffResult, error) {
	actualColor, ok := actual.AverageColor()
	if !ok {
		return nil, xerrors.Errorf("actual image has no opaque pixels: %w", ErrNothingInCommon)
	}
	referenceColor, ok := reference.AverageColor()
	if !ok {
		return nil, xerrors.Errorf("reference image has no opaque pixels: %w", ErrNothingInCommon)
	}

	const swatchPixelCount = averageColorSwatchSize * averageColorSwatchSize
	pixels := make([]Pixel, 2*swatchPixelCount)
	for i := range pixels {
		if i < swatchPixelCount {
			pixels[i] = actualColor
		} else {
			pixels[i] = referenceColor
		}
	}

	return &DiffResult{
		Image: &Buffer{
			width:  averageColorSwatchSize,
			height: 2 * averageColorSwatchSize,
			pixels: pixels,
		},
		DiffAmount: math.Sqrt(actualColor.SquaredDistance(referenceColor)),
		Actual:     actualColor,
		Reference:  referenceColor,
	}, nil
}
