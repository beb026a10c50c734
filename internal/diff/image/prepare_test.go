package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

func createTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name       string
		strategy   Strategy
		width      int
		height     int
		density    float64
		wantWidth  int
		wantHeight int
	}{
		{"StrictKeepsSize", Strict{}, 30, 20, 3, 30, 20},
		{"ToleranceNormalisesDensity", NewWithTolerance(), 30, 20, 2, 15, 10},
		{"GreyscaleNormalisesDensity", NewGreyscale(), 30, 21, 3, 10, 7},
		{"AverageColorNormalisesDensity", AverageColor{}, 9, 9, 3, 3, 3},
		{"ToleranceAtDensityOne", NewWithTolerance(), 7, 5, 1, 7, 5},
		{"DNA", NewDNA(), 100, 200, 1, 3, 6},
		{"DNAWithDensity", NewDNA(), 100, 200, 2, 2, 3},
		{"DNANeverEmpty", NewDNA(), 10, 10, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Prepare(tt.strategy, createTestImage(tt.width, tt.height, Red), tt.density)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if b.Width() != tt.wantWidth || b.Height() != tt.wantHeight {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantWidth, tt.wantHeight, b.Width(), b.Height())
			}
			for _, p := range b.Pixels() {
				if p != Red {
					t.Fatalf("Expected resampled pixels to stay red, got %s", p)
				}
			}
		})
	}
}

func TestPrepare_StrictIsIdentity(t *testing.T) {
	img := namedColorBuffer(t).Image()

	b, err := Prepare(Strict{}, img, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !b.Equal(namedColorBuffer(t)) {
		t.Errorf("Expected strict preparation to keep pixels unchanged")
	}
}

func TestPrepare_Empty(t *testing.T) {
	b, err := Prepare(NewDNA(), image.NewNRGBA(image.Rect(0, 0, 0, 0)), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d pixels", b.Len())
	}
}

func TestPrepare_InvalidDensity(t *testing.T) {
	img := createTestImage(2, 2, White)
	for _, density := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Prepare(Strict{}, img, density); !errors.Is(err, ErrInvalidDensity) {
			t.Errorf("Expected ErrInvalidDensity for %v, got %v", density, err)
		}
	}
}

func TestPrepare_InvalidScaleFactor(t *testing.T) {
	for _, scaleFactor := range []float64{0, -0.5, 1.5, math.NaN()} {
		if _, err := Prepare(DNA{Tolerance: 0.1, ScaleFactor: scaleFactor}, createTestImage(2, 2, White), 1); !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("Expected ErrInvalidStrategy for %v, got %v", scaleFactor, err)
		}
	}
}

func TestPrepare_PointerStrategy(t *testing.T) {
	got, err := Prepare(&DNA{Tolerance: 0.1, ScaleFactor: 0.03}, createTestImage(100, 200, Red), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Width() != 3 || got.Height() != 6 {
		t.Errorf("Expected 3x6, got %dx%d", got.Width(), got.Height())
	}
}

func TestMatchesAverageColor(t *testing.T) {
	img := createTestImage(40, 30, Opaque(250, 250, 250))

	distance, ok := MatchesAverageColor(img, White, DefaultTolerance)
	if !ok {
		t.Errorf("Expected near-white image to match white, distance %f", distance)
	}

	distance, ok = MatchesAverageColor(img, Black, DefaultTolerance)
	if ok {
		t.Errorf("Expected near-white image not to match black, distance %f", distance)
	}

	if _, ok := MatchesAverageColor(image.NewNRGBA(image.Rect(0, 0, 0, 0)), White, 1); ok {
		t.Errorf("Expected empty image not to match")
	}
}
