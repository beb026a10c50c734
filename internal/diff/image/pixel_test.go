package image

import (
	"fmt"
	"image/color"
	"math"
	"runtime"
	"testing"
)

var (
	textBackground = Grey(23)
	label          = Pixel{R: 255, G: 255, B: 255, A: 173}
	appleGreen     = Opaque(0, 249, 0)
	appleOrange    = Opaque(255, 147, 0)
	appleYellow    = Opaque(255, 251, 0)
	banana         = Opaque(255, 252, 121)
	bubblegum      = Opaque(255, 133, 255)
	carnation      = Opaque(255, 138, 216)
)

func assertNear(t *testing.T, got float64, want float64, accuracy float64) {
	t.Helper()
	if math.Abs(got-want) > accuracy {
		t.Errorf("Expected %f (±%g), got %f", want, accuracy, got)
	}
}

func TestPixel_IsOpaque(t *testing.T) {
	for _, p := range []Pixel{Black, White, Red, appleGreen} {
		if !p.IsOpaque() {
			t.Errorf("Expected %s to be opaque", p)
		}
	}

	for _, p := range []Pixel{label, Clear, {A: 254}} {
		if p.IsOpaque() {
			t.Errorf("Expected %s to be transparent", p)
		}
	}
}

func TestPixel_LightIntensity(t *testing.T) {
	tests := []struct {
		name  string
		pixel Pixel
		want  float64
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			textBackground,
			0.090196,
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			appleGreen,
			0.842019,
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			bubblegum,
			0.703194,
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			appleOrange,
			0.680904,
		},
	}

	for _, tt := range tests {
		name := tt.name
		pixel := tt.pixel
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assertNear(t, pixel.LightIntensity(), want, 1e-6)
		})
	}

	t.Run("GreyDiagonal", func(t *testing.T) {
		previous := -1.0
		for w := 0; w <= 255; w++ {
			got := Grey(uint8(w)).LightIntensity()
			assertNear(t, got, float64(w)/255, 1e-6)
			if got <= previous {
				t.Errorf("Expected intensity of grey %d to exceed %f, got %f", w, previous, got)
			}
			previous = got
		}
	})
}

func TestPixel_SquaredDistance(t *testing.T) {
	if got := White.SquaredDistance(Black); got != 1 {
		t.Errorf("Expected distance between white and black to be 1, got %f", got)
	}
	if got := Black.SquaredDistance(White); got != 1 {
		t.Errorf("Expected distance between black and white to be 1, got %f", got)
	}

	assertNear(t, appleYellow.SquaredDistance(banana), 0.050042, 1e-6)

	// The red weight follows the mean red of both colors, so equal channel
	// deltas are not equally far apart.
	dark := Opaque(0, 0, 0).SquaredDistance(Opaque(10, 0, 0))
	bright := Opaque(245, 0, 0).SquaredDistance(Opaque(255, 0, 0))
	if dark >= bright {
		t.Errorf("Expected red difference on bright colors (%f) to outweigh dark colors (%f)", bright, dark)
	}
}

func TestPixel_SelfDistance(t *testing.T) {
	for _, p := range []Pixel{Grey(134), label, carnation, Cyan, Clear, Brown} {
		if got := p.SquaredDistance(p); got != 0 {
			t.Errorf("Expected squared self distance of %s to be 0, got %f", p, got)
		}
		if got := p.IntensityDistance(p); got != 0 {
			t.Errorf("Expected intensity self distance of %s to be 0, got %f", p, got)
		}
	}
}

func TestPixel_IntensityDistance(t *testing.T) {
	assertNear(t, Grey(100).IntensityDistance(Grey(110)), 10.0/255, 1e-6)
	assertNear(t, Grey(110).IntensityDistance(Grey(100)), 10.0/255, 1e-6)

	// Alpha does not take part in the intensity.
	if got := Grey(50).IntensityDistance(Pixel{R: 50, G: 50, B: 50, A: 10}); got != 0 {
		t.Errorf("Expected intensity distance ignoring alpha to be 0, got %f", got)
	}
}

func TestPixel_Color(t *testing.T) {
	var c color.Color = Orange
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 128*0x101 || b != 0 || a != 0xffff {
		t.Errorf("Unexpected RGBA of orange: %#04x %#04x %#04x %#04x", r, g, b, a)
	}

	converted := PixelModel.Convert(color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	if converted != (Pixel{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("Unexpected conversion result: %v", converted)
	}
}
