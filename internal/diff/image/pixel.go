package image

import (
	"fmt"
	"image/color"
	"math"
)

// Pixel is a non-premultiplied 8-bit RGBA color.
type Pixel struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

var PixelModel color.Model = color.ModelFunc(pixelModel)

var (
	Black     = Grey(0)
	DarkGray  = Grey(85)
	LightGray = Grey(170)
	White     = Grey(255)
	Gray      = Grey(128)
	Red       = Opaque(255, 0, 0)
	Green     = Opaque(0, 255, 0)
	Blue      = Opaque(0, 0, 255)
	Cyan      = Opaque(0, 255, 255)
	Yellow    = Opaque(255, 255, 0)
	Magenta   = Opaque(255, 0, 255)
	Orange    = Opaque(255, 128, 0)
	Purple    = Opaque(128, 0, 128)
	Brown     = Opaque(153, 102, 51)
	Clear     = Pixel{}
)

func Grey(w uint8) Pixel {
	return Pixel{R: w, G: w, B: w, A: 255}
}

func Opaque(r uint8, g uint8, b uint8) Pixel {
	return Pixel{R: r, G: g, B: b, A: 255}
}

func (p Pixel) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}.RGBA()
}

func (p Pixel) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", p.R, p.G, p.B, p.A)
}

func pixelModel(c color.Color) color.Color {
	if _, ok := c.(Pixel); ok {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Pixel{R: n.R, G: n.G, B: n.B, A: n.A}
}

func (p Pixel) IsOpaque() bool {
	return p.A == 255
}

// LightIntensity returns the perceived grey level of p in [0, 1].
// https://en.wikipedia.org/wiki/Grayscale#Converting_color_to_grayscale
func (p Pixel) LightIntensity() float64 {
	linearY := 0.2126*gammaExpanded(p.R) + 0.7152*gammaExpanded(p.G) + 0.0722*gammaExpanded(p.B)

	if linearY <= 0.0031308 {
		return 12.92 * linearY
	}
	return 1.055*math.Pow(linearY, 1/2.4) - 0.055
}

func (p Pixel) IntensityDistance(o Pixel) float64 {
	if p == o {
		return 0
	}
	return math.Abs(p.LightIntensity() - o.LightIntensity())
}

// SquaredDistance returns the redmean color difference between p and o,
// normalised to [0, 1]. The red and blue weights depend on the mean red of
// both colors, so this is not a metric.
// https://en.wikipedia.org/wiki/Color_difference#sRGB
func (p Pixel) SquaredDistance(o Pixel) float64 {
	if p == o {
		return 0
	}

	r1, g1, b1 := float64(p.R), float64(p.G), float64(p.B)
	r2, g2, b2 := float64(o.R), float64(o.G), float64(o.B)
	deltaR, deltaG, deltaB := r1-r2, g1-g2, b1-b2

	meanR := (r1 + r2) / 510

	weightedSum := deltaR*deltaR*(2+meanR) + deltaG*deltaG*4 + deltaB*deltaB*(3-meanR)

	// 9 * 255 * 255
	return weightedSum / 585225
}

// gammaExpanded is the sRGB transfer function for one 8-bit channel with the
// 0.04045 breakpoint and 12.92 slope folded into the constants.
func gammaExpanded(c uint8) float64 {
	if c < 11 {
		return float64(c) / 3294.6
	}
	return math.Pow((float64(c)+14.025)/269.025, 2.4)
}
