package image

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/xerrors"
)

var ErrInvalidDimensions = errors.New("pixel count does not match image dimensions")

// Buffer is a row-major grid of pixels. The zero value is an empty 0x0 image.
type Buffer struct {
	width  int
	height int
	pixels []Pixel
}

func NewBuffer(pixels []Pixel, width int, height int) (*Buffer, error) {
	if width < 0 || height < 0 || len(pixels) != width*height {
		return nil, xerrors.Errorf("%d pixels for %dx%d: %w", len(pixels), width, height, ErrInvalidDimensions)
	}

	p := make([]Pixel, len(pixels))
	copy(p, pixels)

	return &Buffer{
		width:  width,
		height: height,
		pixels: p,
	}, nil
}

func NewUniformBuffer(pixel Pixel, width int, height int) *Buffer {
	if width < 0 || height < 0 {
		panic("image: negative buffer size")
	}

	p := make([]Pixel, width*height)
	for i := range p {
		p[i] = pixel
	}

	return &Buffer{
		width:  width,
		height: height,
		pixels: p,
	}
}

// FromImage samples img into a buffer without any color management.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	b := &Buffer{
		width:  width,
		height: height,
		pixels: make([]Pixel, width*height),
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			rowStart := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < width; x++ {
				offset := rowStart + x*4
				b.pixels[y*width+x] = Pixel{
					R: nrgba.Pix[offset],
					G: nrgba.Pix[offset+1],
					B: nrgba.Pix[offset+2],
					A: nrgba.Pix[offset+3],
				}
			}
		}
		return b
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.pixels[y*width+x] = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return b
}

// Image converts b into a standard library image anchored at the origin.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for i, p := range b.pixels {
		img.Pix[i*4] = p.R
		img.Pix[i*4+1] = p.G
		img.Pix[i*4+2] = p.B
		img.Pix[i*4+3] = p.A
	}
	return img
}

func (b *Buffer) Width() int {
	return b.width
}

func (b *Buffer) Height() int {
	return b.height
}

func (b *Buffer) Len() int {
	return len(b.pixels)
}

func (b *Buffer) At(x int, y int) Pixel {
	return b.pixels[y*b.width+x]
}

// Pixels returns a copy of the pixels in row-major order.
func (b *Buffer) Pixels() []Pixel {
	p := make([]Pixel, len(b.pixels))
	copy(p, b.pixels)
	return p
}

func (b *Buffer) Equal(o *Buffer) bool {
	if b.width != o.width || b.height != o.height || len(b.pixels) != len(o.pixels) {
		return false
	}
	for i := range b.pixels {
		if b.pixels[i] != o.pixels[i] {
			return false
		}
	}
	return true
}

// AverageColor returns the mean color of the opaque pixels. The second
// result is false when b has no opaque pixel.
func (b *Buffer) AverageColor() (Pixel, bool) {
	var opaquePixelCount int
	var sumOfRed, sumOfGreen, sumOfBlue int

	for _, p := range b.pixels {
		if !p.IsOpaque() {
			continue
		}
		opaquePixelCount++
		sumOfRed += int(p.R)
		sumOfGreen += int(p.G)
		sumOfBlue += int(p.B)
	}
	if opaquePixelCount == 0 {
		return Pixel{}, false
	}

	divideAndRound := func(sum int) uint8 {
		return uint8(math.Round(float64(sum) / float64(opaquePixelCount)))
	}

	return Opaque(divideAndRound(sumOfRed), divideAndRound(sumOfGreen), divideAndRound(sumOfBlue)), true
}

func (b *Buffer) clone() *Buffer {
	return &Buffer{
		width:  b.width,
		height: b.height,
		pixels: b.Pixels(),
	}
}
