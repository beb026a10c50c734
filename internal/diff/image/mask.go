package image

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/xerrors"
)

var ErrInvalidRectangle = errors.New("invalid rectangle")

// ParseRectangle reads a rectangle written as "x,y,width,height".
func ParseRectangle(s string) (Rectangle, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return Rectangle{}, xerrors.Errorf("%q is not x,y,width,height: %w", s, ErrInvalidRectangle)
	}

	var values [4]int
	for i, field := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return Rectangle{}, xerrors.Errorf("%q: %w", s, ErrInvalidRectangle)
		}
		values[i] = v
	}
	if values[2] < 0 || values[3] < 0 {
		return Rectangle{}, xerrors.Errorf("%q has a negative size: %w", s, ErrInvalidRectangle)
	}

	return Rectangle{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Rectangles collects repeated -ignore flags.
type Rectangles []Rectangle

func (r *Rectangles) String() string {
	if r == nil {
		return ""
	}
	s := make([]string, 0, len(*r))
	for _, rect := range *r {
		s = append(s, rect.String())
	}
	return strings.Join(s, " ")
}

func (r *Rectangles) Set(s string) error {
	rect, err := ParseRectangle(s)
	if err != nil {
		return err
	}
	*r = append(*r, rect)
	return nil
}

func (r Rectangle) bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Clear returns a copy of b with every rectangle made transparent, so the
// covered pixels take no part in comparisons. Rectangles are clipped to b.
func (b *Buffer) Clear(rects ...Rectangle) *Buffer {
	out := b.clone()
	whole := image.Rect(0, 0, b.width, b.height)

	for _, rect := range rects {
		area := rect.bounds().Intersect(whole)
		for y := area.Min.Y; y < area.Max.Y; y++ {
			for x := area.Min.X; x < area.Max.X; x++ {
				out.pixels[y*out.width+x] = Clear
			}
		}
	}
	return out
}

// ClearImage is Clear for screenshots that are not prepared yet. Rectangles
// are relative to the top left corner of img. Without rectangles img is
// returned as is.
func ClearImage(img image.Image, rects ...Rectangle) image.Image {
	if len(rects) == 0 {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)
	xdraw.Draw(dst, bounds, img, bounds.Min, xdraw.Src)

	for _, rect := range rects {
		area := rect.bounds().Add(bounds.Min).Intersect(bounds)
		if area.Empty() {
			continue
		}
		xdraw.Draw(dst, area, image.Transparent, image.Point{}, xdraw.Src)
	}
	return dst
}
