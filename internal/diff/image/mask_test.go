package image

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuffer_Clear(t *testing.T) {
	b := mustBuffer(t, 4, 4,
		Black, Green, Clear, Brown,
		Green, White, White, Clear,
		Clear, White, White, Green,
		Brown, Clear, Green, Black,
	)

	t.Run("Center", func(t *testing.T) {
		got := b.Clear(Rectangle{X: 1, Y: 1, Width: 2, Height: 2})
		want := mustBuffer(t, 4, 4,
			Black, Green, Clear, Brown,
			Green, Clear, Clear, Clear,
			Clear, Clear, Clear, Green,
			Brown, Clear, Green, Black,
		)
		if !got.Equal(want) {
			t.Errorf("(-want +got):\n%s", cmp.Diff(want.Pixels(), got.Pixels()))
		}
	})

	t.Run("ClippedToBounds", func(t *testing.T) {
		got := b.Clear(Rectangle{X: 3, Y: -2, Width: 5, Height: 3}, Rectangle{X: 10, Y: 10, Width: 2, Height: 2})
		want := mustBuffer(t, 4, 4,
			Black, Green, Clear, Clear,
			Green, White, White, Clear,
			Clear, White, White, Green,
			Brown, Clear, Green, Black,
		)
		if !got.Equal(want) {
			t.Errorf("(-want +got):\n%s", cmp.Diff(want.Pixels(), got.Pixels()))
		}
	})

	t.Run("LeavesOriginal", func(t *testing.T) {
		_ = b.Clear(Rectangle{Width: 4, Height: 4})
		if b.At(0, 0) != Black {
			t.Errorf("Expected original buffer to be untouched, got %s", b.At(0, 0))
		}
	})
}

func TestClearImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 14, 13))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	got := FromImage(ClearImage(img, Rectangle{X: 1, Y: 1, Width: 2, Height: 5}))
	want := mustBuffer(t, 4, 3,
		White, White, White, White,
		White, Clear, Clear, White,
		White, Clear, Clear, White,
	)
	if !got.Equal(want) {
		t.Errorf("(-want +got):\n%s", cmp.Diff(want.Pixels(), got.Pixels()))
	}

	if ClearImage(img) != image.Image(img) {
		t.Errorf("Expected image without rectangles to be returned as is")
	}
}

func TestCompare_IgnoredRectangle(t *testing.T) {
	actual := NewUniformBuffer(White, 4, 4)
	actual.pixels[5] = Black
	reference := NewUniformBuffer(White, 4, 4)

	before, err := Compare(Strict{}, actual, reference)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if before.DiffAmount != 1.0/16.0 {
		t.Fatalf("Expected DiffAmount to be 1/16, got %f", before.DiffAmount)
	}

	after, err := Compare(Strict{}, actual.Clear(Rectangle{X: 1, Y: 1, Width: 1, Height: 1}), reference)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if after.DiffAmount != 0 || after.Compared != 15 {
		t.Errorf("Expected masked mismatch to be ignored, got %f over %d pixels", after.DiffAmount, after.Compared)
	}
}

func TestParseRectangle(t *testing.T) {
	type want struct {
		rect Rectangle
		err  error
	}

	tests := []struct {
		name string
		in   string
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"10,20,30,40",
			want{Rectangle{X: 10, Y: 20, Width: 30, Height: 40}, nil},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			" -1, 2, 3, 4",
			want{Rectangle{X: -1, Y: 2, Width: 3, Height: 4}, nil},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"1,2,3",
			want{Rectangle{}, ErrInvalidRectangle},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"1,2,-3,4",
			want{Rectangle{}, ErrInvalidRectangle},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			"a,b,c,d",
			want{Rectangle{}, ErrInvalidRectangle},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRectangle(in)
			if !errors.Is(err, want.err) {
				t.Errorf("Expected error %v, got %v", want.err, err)
			}
			if diff := cmp.Diff(want.rect, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRectangles_Set(t *testing.T) {
	var r Rectangles
	for _, s := range []string{"0,0,1,1", "5,5,2,3"} {
		if err := r.Set(s); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if diff := cmp.Diff("0,0,1,1 5,5,2,3", r.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
