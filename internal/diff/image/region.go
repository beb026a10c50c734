package image

type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type point struct {
	x int
	y int
}

// Regions groups the pixels of diff painted with tint into bounding
// rectangles. Rectangles that overlap or lie within gap pixels of each other
// are merged.
func Regions(diff *Buffer, tint Pixel, gap int) []Rectangle {
	width, height := diff.width, diff.height
	visited := make([]bool, len(diff.pixels))

	var rectangles []Rectangle
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if diff.pixels[i] == tint && !visited[i] {
				rectangles = append(rectangles, findBoundingBox(diff, tint, visited, x, y))
			}
		}
	}

	return mergeRectangles(rectangles, gap)
}

func findBoundingBox(diff *Buffer, tint Pixel, visited []bool, startX int, startY int) Rectangle {
	width, height := diff.width, diff.height
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []point{{startX, startY}}
	visited[startY*width+startX] = true

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		minX = min(minX, p.x)
		maxX = max(maxX, p.x)
		minY = min(minY, p.y)
		maxY = max(maxY, p.y)

		// 8-connected neighbours
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}

				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				i := ny*width + nx
				if diff.pixels[i] == tint && !visited[i] {
					visited[i] = true
					queue = append(queue, point{nx, ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

func mergeRectangles(rects []Rectangle, gap int) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0, len(rects))
	used := make([]bool, len(rects))

	for i := range rects {
		if used[i] {
			continue
		}

		current := rects[i]
		mergedAny := true
		for mergedAny {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}
				if current.expand(gap).overlaps(rects[j]) {
					current = current.union(rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func (r Rectangle) overlaps(o Rectangle) bool {
	return !(r.X+r.Width <= o.X || o.X+o.Width <= r.X ||
		r.Y+r.Height <= o.Y || o.Y+o.Height <= r.Y)
}

func (r Rectangle) expand(n int) Rectangle {
	return Rectangle{
		X:      r.X - n,
		Y:      r.Y - n,
		Width:  r.Width + 2*n,
		Height: r.Height + 2*n,
	}
}

func (r Rectangle) union(o Rectangle) Rectangle {
	minX, minY := min(r.X, o.X), min(r.Y, o.Y)
	maxX, maxY := max(r.X+r.Width, o.X+o.Width), max(r.Y+r.Height, o.Y+o.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Outline returns a copy of img with a 1 pixel border of c drawn around each
// rectangle. Borders are clipped to the image.
func Outline(img *Buffer, rects []Rectangle, c Pixel) *Buffer {
	out := img.clone()

	set := func(x int, y int) {
		if x >= 0 && x < out.width && y >= 0 && y < out.height {
			out.pixels[y*out.width+x] = c
		}
	}

	for _, rect := range rects {
		left, top := rect.X-1, rect.Y-1
		right, bottom := rect.X+rect.Width, rect.Y+rect.Height
		for x := left; x <= right; x++ {
			set(x, top)
			set(x, bottom)
		}
		for y := top; y <= bottom; y++ {
			set(left, y)
			set(right, y)
		}
	}

	return out
}
