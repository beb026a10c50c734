package image

type DiffResult struct {
	Image      *Buffer
	DiffAmount float64

	// Compared and Mismatched count opaque pixel pairs. Both are zero for
	// the average color strategy.
	Compared   int64
	Mismatched int64

	// Actual and Reference hold the averaged colors of the average color
	// strategy.
	Actual    Pixel
	Reference Pixel
}

type Differ interface {
	Calculate(actual *Buffer, reference *Buffer) (*DiffResult, error)
}
