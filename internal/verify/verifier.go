package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	diffimage "screenshot-verifier/internal/diff/image"
	"screenshot-verifier/internal/storage"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var (
	ErrRecordMode  = errors.New("record mode is enabled, saved reference screenshot")
	ErrNoReference = errors.New("reference screenshot is missing, saved suggested screenshot")
	ErrNoMatch     = errors.New("actual and reference screenshots are not similar, saved unexpected screenshot")
)

type Artifact string

const (
	ArtifactReference   Artifact = "Reference"
	ArtifactSuggested   Artifact = "Suggested"
	ArtifactUnexpected  Artifact = "Unexpected"
	ArtifactDifference  Artifact = "Difference"
	ArtifactHighlighted Artifact = "Highlighted"
)

// Key returns the storage key of the artifact for a screenshot name.
func (a Artifact) Key(name string) string {
	return fmt.Sprintf("%s/%s.png", a, name)
}

// regionGap is the distance in pixels below which mismatch regions merge.
const regionGap = 10

var highlightColor = diffimage.Red

type Report struct {
	Name       string                `json:"name"`
	Strategy   string                `json:"strategy"`
	Threshold  float64               `json:"threshold"`
	DiffAmount float64               `json:"diffAmount"`
	Risky      bool                  `json:"risky"`
	Passed     bool                  `json:"passed"`
	Regions    []diffimage.Rectangle `json:"regions,omitempty"`
	Artifacts  map[Artifact]string   `json:"artifacts,omitempty"`
}

// Verifier checks screenshots against reference screenshots kept in Storage.
type Verifier struct {
	Storage  storage.Storage
	Log      logr.Logger
	Strategy diffimage.Strategy
	// Threshold is the largest accepted difference, in [0, 1).
	Threshold float64
	// Density is the number of screenshot pixels per logical point.
	Density float64
	// RecordMode saves screenshots as references instead of verifying them.
	RecordMode bool
	// Ignore lists screenshot areas cleared before preparation, so they take
	// no part in the comparison.
	Ignore []diffimage.Rectangle
}

// Verify compares actual with the reference screenshot stored under name.
// The report is returned together with ErrNoMatch when the difference exceeds
// the threshold.
func (v *Verifier) Verify(ctx context.Context, name string, actual image.Image) (*Report, error) {
	strategy, err := diffimage.Canonical(v.Strategy)
	if err != nil {
		return nil, err
	}
	log := v.Log.WithValues("name", name, "strategy", strategy.Name())

	report := &Report{
		Name:      name,
		Strategy:  strategy.Name(),
		Threshold: v.Threshold,
		Artifacts: map[Artifact]string{},
	}

	prepared, err := diffimage.Prepare(strategy, diffimage.ClearImage(actual, v.Ignore...), v.density())
	if err != nil {
		return nil, xerrors.Errorf("failed to prepare screenshot: %w", err)
	}

	if v.RecordMode {
		location, err := v.put(ctx, ArtifactReference.Key(name), prepared)
		if err != nil {
			return nil, err
		}
		report.Artifacts[ArtifactReference] = location
		log.Info("saved reference screenshot", "location", location)
		return report, ErrRecordMode
	}

	risky, err := CheckThreshold(v.Threshold)
	if err != nil {
		return nil, err
	}
	report.Risky = risky
	if risky {
		log.Info("threshold is dangerously high", "threshold", v.Threshold)
	}

	reference, err := v.reference(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		location, err := v.put(ctx, ArtifactSuggested.Key(name), prepared)
		if err != nil {
			return nil, err
		}
		report.Artifacts[ArtifactSuggested] = location
		log.Info("reference screenshot is missing", "suggested", location)
		return report, ErrNoReference
	}
	if err != nil {
		return nil, err
	}

	comparator := diffimage.NewComparator(strategy)
	result, err := comparator.Calculate(prepared, reference)
	if err != nil {
		return nil, xerrors.Errorf("failed to compare %s: %w", name, err)
	}

	report.DiffAmount = result.DiffAmount
	report.Passed = Passed(result.DiffAmount, v.Threshold)

	log.V(1).Info("compared screenshots", "threshold", fmt.Sprintf("%.4f", v.Threshold), "difference", fmt.Sprintf("%.4f", result.DiffAmount))
	if _, ok := strategy.(diffimage.AverageColor); ok {
		log.V(1).Info("compared average colors", "actual", result.Actual.String(), "expected", result.Reference.String())
	}

	if result.DiffAmount == 0 {
		log.Info("collected and reference screenshots are similar")
		return report, nil
	}

	uploads := map[Artifact]*diffimage.Buffer{
		ArtifactDifference: result.Image,
	}
	if _, ok := strategy.(diffimage.AverageColor); !ok {
		report.Regions = diffimage.Regions(result.Image, comparator.Palette().Tint, regionGap)
		uploads[ArtifactHighlighted] = diffimage.Outline(prepared, report.Regions, highlightColor)
	}
	if !report.Passed {
		uploads[ArtifactUnexpected] = prepared
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	for artifact, buffer := range uploads {
		eg.Go(func() error {
			location, err := v.put(ctx, artifact.Key(name), buffer)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			report.Artifacts[artifact] = location
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if !report.Passed {
		log.Info("screenshot does not match", "difference", result.DiffAmount, "threshold", v.Threshold)
		return report, ErrNoMatch
	}
	return report, nil
}

func (v *Verifier) density() float64 {
	if v.Density == 0 {
		return 1
	}
	return v.Density
}

func (v *Verifier) reference(ctx context.Context, name string) (*diffimage.Buffer, error) {
	data, err := v.Storage.Get(ctx, ArtifactReference.Key(name))
	if err != nil {
		return nil, xerrors.Errorf("failed to get reference screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode reference screenshot: %w", err)
	}

	return diffimage.FromImage(img), nil
}

func (v *Verifier) put(ctx context.Context, key string, b *diffimage.Buffer) (string, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, b.Image()); err != nil {
		return "", xerrors.Errorf("failed to encode %s: %w", key, err)
	}

	location, err := v.Storage.Put(ctx, key, buffer.Bytes())
	if err != nil {
		return "", xerrors.Errorf("failed to save %s: %w", key, err)
	}
	return location, nil
}
