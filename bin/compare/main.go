package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	diffimage "screenshot-verifier/internal/diff/image"
	"screenshot-verifier/internal/runnable"
	"screenshot-verifier/internal/source"
	"screenshot-verifier/internal/storage"
	"screenshot-verifier/internal/verify"
	"time"
)

type CompareOutput struct {
	DiffPath   string                `json:"diffPath"`
	DiffAmount float64               `json:"diffAmount"`
	Passed     bool                  `json:"passed"`
	Risky      bool                  `json:"risky"`
	Regions    []diffimage.Rectangle `json:"regions,omitempty"`
}

func main() {
	var directory string
	var strategyName string
	var tolerance float64
	var scaleFactor float64
	var threshold float64
	var density float64
	var ignore diffimage.Rectangles
	flag.StringVar(&directory, "directory", runnable.EnvOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&strategyName, "strategy", runnable.EnvOrDefaultValue("STRATEGY", "tolerance"), "Comparison strategy (strict, tolerance, greyscale, dna or average-color)")
	flag.Float64Var(&tolerance, "tolerance", runnable.EnvOrDefaultValue("TOLERANCE", diffimage.DefaultTolerance), "Per pixel tolerance")
	flag.Float64Var(&scaleFactor, "scale-factor", runnable.EnvOrDefaultValue("SCALE_FACTOR", diffimage.DefaultScaleFactor), "Downscale factor of the dna strategy")
	flag.Float64Var(&threshold, "threshold", runnable.EnvOrDefaultValue("THRESHOLD", verify.DefaultThreshold), "Accepted difference in [0, 1)")
	flag.Float64Var(&density, "density", runnable.EnvOrDefaultValue("DENSITY", 1.0), "Screenshot pixels per logical point")

	flag.Var(&ignore, "ignore", "Area x,y,width,height excluded from comparison, may be repeated")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("actual, reference not specified")
	}

	strategy, err := diffimage.ParseStrategy(strategyName, tolerance, scaleFactor)
	if err != nil {
		log.Fatalf("Failed to parse strategy: %v", err)
	}
	risky, err := verify.CheckThreshold(threshold)
	if err != nil {
		log.Fatalf("Failed to check threshold: %v", err)
	}

	ctx := context.Background()
	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	actualPath := args[0]
	referencePath := args[1]

	actual, err := loadScreenshot(ctx, strategy, actualPath, density, ignore)
	if err != nil {
		log.Fatalf("Failed to load actual image: %v", err)
	}
	reference, err := loadScreenshot(ctx, strategy, referencePath, density, ignore)
	if err != nil {
		log.Fatalf("Failed to load reference image: %v", err)
	}

	comparator := diffimage.NewComparator(strategy)
	diffResult, err := comparator.Calculate(actual, reference)
	if err != nil {
		log.Fatalf("Failed to compare images: %v", err)
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, diffResult.Image.Image()); err != nil {
		log.Fatalf("Failed to encode diff image: %v", err)
	}

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(actualPath + referencePath))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	key := fmt.Sprintf("%s/%s/%s.png", verify.ArtifactDifference, hash, timestamp)
	diffPath, err := s.Put(ctx, key, buffer.Bytes())
	if err != nil {
		log.Fatalf("Failed to save diff image: %v", err)
	}

	output := CompareOutput{
		DiffPath:   diffPath,
		DiffAmount: diffResult.DiffAmount,
		Passed:     verify.Passed(diffResult.DiffAmount, threshold),
		Risky:      risky,
	}
	if _, ok := strategy.(diffimage.AverageColor); !ok {
		output.Regions = diffimage.Regions(diffResult.Image, comparator.Palette().Tint, 10)
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if !output.Passed {
		os.Exit(1)
	}
}

func loadScreenshot(ctx context.Context, strategy diffimage.Strategy, location string, density float64, ignore []diffimage.Rectangle) (*diffimage.Buffer, error) {
	img, err := source.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return diffimage.Prepare(strategy, diffimage.ClearImage(img, ignore...), density)
}
