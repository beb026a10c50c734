package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	diffimage "screenshot-verifier/internal/diff/image"
	"screenshot-verifier/internal/runnable"
	"screenshot-verifier/internal/source"
	"screenshot-verifier/internal/storage"
	"screenshot-verifier/internal/verify"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type Target struct {
	Name     string
	Location string
}

// parseTarget reads "name=location", or a bare location named after its file.
func parseTarget(arg string) Target {
	if name, location, ok := strings.Cut(arg, "="); ok && name != "" && !strings.Contains(name, "://") {
		return Target{Name: name, Location: location}
	}
	base := filepath.Base(arg)
	return Target{Name: strings.TrimSuffix(base, filepath.Ext(base)), Location: arg}
}

type Runner struct {
	Verifier *verify.Verifier
	Loader   *source.Loader
	Log      logr.Logger
}

// Run verifies every target and returns the reports in target order. Targets
// that fail to match do not stop the others.
func (r *Runner) Run(ctx context.Context, targets []Target) ([]*verify.Report, error) {
	reports := make([]*verify.Report, len(targets))
	var mu sync.Mutex
	var failures []error

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, target := range targets {
		eg.Go(func() error {
			img, err := r.Loader.Load(ctx, target.Location)
			if err != nil {
				return xerrors.Errorf("failed to load %s: %w", target.Name, err)
			}

			report, err := r.Verifier.Verify(ctx, target.Name, img)
			reports[i] = report
			switch {
			case err == nil:
			case errors.Is(err, verify.ErrNoMatch), errors.Is(err, verify.ErrNoReference), errors.Is(err, verify.ErrRecordMode):
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			default:
				return xerrors.Errorf("failed to verify %s: %w", target.Name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return reports, err
	}
	return reports, errors.Join(failures...)
}

func main() {
	_ = godotenv.Load()

	var strategyName string
	var tolerance float64
	var scaleFactor float64
	var threshold float64
	var density float64
	var recordMode bool
	var storageBackend string
	var schedule string
	var ignore diffimage.Rectangles
	flag.StringVar(&strategyName, "strategy", runnable.EnvOrDefaultValue("STRATEGY", "tolerance"), "Comparison strategy (strict, tolerance, greyscale, dna or average-color)")
	flag.Float64Var(&tolerance, "tolerance", runnable.EnvOrDefaultValue("TOLERANCE", diffimage.DefaultTolerance), "Per pixel tolerance")
	flag.Float64Var(&scaleFactor, "scale-factor", runnable.EnvOrDefaultValue("SCALE_FACTOR", diffimage.DefaultScaleFactor), "Downscale factor of the dna strategy")
	flag.Float64Var(&threshold, "threshold", runnable.EnvOrDefaultValue("THRESHOLD", verify.DefaultThreshold), "Accepted difference in [0, 1)")
	flag.Float64Var(&density, "density", runnable.EnvOrDefaultValue("DENSITY", 1.0), "Screenshot pixels per logical point")
	flag.BoolVar(&recordMode, "record", runnable.EnvOrDefaultValue("RECORD_MODE", false), "Save screenshots as references")
	flag.StringVar(&storageBackend, "storage-backend", runnable.EnvOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.Var(&ignore, "ignore", "Area x,y,width,height excluded from comparison, may be repeated")
	flag.StringVar(&schedule, "schedule", runnable.EnvOrDefaultValue("SCHEDULE", ""), "Cron schedule to verify on, runs once when empty")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("no screenshots specified")
	}
	targets := make([]Target, 0, len(args))
	for _, arg := range args {
		targets = append(targets, parseTarget(arg))
	}

	logger, err := runnable.NewLogger(runnable.EnvOrDefaultValue("DEBUG", false))
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	logrLogger := logr.FromSlogHandler(logger.Handler())

	strategy, err := diffimage.ParseStrategy(strategyName, tolerance, scaleFactor)
	if err != nil {
		log.Fatalf("failed to parse strategy: %v", err)
	}

	ctx := context.Background()
	s, err := storage.New(ctx, storage.Config{
		Backend:   storageBackend,
		Directory: runnable.EnvOrDefaultValue("DIRECTORY", "/tmp"),
		Bucket:    runnable.EnvOrDefaultValue("S3_BUCKET", ""),
		Prefix:    runnable.EnvOrDefaultValue("S3_PREFIX", ""),
	})
	if err != nil {
		log.Fatalf("failed to create storage backend: %v", err)
	}

	runner := &Runner{
		Verifier: &verify.Verifier{
			Storage:    s,
			Log:        logrLogger,
			Strategy:   strategy,
			Threshold:  threshold,
			Density:    density,
			RecordMode: recordMode,
			Ignore:     ignore,
		},
		Loader: source.NewLoader(),
		Log:    logrLogger,
	}

	if schedule == "" {
		reports, err := runner.Run(ctx, targets)
		printReports(reports)
		if err != nil {
			log.Fatalf("verification failed: %v", err)
		}
		return
	}

	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	if _, err := c.AddFunc(schedule, func() {
		reports, err := runner.Run(ctx, targets)
		printReports(reports)
		if err != nil {
			logrLogger.Error(err, "verification failed")
		}
	}); err != nil {
		log.Fatalf("failed to parse schedule: %v", err)
	}
	c.Start()
	logrLogger.Info("scheduled verification", "schedule", schedule, "screenshots", len(targets))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit
	<-c.Stop().Done()
}

func printReports(reports []*verify.Report) {
	encoder := json.NewEncoder(os.Stdout)
	for _, report := range reports {
		if report == nil {
			continue
		}
		if err := encoder.Encode(report); err != nil {
			log.Printf("failed to encode report: %v", err)
		}
	}
}
