package routes

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	diffimage "screenshot-verifier/internal/diff/image"
	"screenshot-verifier/internal/myhttp"
	"screenshot-verifier/internal/source"
	"screenshot-verifier/internal/storage"
	"screenshot-verifier/internal/verify"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

const maxMemory = 32 << 20

type CompareResponse struct {
	DiffData   string                `json:"diffData"`
	DiffURL    string                `json:"diffURL,omitempty"`
	DiffAmount float64               `json:"diffAmount"`
	Passed     bool                  `json:"passed"`
	Risky      bool                  `json:"risky"`
	Regions    []diffimage.Rectangle `json:"regions,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Compare handles multipart requests carrying an actual and a reference
// screenshot. When storageClient is set the diff image is kept there too.
func Compare(storageClient storage.Storage, comparisons metric.Int64Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := myhttp.Logger(r.Context())

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err)
			return
		}

		params, err := parseCompareParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err)
			return
		}

		actualData, err := readFormFile(r, "actual")
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err)
			return
		}
		referenceData, err := readFormFile(r, "reference")
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", err)
			return
		}

		risky, err := verify.CheckThreshold(params.threshold)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadThreshold", err)
			return
		}

		actual, err := prepare(params, actualData)
		if err != nil {
			writeDecodeError(w, err)
			return
		}
		reference, err := prepare(params, referenceData)
		if err != nil {
			writeDecodeError(w, err)
			return
		}

		comparator := diffimage.NewComparator(params.strategy)
		result, err := comparator.Calculate(actual, reference)
		switch {
		case errors.Is(err, diffimage.ErrUnexpectedSize):
			writeError(w, http.StatusUnprocessableEntity, "UnexpectedSize", err)
			return
		case errors.Is(err, diffimage.ErrNothingInCommon):
			writeError(w, http.StatusUnprocessableEntity, "NothingInCommon", err)
			return
		case err != nil:
			logger.Error("failed to compare screenshots", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		response := CompareResponse{
			DiffAmount: result.DiffAmount,
			Passed:     verify.Passed(result.DiffAmount, params.threshold),
			Risky:      risky,
		}
		if _, ok := params.strategy.(diffimage.AverageColor); !ok {
			response.Regions = diffimage.Regions(result.Image, comparator.Palette().Tint, 10)
		}

		var buffer bytes.Buffer
		if err := png.Encode(&buffer, result.Image.Image()); err != nil {
			logger.Error("failed to encode diff image", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		response.DiffData = base64.StdEncoding.EncodeToString(buffer.Bytes())

		if storageClient != nil {
			key := fmt.Sprintf("%s/%s/%s.png", verify.ArtifactDifference, hash(actualData, referenceData), time.Now().Format("20060102150405"))
			location, err := storageClient.Put(r.Context(), key, buffer.Bytes())
			if err != nil {
				logger.Error("failed to save diff image", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			response.DiffURL = location
		}

		comparisons.Add(r.Context(), 1, metric.WithAttributes(
			attribute.Key("strategy").String(params.strategy.Name()),
			attribute.Key("passed").Bool(response.Passed),
		))
		logger.Debug("compared screenshots", "strategy", params.strategy.Name(), "diffAmount", result.DiffAmount, "threshold", params.threshold)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

type compareParams struct {
	strategy  diffimage.Strategy
	threshold float64
	density   float64
	ignore    []diffimage.Rectangle
}

func parseCompareParams(r *http.Request) (*compareParams, error) {
	tolerance, err := formFloat(r, "tolerance", diffimage.DefaultTolerance)
	if err != nil {
		return nil, err
	}
	scaleFactor, err := formFloat(r, "scaleFactor", diffimage.DefaultScaleFactor)
	if err != nil {
		return nil, err
	}
	threshold, err := formFloat(r, "threshold", verify.DefaultThreshold)
	if err != nil {
		return nil, err
	}
	density, err := formFloat(r, "density", 1)
	if err != nil {
		return nil, err
	}

	name := r.FormValue("strategy")
	if name == "" {
		name = diffimage.NewWithTolerance().Name()
	}
	strategy, err := diffimage.ParseStrategy(name, tolerance, scaleFactor)
	if err != nil {
		return nil, err
	}

	var ignore []diffimage.Rectangle
	for _, value := range r.Form["ignore"] {
		rect, err := diffimage.ParseRectangle(value)
		if err != nil {
			return nil, err
		}
		ignore = append(ignore, rect)
	}

	return &compareParams{
		strategy:  strategy,
		threshold: threshold,
		density:   density,
		ignore:    ignore,
	}, nil
}

func formFloat(r *http.Request, key string, defaultValue float64) (float64, error) {
	value := r.FormValue(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func readFormFile(r *http.Request, key string) ([]byte, error) {
	file, _, err := r.FormFile(key)
	if err != nil {
		return nil, xerrors.Errorf("missing %s screenshot: %w", key, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s screenshot: %w", key, err)
	}
	return data, nil
}

// prepare decodes a screenshot, clears the ignored areas and prepares it for
// the requested strategy.
func prepare(params *compareParams, data []byte) (*diffimage.Buffer, error) {
	img, err := source.Decode(data)
	if err != nil {
		return nil, err
	}
	return diffimage.Prepare(params.strategy, diffimage.ClearImage(img, params.ignore...), params.density)
}

func hash(data ...[]byte) string {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, source.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "TooLarge", err)
		return
	}
	writeError(w, http.StatusBadRequest, "BadRequest", err)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:  kind,
		Detail: err.Error(),
	})
}
