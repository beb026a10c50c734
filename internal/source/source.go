package source

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"screenshot-verifier/internal/retry"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"
)

var (
	ErrUnavailable = errors.New("screenshot is unavailable")
	ErrTooLarge    = errors.New("screenshot is too large")
)

// MaxPixels bounds the declared dimensions of decoded screenshots.
const MaxPixels = 50_000_000

// maxSize bounds the number of bytes read from a single screenshot.
const maxSize = 64 << 20

// Loader reads screenshots from local files or http(s) URLs.
type Loader struct {
	Client *http.Client
}

func NewLoader() *Loader {
	return &Loader{
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &retry.Transport{
				Base:    http.DefaultTransport,
				Backoff: &retry.Exponential{Base: 100 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 3},
				Policy:  retry.DefaultPolicy(),
			},
		},
	}
}

var defaultLoader = NewLoader()

func Load(ctx context.Context, location string) (image.Image, error) {
	return defaultLoader.Load(ctx, location)
}

func (l *Loader) Load(ctx context.Context, location string) (image.Image, error) {
	data, err := l.Read(ctx, location)
	if err != nil {
		return nil, err
	}

	img, err := Decode(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode %s: %w", location, err)
	}
	return img, nil
}

// Read returns the raw bytes behind location.
func (l *Loader) Read(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, xerrors.Errorf("failed to read %s: %w", location, err)
		}
		return data, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}

	response, err := l.Client.Do(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch %s: %w", location, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("failed to fetch %s (status %d): %w", location, response.StatusCode, ErrUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxSize))
	if err != nil {
		return nil, xerrors.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// Decode reads PNG, JPEG, BMP, TIFF or WebP data. Images declaring more than
// MaxPixels pixels are rejected before their pixels are allocated.
func Decode(data []byte) (image.Image, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image header: %w", err)
	}
	if config.Width < 0 || config.Height < 0 || (config.Height > 0 && config.Width > MaxPixels/config.Height) {
		return nil, xerrors.Errorf("%dx%d exceeds %d pixels: %w", config.Width, config.Height, MaxPixels, ErrTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
