package display

import (
	"context"
	"fmt"
	"image"
	"net/http"

	// Decoders for the upload formats the collaborator accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/prakoso/tvcast/internal/domain"
)

// Dimensions are the natural (decoded) pixel size of an image, not the
// displayed box. Fit-to-screen scales from these.
type Dimensions struct {
	Width  int
	Height int
}

// Measurer resolves an image reference to its natural dimensions.
type Measurer interface {
	Measure(ctx context.Context, url string) (Dimensions, error)
}

// HTTPMeasurer fetches the image bytes and decodes only the header.
type HTTPMeasurer struct {
	http *http.Client
}

func NewHTTPMeasurer() *HTTPMeasurer {
	return &HTTPMeasurer{http: &http.Client{}}
}

func (m *HTTPMeasurer) Measure(ctx context.Context, url string) (Dimensions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Dimensions{}, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return Dimensions{}, &domain.TransientError{Op: "measure image", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Dimensions{}, &domain.TransientError{Op: "measure image", Status: resp.StatusCode}
	}

	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image header: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
