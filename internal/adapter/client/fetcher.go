package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// maxFetchBytes caps a download; anything larger is not deliverable anyway.
const maxFetchBytes = 20 << 20

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg"}

// HTTPFetcher probes and downloads remote images.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Probe issues a HEAD request and reports whether the URL serves an image.
// Some servers answer image bytes with application/octet-stream, so a known
// image extension also counts.
func (f *HTTPFetcher) Probe(ctx context.Context, rawURL string) (entity.ImageProbe, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", rawURL, nil)
	if err != nil {
		return entity.ImageProbe{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return entity.ImageProbe{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.ImageProbe{}, fmt.Errorf("probe status %d for %s", resp.StatusCode, rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	return entity.ImageProbe{
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		IsImage:       looksLikeImage(rawURL, contentType),
	}, nil
}

// Download fetches the image bytes, bounded by maxFetchBytes.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxFetchBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes: %s", maxFetchBytes, rawURL)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func looksLikeImage(rawURL, contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	lower := strings.ToLower(rawURL)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
