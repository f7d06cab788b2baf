package repository

import (
	"context"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// PageExtractor renders a source page and returns the raw image references
// it carries. A network or parse failure is the caller's signal to move on,
// never a fatal condition.
type PageExtractor interface {
	ExtractImages(ctx context.Context, pageURL string) ([]entity.PageImage, error)
}

// ImageSearcher runs one open-web image search attempt.
type ImageSearcher interface {
	SearchImages(ctx context.Context, q entity.SearchQuery) ([]string, error)
}

// VisionJudge scores a batch of image URLs against the request brief.
// Judgments pair back to inputs by Judgment.Index; inputs the model skipped
// are simply absent. Transport or quota failures are reported as
// entity.ErrJudgmentUnavailable.
type VisionJudge interface {
	Judge(ctx context.Context, urls []string, brief entity.Brief) ([]entity.Judgment, error)
}

// ImageFetcher checks and downloads remote images.
type ImageFetcher interface {
	Probe(ctx context.Context, url string) (entity.ImageProbe, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// ImageEncoder inspects and re-encodes image bytes to delivery constraints.
type ImageEncoder interface {
	Inspect(data []byte) (entity.ImageInfo, error)
	Encode(data []byte) (entity.EncodedImage, error)
}

// ImageStore persists processed images and ages them out.
type ImageStore interface {
	Put(ctx context.Context, data []byte, contentType, ext string) (string, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ResultCache is the persisted key-value store of resolved results.
// Get returns (nil, nil) when the key is absent.
type ResultCache interface {
	Get(ctx context.Context, key string) (*entity.CacheEntry, error)
	Set(ctx context.Context, key string, entry entity.CacheEntry) error
}
