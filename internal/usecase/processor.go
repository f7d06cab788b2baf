package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/nik-ti/image-finder/internal/domain/entity"
	"github.com/nik-ti/image-finder/internal/domain/repository"
)

// Delivery constraints for outbound images.
const (
	maxDeliveryDimension = 1280
	minDeliveryDimension = 1000
	maxDeliveryBytes     = 10 << 20
)

// Processor finalizes an accepted candidate. The hybrid policy: when the
// original bytes already satisfy delivery constraints the original URL is
// returned untouched; only oversized images are re-encoded and stored.
type Processor struct {
	fetcher repository.ImageFetcher
	encoder repository.ImageEncoder
	storage repository.ImageStore
}

func NewProcessor(fetcher repository.ImageFetcher, encoder repository.ImageEncoder, storage repository.ImageStore) *Processor {
	return &Processor{fetcher: fetcher, encoder: encoder, storage: storage}
}

// Finalize validates, downloads and, if needed, re-encodes the accepted
// candidate. Judgment may be nil for blind-mode acceptances.
func (p *Processor) Finalize(ctx context.Context, cand entity.Candidate, judgment *entity.Judgment) (*entity.FindResult, error) {
	probe, err := p.fetcher.Probe(ctx, cand.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidationFailed, err)
	}
	if !probe.IsImage {
		return nil, fmt.Errorf("%w: not image-typed (%s)", entity.ErrValidationFailed, probe.ContentType)
	}

	data, _, err := p.download(ctx, cand.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidationFailed, err)
	}

	info, err := p.encoder.Inspect(data)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %v", entity.ErrValidationFailed, err)
	}
	if info.Width < minDeliveryDimension && info.Height < minDeliveryDimension {
		return nil, fmt.Errorf("%w: too small (%dx%d)", entity.ErrValidationFailed, info.Width, info.Height)
	}

	result := resultFor(cand, judgment)

	// Hybrid skip: original already within bounds, no re-encode needed.
	if info.Width <= maxDeliveryDimension && info.Height <= maxDeliveryDimension && len(data) <= maxDeliveryBytes {
		log.Printf("[PROCESSOR] using original without re-encode: %.50s", cand.URL)
		result.ImageURL = cand.URL
		result.Format = "original"
		result.Dimensions = fmt.Sprintf("%dx%d", info.Width, info.Height)
		return result, nil
	}

	encoded, err := p.encoder.Encode(data)
	if err != nil {
		return p.retreatToOriginal(cand, info, result, fmt.Errorf("%w: %v", entity.ErrProcessingFailed, err))
	}
	ref, err := p.storage.Put(ctx, encoded.Data, "image/"+encoded.Format, extFor(encoded.Format))
	if err != nil {
		return p.retreatToOriginal(cand, info, result, fmt.Errorf("%w: store: %v", entity.ErrProcessingFailed, err))
	}

	log.Printf("[PROCESSOR] re-encoded %.50s -> %s (%s, %dx%d, %dKB)",
		cand.URL, ref, encoded.Format, encoded.Width, encoded.Height, len(encoded.Data)/1024)
	result.ImageURL = ref
	result.Format = encoded.Format
	result.Dimensions = fmt.Sprintf("%dx%d", encoded.Width, encoded.Height)
	return result, nil
}

// download attempts the fetch twice: transient failures get exactly one retry.
func (p *Processor) download(ctx context.Context, url string) ([]byte, string, error) {
	data, contentType, err := p.fetcher.Download(ctx, url)
	if err == nil {
		return data, contentType, nil
	}
	if ctx.Err() != nil {
		return nil, "", err
	}
	log.Printf("[PROCESSOR] download retry for %.50s after: %v", url, err)
	return p.fetcher.Download(ctx, url)
}

// retreatToOriginal handles re-encode/storage failure: the original already
// validated, so deliver it unprocessed rather than discarding the candidate.
func (p *Processor) retreatToOriginal(cand entity.Candidate, info entity.ImageInfo, result *entity.FindResult, cause error) (*entity.FindResult, error) {
	log.Printf("[PROCESSOR] falling back to original url: %v", cause)
	result.ImageURL = cand.URL
	result.Format = "original"
	result.Dimensions = fmt.Sprintf("%dx%d", info.Width, info.Height)
	return result, nil
}

func resultFor(cand entity.Candidate, judgment *entity.Judgment) *entity.FindResult {
	result := &entity.FindResult{
		OriginalURL:       cand.URL,
		ToolUsed:          cand.Tier.Tool(),
		ImageDescription:  "Selected without vision judgment",
		QualityScore:      5,
		TemporalRelevance: entity.TemporalNotApplicable,
		WatermarkStatus:   entity.WatermarkNone,
	}
	if judgment != nil {
		result.ImageDescription = judgment.Reasoning
		result.QualityScore = judgment.RelevanceScore
		result.TemporalRelevance = judgment.TemporalRelevance
		result.WatermarkStatus = judgment.WatermarkSeverity
	}
	return result
}

func extFor(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
