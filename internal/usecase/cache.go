package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
	"github.com/nik-ti/image-finder/internal/domain/repository"
)

// CacheState distinguishes "never cached" from "cached but no longer
// trustworthy" on lookup.
type CacheState int

const (
	CacheAbsent CacheState = iota
	CacheStale
	CacheFresh
)

// CacheManager derives deterministic keys from request content and answers
// whether a validated result already exists. A hit is only fresh once its
// stored URL re-validates; a stale entry is reported as a miss and left in
// place to be overwritten by the next successful resolution.
type CacheManager struct {
	store   repository.ResultCache
	fetcher repository.ImageFetcher
}

func NewCacheManager(store repository.ResultCache, fetcher repository.ImageFetcher) *CacheManager {
	return &CacheManager{store: store, fetcher: fetcher}
}

// Key hashes the normalized request content. Fields are trimmed and joined
// order-preserving, so identical requests always derive the same key.
func Key(req entity.FindRequest) string {
	images := make([]string, len(req.Images))
	for i, u := range req.Images {
		images[i] = strings.TrimSpace(u)
	}
	content := strings.Join([]string{
		strings.TrimSpace(req.Title),
		strings.TrimSpace(req.Research),
		strings.TrimSpace(req.SourceURL),
		strings.Join(images, ","),
	}, "|")
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Lookup is a side-effecting read: it may demote a hit to a miss when the
// stored URL no longer resolves to an image. The single re-validation probe
// is the only network call.
func (m *CacheManager) Lookup(ctx context.Context, req entity.FindRequest) (*entity.FindResult, CacheState) {
	key := Key(req)
	entry, err := m.store.Get(ctx, key)
	if err != nil {
		log.Printf("[CACHE] lookup failed for %.8s: %v", key, err)
		return nil, CacheAbsent
	}
	if entry == nil {
		return nil, CacheAbsent
	}

	probe, err := m.fetcher.Probe(ctx, entry.Result.ImageURL)
	if err != nil || !probe.IsImage {
		log.Printf("[CACHE] stored url no longer valid for %.8s", key)
		return nil, CacheStale
	}

	result := entry.Result
	result.Cached = true
	log.Printf("[CACHE] hit for %.8s", key)
	return &result, CacheFresh
}

// Store upserts the result under the request's derived key. Last write wins;
// a race between identical requests resolving twice is acceptable.
func (m *CacheManager) Store(ctx context.Context, req entity.FindRequest, result entity.FindResult) {
	key := Key(req)
	result.Cached = false
	entry := entity.CacheEntry{Result: result, CachedAt: time.Now()}
	if err := m.store.Set(ctx, key, entry); err != nil {
		log.Printf("[CACHE] store failed for %.8s: %v", key, err)
		return
	}
	log.Printf("[CACHE] stored result for %.8s", key)
}
