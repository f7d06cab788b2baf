package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

type fakeCacheStore struct {
	entries map[string]entity.CacheEntry
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[string]entity.CacheEntry)}
}

func (f *fakeCacheStore) Get(_ context.Context, key string) (*entity.CacheEntry, error) {
	if e, ok := f.entries[key]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeCacheStore) Set(_ context.Context, key string, entry entity.CacheEntry) error {
	f.entries[key] = entry
	return nil
}

type fakeFetcher struct {
	probeErr      map[string]bool
	nonImage      map[string]bool
	data          map[string][]byte
	failDownloads map[string]int
	probeCalls    int
	downloadCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		probeErr:      make(map[string]bool),
		nonImage:      make(map[string]bool),
		data:          make(map[string][]byte),
		failDownloads: make(map[string]int),
	}
}

func (f *fakeFetcher) Probe(_ context.Context, url string) (entity.ImageProbe, error) {
	f.probeCalls++
	if f.probeErr[url] {
		return entity.ImageProbe{}, errors.New("probe failed")
	}
	if f.nonImage[url] {
		return entity.ImageProbe{ContentType: "text/html"}, nil
	}
	return entity.ImageProbe{ContentType: "image/jpeg", IsImage: true}, nil
}

func (f *fakeFetcher) Download(_ context.Context, url string) ([]byte, string, error) {
	f.downloadCalls++
	if n := f.failDownloads[url]; n > 0 {
		f.failDownloads[url] = n - 1
		return nil, "", errors.New("transient download failure")
	}
	if d, ok := f.data[url]; ok {
		return d, "image/jpeg", nil
	}
	return []byte("image-bytes"), "image/jpeg", nil
}

type fakeEncoder struct {
	info      entity.ImageInfo
	encoded   entity.EncodedImage
	encodeErr error
}

func (f *fakeEncoder) Inspect(_ []byte) (entity.ImageInfo, error) {
	if f.info.Width == 0 && f.info.Height == 0 {
		return entity.ImageInfo{}, errors.New("undecodable")
	}
	return f.info, nil
}

func (f *fakeEncoder) Encode(_ []byte) (entity.EncodedImage, error) {
	if f.encodeErr != nil {
		return entity.EncodedImage{}, f.encodeErr
	}
	return f.encoded, nil
}

type fakeImageStore struct {
	putURL  string
	putErr  error
	puts    int
	deleted int
}

func (f *fakeImageStore) Put(_ context.Context, _ []byte, _, _ string) (string, error) {
	f.puts++
	if f.putErr != nil {
		return "", f.putErr
	}
	return f.putURL, nil
}

func (f *fakeImageStore) DeleteOlderThan(_ context.Context, _ time.Duration) (int, error) {
	return f.deleted, nil
}

type judgeResp struct {
	judgments []entity.Judgment
	err       error
}

type fakeJudge struct {
	queue []judgeResp
	calls [][]string
}

func (f *fakeJudge) Judge(_ context.Context, urls []string, _ entity.Brief) ([]entity.Judgment, error) {
	f.calls = append(f.calls, urls)
	if len(f.queue) == 0 {
		return []entity.Judgment{}, nil
	}
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp.judgments, resp.err
}

type fakeExtractor struct {
	images []entity.PageImage
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractImages(_ context.Context, _ string) ([]entity.PageImage, error) {
	f.calls++
	return f.images, f.err
}

type fakeSearcher struct {
	queue   [][]string
	err     error
	queries []entity.SearchQuery
}

func (f *fakeSearcher) SearchImages(_ context.Context, q entity.SearchQuery) ([]string, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.queue) == 0 {
		return nil, nil
	}
	urls := f.queue[0]
	f.queue = f.queue[1:]
	return urls, nil
}

func goodJudgment(idx int) entity.Judgment {
	return entity.Judgment{
		Index:             idx,
		RelevanceScore:    9,
		TemporalRelevance: entity.TemporalCurrent,
		WatermarkSeverity: entity.WatermarkNone,
		AdPresence:        entity.AdsNone,
		ContentQuality:    entity.QualityHigh,
		IsRelevantToEvent: true,
		Reasoning:         "clean, current chart for the event",
	}
}
