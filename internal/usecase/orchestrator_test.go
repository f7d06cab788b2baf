package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

const testFallbackURL = "https://assets.example/default.png"

type pipeline struct {
	cacheStore *fakeCacheStore
	fetcher    *fakeFetcher
	encoder    *fakeEncoder
	storage    *fakeImageStore
	judge      *fakeJudge
	extractor  *fakeExtractor
	searcher   *fakeSearcher
	orch       *Orchestrator
}

func newPipeline() *pipeline {
	p := &pipeline{
		cacheStore: newFakeCacheStore(),
		fetcher:    newFakeFetcher(),
		encoder:    &fakeEncoder{info: entity.ImageInfo{Width: 1200, Height: 800, Format: "jpeg"}},
		storage:    &fakeImageStore{putURL: "https://cdn.example/images/out.jpg"},
		judge:      &fakeJudge{},
		extractor:  &fakeExtractor{},
		searcher:   &fakeSearcher{},
	}
	p.orch = NewOrchestrator(
		NewCacheManager(p.cacheStore, p.fetcher),
		NewCollector(p.extractor, p.searcher),
		NewEngine(p.judge),
		NewProcessor(p.fetcher, p.encoder, p.storage),
		testFallbackURL,
	)
	return p
}

func TestFindNoHintsFallsBackToDefault(t *testing.T) {
	p := newPipeline()
	req := entity.FindRequest{Title: "quiet day", Research: "nothing to show"}

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToolUsed != "default" || result.ImageURL != testFallbackURL {
		t.Errorf("expected default fallback, got %+v", result)
	}
	if len(p.judge.calls) != 0 {
		t.Errorf("no candidates were collected, judge ran %d times", len(p.judge.calls))
	}
	if _, ok := p.cacheStore.entries[Key(req)]; !ok {
		t.Error("fallback result should still be cached")
	}
}

func TestFindSingleUserImageChosen(t *testing.T) {
	p := newPipeline()
	// Source page present but never consulted: user images win first.
	p.extractor.images = []entity.PageImage{{URL: "https://site/other.jpg", Width: 1200, Height: 900}}
	p.judge.queue = []judgeResp{
		{judgments: []entity.Judgment{goodJudgment(0)}},
		{judgments: []entity.Judgment{goodJudgment(0)}},
	}
	req := entity.FindRequest{
		Title:     "BTC hits $100k",
		Research:  "bitcoin crossed six figures overnight",
		SourceURL: "https://news.example/post",
		Images:    []string{"https://x/chart.jpg"},
	}

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToolUsed != "candidate" {
		t.Errorf("tool_used = %s, want candidate", result.ToolUsed)
	}
	if result.ImageURL != "https://x/chart.jpg" || result.OriginalURL != "https://x/chart.jpg" {
		t.Errorf("expected the user image delivered as-is, got %+v", result)
	}
	if result.QualityScore != 9 || result.TemporalRelevance != entity.TemporalCurrent {
		t.Errorf("judgment fields lost: %+v", result)
	}
	if p.extractor.calls != 0 {
		t.Error("scrape stage ran despite an accepted user candidate")
	}
	if len(p.searcher.queries) != 0 {
		t.Error("search tiers ran despite an accepted user candidate")
	}
}

func TestFindTierEscalationOrder(t *testing.T) {
	p := newPipeline()
	p.searcher.queue = [][]string{
		{"https://s/1.jpg"},
		{"https://s/2.jpg"},
		{"https://s/3.jpg"},
		{"https://s/4.jpg"},
	}
	failing := goodJudgment(0)
	failing.RelevanceScore = 3
	tier3Pass := goodJudgment(0)
	tier3Pass.RelevanceScore = 6
	tier3Pass.IsRelevantToEvent = false
	p.judge.queue = []judgeResp{
		{judgments: []entity.Judgment{failing}},   // search specific
		{judgments: []entity.Judgment{failing}},   // search broad
		{judgments: []entity.Judgment{failing}},   // logo tier
		{judgments: []entity.Judgment{tier3Pass}}, // generic tier
		{judgments: []entity.Judgment{tier3Pass}}, // verification
	}
	req := entity.FindRequest{Title: "obscure tool release", Research: "niche launch"}

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToolUsed != "perplexity" || result.OriginalURL != "https://s/4.jpg" {
		t.Errorf("expected the generic-tier candidate, got %+v", result)
	}

	if len(p.searcher.queries) != 4 {
		t.Fatalf("expected 4 search attempts, got %d", len(p.searcher.queries))
	}
	wantRecency := []string{"day", "day", "", ""}
	wantMinSize := []int{searchMinDimension, searchMinDimension, logoMinDimension, searchMinDimension}
	for i, q := range p.searcher.queries {
		if q.Recency != wantRecency[i] || q.MinSize != wantMinSize[i] {
			t.Errorf("attempt %d constraints: %+v", i, q)
		}
	}
	if len(p.judge.calls) != 5 {
		t.Errorf("expected 4 batch calls + 1 verification, got %d", len(p.judge.calls))
	}
}

func TestFindCacheRoundTrip(t *testing.T) {
	p := newPipeline()
	p.judge.queue = []judgeResp{
		{judgments: []entity.Judgment{goodJudgment(0)}},
		{judgments: []entity.Judgment{goodJudgment(0)}},
	}
	req := entity.FindRequest{
		Title:    "BTC hits $100k",
		Research: "bitcoin crossed six figures",
		Images:   []string{"https://x/chart.jpg"},
	}

	first, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("first resolution must not report cached")
	}
	judgeCalls := len(p.judge.calls)

	second, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("second identical request must hit the cache")
	}
	if second.ImageURL != first.ImageURL {
		t.Errorf("cached result differs: %s vs %s", second.ImageURL, first.ImageURL)
	}
	if len(p.judge.calls) != judgeCalls {
		t.Error("cache hit must make zero judgment calls")
	}
	if len(p.searcher.queries) != 0 {
		t.Error("cache hit must make zero collection calls")
	}
}

func TestFindStaleCacheRerunsPipeline(t *testing.T) {
	p := newPipeline()
	req := entity.FindRequest{Title: "old story", Research: "dead link"}
	p.cacheStore.entries[Key(req)] = entity.CacheEntry{
		Result:   entity.FindResult{ImageURL: "https://gone/x.jpg", ToolUsed: "site"},
		CachedAt: time.Now().Add(-time.Hour),
	}
	p.fetcher.probeErr["https://gone/x.jpg"] = true

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Cached {
		t.Error("stale entry must not be served")
	}
	if result.ToolUsed != "default" {
		t.Errorf("pipeline should have re-run to fallback, got %+v", result)
	}
	if len(p.searcher.queries) == 0 {
		t.Error("stale hit must re-run collection")
	}

	// The rerun's result overwrote the stale entry.
	if entry := p.cacheStore.entries[Key(req)]; entry.Result.ImageURL != testFallbackURL {
		t.Errorf("stale entry not overwritten: %+v", entry.Result)
	}
}

func TestFindBudgetExceededReturnsDefault(t *testing.T) {
	p := newPipeline()
	p.orch.WithBudget(-time.Millisecond)
	req := entity.FindRequest{
		Title:    "slow day",
		Research: "budget already spent",
		Images:   []string{"https://x/chart.jpg"},
	}

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToolUsed != "default" {
		t.Errorf("expected default after budget exhaustion, got %+v", result)
	}
	if len(p.judge.calls) != 0 {
		t.Error("no stage may start once the budget is gone")
	}
}

func TestFindFallbackUnreachableIsFatal(t *testing.T) {
	p := newPipeline()
	p.fetcher.probeErr[testFallbackURL] = true
	req := entity.FindRequest{Title: "doomed", Research: "nothing anywhere"}

	_, err := p.orch.Find(context.Background(), req)
	if !errors.Is(err, entity.ErrFallbackUnreachable) {
		t.Errorf("expected fallback-unreachable error, got %v", err)
	}
}

func TestFindBlindModeAcceptsFirstCandidate(t *testing.T) {
	p := newPipeline()
	p.judge.queue = []judgeResp{{err: entity.ErrJudgmentUnavailable}}
	req := entity.FindRequest{
		Title:    "vision outage",
		Research: "judge is down",
		Images:   []string{"https://x/a.jpg", "https://x/b.jpg"},
	}

	result, err := p.orch.Find(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.ToolUsed != "candidate" || result.OriginalURL != "https://x/a.jpg" {
		t.Errorf("blind mode should deliver the first user image, got %+v", result)
	}
	if result.ImageDescription != "Selected without vision judgment" {
		t.Errorf("unexpected blind description: %s", result.ImageDescription)
	}
}
