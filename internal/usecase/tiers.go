package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nik-ti/image-finder/internal/domain/entity"
	"github.com/nik-ti/image-finder/internal/domain/repository"
)

// Stage is one state of the collection/fallback ladder. Stages advance in
// declaration order; the orchestrator stops at the first accepted decision.
type Stage int

const (
	StageUser Stage = iota
	StageScraped
	StageSearchSpecific // search tier 1, attempt 1
	StageSearchBroad    // search tier 1, attempt 2
	StageSearchLogo     // search tier 2
	StageSearchGeneric  // search tier 3
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageUser:
		return "user"
	case StageScraped:
		return "scraped"
	case StageSearchSpecific:
		return "search-specific"
	case StageSearchBroad:
		return "search-broad"
	case StageSearchLogo:
		return "search-logo"
	case StageSearchGeneric:
		return "search-generic"
	}
	return "unknown"
}

// Tier maps the stage to the candidate source tier.
func (s Stage) Tier() entity.SourceTier {
	switch s {
	case StageUser:
		return entity.TierUser
	case StageScraped:
		return entity.TierScraped
	case StageSearchSpecific, StageSearchBroad:
		return entity.TierSearchStrict
	case StageSearchLogo:
		return entity.TierSearchLogo
	}
	return entity.TierSearchGeneric
}

// Next returns the following stage and whether one exists.
func (s Stage) Next() (Stage, bool) {
	if s+1 >= stageCount {
		return s, false
	}
	return s + 1, true
}

// Policy returns the acceptance policy for the stage. Tier 3 relaxes the
// relevance clauses; search tiers 2 and 3 carry no recency constraint, so
// temporal relevance is not enforced there.
func (s Stage) Policy() StagePolicy {
	switch s {
	case StageSearchLogo:
		return StagePolicy{MinScore: 8, RequireRelevant: true, EnforceTemporal: false}
	case StageSearchGeneric:
		return StagePolicy{MinScore: 5, RequireRelevant: false, EnforceTemporal: false}
	}
	return StagePolicy{MinScore: 8, RequireRelevant: true, EnforceTemporal: true}
}

const (
	scrapedMinDimension = 500
	searchMinDimension  = 1000
	logoMinDimension    = 200
)

// excludeKeywords flag likely logos, icons and chrome in scraped markup.
var excludeKeywords = []string{"logo", "icon", "favicon", "avatar", "badge", "button"}

// Collector enumerates image candidates for one stage at a time. Each stage
// is a discrete batch; stages are never mixed so the orchestrator can stop
// early and skip external calls.
type Collector struct {
	extractor repository.PageExtractor
	searcher  repository.ImageSearcher
}

func NewCollector(extractor repository.PageExtractor, searcher repository.ImageSearcher) *Collector {
	return &Collector{extractor: extractor, searcher: searcher}
}

// Collect returns the candidate batch for the stage, in priority order.
// Scrape and search failures yield an empty batch, not an error: a tier that
// produces nothing just advances the ladder.
func (c *Collector) Collect(ctx context.Context, stage Stage, req entity.FindRequest) []entity.Candidate {
	switch stage {
	case StageUser:
		return c.userCandidates(req)
	case StageScraped:
		return c.scrapedCandidates(ctx, req)
	default:
		return c.searchCandidates(ctx, stage, req)
	}
}

func (c *Collector) userCandidates(req entity.FindRequest) []entity.Candidate {
	cands := make([]entity.Candidate, 0, len(req.Images))
	for _, u := range req.Images {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		cands = append(cands, entity.Candidate{URL: u, Tier: entity.TierUser})
	}
	return dedupe(cands)
}

func (c *Collector) scrapedCandidates(ctx context.Context, req entity.FindRequest) []entity.Candidate {
	if req.SourceURL == "" {
		return nil
	}
	images, err := c.extractor.ExtractImages(ctx, req.SourceURL)
	if err != nil {
		log.Printf("[COLLECTOR] scrape failed for %s: %v", req.SourceURL, err)
		return nil
	}
	var cands []entity.Candidate
	for _, img := range images {
		if isLikelyLogoOrIcon(img) {
			continue
		}
		// Markup dimensions, when present, must both clear the floor.
		// Unknown dimensions pass through and get validated downstream.
		if img.Width > 0 && img.Height > 0 {
			if img.Width <= scrapedMinDimension || img.Height <= scrapedMinDimension {
				continue
			}
		}
		cands = append(cands, entity.Candidate{
			URL:    img.URL,
			Tier:   entity.TierScraped,
			Width:  img.Width,
			Height: img.Height,
			Alt:    img.Alt,
			Class:  img.Class,
		})
	}
	return dedupe(cands)
}

func (c *Collector) searchCandidates(ctx context.Context, stage Stage, req entity.FindRequest) []entity.Candidate {
	query := queryFor(stage, req.Title, req.Research)
	urls, err := c.searcher.SearchImages(ctx, query)
	if err != nil {
		log.Printf("[COLLECTOR] search failed at stage %s: %v", stage, err)
		return nil
	}
	cands := make([]entity.Candidate, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		cands = append(cands, entity.Candidate{URL: u, Tier: stage.Tier()})
	}
	return dedupe(cands)
}

// queryFor builds the per-stage search query. The strict tier runs a specific
// attempt and then a broader rephrasing; tier 2 hunts official brand assets
// with a relaxed size floor; tier 3 falls back to topic-relevant abstract
// imagery with no recency constraint.
func queryFor(stage Stage, title, research string) entity.SearchQuery {
	switch stage {
	case StageSearchSpecific:
		return entity.SearchQuery{
			Text: fmt.Sprintf(
				"Find official press photos, news coverage images, or high-quality screenshots for: %s. "+
					"Context: %s. "+
					"Focus on verified project logos, technical charts with clear labels, or relevant event photos. "+
					"Strictly avoid generic office stock photos and unrelated analytic dashboards.",
				title, research),
			Recency: "day",
			MinSize: searchMinDimension,
		}
	case StageSearchBroad:
		return entity.SearchQuery{
			Text: fmt.Sprintf(
				"Search for verified visual content or news graphics related to: %s. "+
					"Background: %s. "+
					"Prioritize: infographics with specific entity names, data visualizations showing %s, or official project assets. "+
					"Exclude: generic marketing dashboards, unrelated software UI, and stock images of people.",
				title, research, title),
			Recency: "day",
			MinSize: searchMinDimension,
		}
	case StageSearchLogo:
		return entity.SearchQuery{
			Text: fmt.Sprintf(
				"Find the official logo, brand imagery, or product artwork for: %s. "+
					"Context: %s. "+
					"Prefer official press-kit assets and high-resolution brand marks on clean backgrounds.",
				title, research),
			MinSize: logoMinDimension,
		}
	default: // StageSearchGeneric
		return entity.SearchQuery{
			Text: fmt.Sprintf(
				"Find a high-resolution wallpaper, abstract background, or professional concept art for the topic of: %s. "+
					"Focus on modern, clean designs suitable for a news article header. "+
					"Must be HD or 4K. Avoid text and small icons.",
				title),
			MinSize: searchMinDimension,
		}
	}
}

func isLikelyLogoOrIcon(img entity.PageImage) bool {
	haystacks := []string{
		strings.ToLower(img.Alt),
		strings.ToLower(img.Class),
		strings.ToLower(img.URL),
	}
	for _, h := range haystacks {
		for _, kw := range excludeKeywords {
			if strings.Contains(h, kw) {
				return true
			}
		}
	}
	return false
}

// dedupe removes repeated URLs while preserving order.
func dedupe(cands []entity.Candidate) []entity.Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}
