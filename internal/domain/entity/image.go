package entity

import "time"

// SourceTier identifies which collection stage produced a candidate.
type SourceTier string

const (
	TierUser          SourceTier = "user"
	TierScraped       SourceTier = "scraped"
	TierSearchStrict  SourceTier = "search-tier1"
	TierSearchLogo    SourceTier = "search-tier2"
	TierSearchGeneric SourceTier = "search-tier3"
)

// Tool maps the tier to the wire-level tool_used value.
func (t SourceTier) Tool() string {
	switch t {
	case TierUser:
		return "candidate"
	case TierScraped:
		return "site"
	default:
		return "perplexity"
	}
}

// Temporal relevance values as returned by the vision judge.
const (
	TemporalCurrent       = "current"
	TemporalOutdated      = "outdated"
	TemporalNotApplicable = "not_applicable"
)

// Watermark severity values.
const (
	WatermarkNone    = "none"
	WatermarkMinimal = "minimal"
	WatermarkHeavy   = "heavy"
)

// Ad presence values.
const (
	AdsNone      = "none"
	AdsMinimal   = "minimal"
	AdsIntrusive = "intrusive"
)

// Content quality values.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// FindRequest is the inbound contract. Immutable once received.
type FindRequest struct {
	Title     string   `json:"title"`
	Research  string   `json:"research"`
	SourceURL string   `json:"source_url,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Brief is the request context handed to the vision judge.
type Brief struct {
	Title    string
	Research string
}

// Candidate is an image reference under consideration for one request.
// Width/Height/Alt/Class are only populated for scraped candidates where
// the page markup carried them.
type Candidate struct {
	URL    string
	Tier   SourceTier
	Width  int
	Height int
	Alt    string
	Class  string
}

// PageImage is a raw image reference extracted from a source page.
type PageImage struct {
	URL    string
	Width  int
	Height int
	Alt    string
	Class  string
}

// SearchQuery describes one image-search attempt.
type SearchQuery struct {
	Text    string
	Recency string // e.g. "day"; empty means unlimited
	MinSize int    // minimum pixel dimension hint; 0 means unconstrained
}

// Judgment is the vision judge's assessment of a single candidate.
// Index pairs it back to the position of the candidate in the judged batch.
type Judgment struct {
	Index                int    `json:"image_index"`
	RelevanceScore       int    `json:"relevance_score"`
	TemporalRelevance    string `json:"temporal_relevance"`
	WatermarkSeverity    string `json:"watermark_severity"`
	AdPresence           string `json:"ad_presence"`
	ContentQuality       string `json:"content_quality"`
	IsRelevantToEvent    bool   `json:"is_relevant_to_event"`
	ContainsOutdatedInfo bool   `json:"contains_outdated_info"`
	Reasoning            string `json:"reasoning"`
}

// QualityRank orders content quality for tie-breaking (high > medium > low).
func (j Judgment) QualityRank() int {
	switch j.ContentQuality {
	case QualityHigh:
		return 3
	case QualityMedium:
		return 2
	case QualityLow:
		return 1
	}
	return 0
}

// Decision is the outcome of evaluating one batch of candidates.
// Blind marks an acceptance made without vision judgment.
type Decision struct {
	Accepted  bool
	Candidate *Candidate
	Judgment  *Judgment
	Blind     bool
}

// FindResult is the externally visible artifact, one per request.
type FindResult struct {
	ImageURL          string `json:"image_url"`
	OriginalURL       string `json:"original_url"`
	ToolUsed          string `json:"tool_used"`
	ImageDescription  string `json:"image_description"`
	Format            string `json:"format"`
	Dimensions        string `json:"dimensions"`
	QualityScore      int    `json:"quality_score"`
	TemporalRelevance string `json:"temporal_relevance"`
	WatermarkStatus   string `json:"watermark_status"`
	Cached            bool   `json:"cached"`
}

// CacheEntry is the persisted form of a resolved result.
type CacheEntry struct {
	Result   FindResult `json:"result"`
	CachedAt time.Time  `json:"cached_at"`
}

// ImageProbe is the outcome of a lightweight reachability check on a URL.
type ImageProbe struct {
	ContentType   string
	ContentLength int64
	IsImage       bool
}

// ImageInfo describes decoded image header data.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// EncodedImage is the output of a re-encode pass.
type EncodedImage struct {
	Data   []byte
	Format string // "jpeg" or "png"
	Width  int
	Height int
}
