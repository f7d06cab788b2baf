package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// GeminiJudge scores image candidates with a Gemini vision model.
type GeminiJudge struct {
	client *genai.Client
	model  string
}

func NewGeminiJudge(ctx context.Context, projectID, location, model string) (*GeminiJudge, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiJudge{client: client, model: model}, nil
}

func NewGeminiJudgeFromClient(c *genai.Client, model string) *GeminiJudge {
	return &GeminiJudge{client: c, model: model}
}

// Judge submits the batch in one call and parses the model's JSON array.
// Judgments carry the input index they refer to; entries the model skipped
// are absent. Transport and quota failures surface as
// entity.ErrJudgmentUnavailable so callers can degrade to blind mode.
func (g *GeminiJudge) Judge(ctx context.Context, urls []string, brief entity.Brief) ([]entity.Judgment, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	prompt := buildJudgePrompt(brief, time.Now().Format("2006-01-02"))
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, u := range urls {
		parts = append(parts, genai.NewPartFromURI(u, mimeForURL(u)))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrJudgmentUnavailable, err)
	}

	judgments, err := parseJudgments(resp.Text(), len(urls))
	if err != nil {
		// Garbage output is not an availability problem: report an empty
		// batch so the tier advances instead of going blind.
		log.Printf("[VISION] unparseable response: %v", err)
		return []entity.Judgment{}, nil
	}
	return judgments, nil
}

func buildJudgePrompt(brief entity.Brief, currentDate string) string {
	return fmt.Sprintf(`Analyze these images for news article: "%s"
Context: %s
Current date: %s

For each image (in order), evaluate:
1. TEMPORAL RELEVANCE: Does it show current/recent data? Check dates, timestamps, chart timeframes.
   - For price/chart news: data must be from today or very recent
   - For event news: must show the actual event, not old stock photos
2. RELEVANCE: Directly related to the news? Score 1-10.
3. WATERMARKS: none/minimal/heavy (reject if heavy)
4. ADS: none/minimal/intrusive (reject if intrusive)
5. QUALITY: high/medium/low
6. OUTDATED INFO: Does it contain old/irrelevant information?

Return a JSON array with one evaluation per image, in the same order as provided.
Each evaluation should have this structure:
{
  "image_index": 0,
  "relevance_score": 8,
  "temporal_relevance": "current" or "outdated" or "not_applicable",
  "watermark_severity": "none" or "minimal" or "heavy",
  "ad_presence": "none" or "minimal" or "intrusive",
  "content_quality": "high" or "medium" or "low",
  "is_relevant_to_event": true or false,
  "contains_outdated_info": true or false,
  "reasoning": "brief explanation"
}

Return ONLY the JSON array, no other text.`, brief.Title, brief.Research, currentDate)
}

// parseJudgments unwraps optional markdown fences and decodes the array,
// discarding entries whose index falls outside the submitted batch.
func parseJudgments(text string, batchSize int) ([]entity.Judgment, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 {
			text = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var judgments []entity.Judgment
	if err := json.Unmarshal([]byte(text), &judgments); err != nil {
		return nil, err
	}

	out := judgments[:0]
	for _, j := range judgments {
		if j.Index < 0 || j.Index >= batchSize {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func mimeForURL(raw string) string {
	p := raw
	if parsed, err := url.Parse(raw); err == nil {
		p = parsed.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
