package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

const defaultPerplexityBaseURL = "https://api.perplexity.ai"

// PerplexitySearcher finds candidate image URLs through the Perplexity
// chat-completions API with return_images enabled.
type PerplexitySearcher struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewPerplexitySearcher(apiKey, baseURL, model string) *PerplexitySearcher {
	if baseURL == "" {
		baseURL = defaultPerplexityBaseURL
	}
	if model == "" {
		model = "sonar"
	}
	return &PerplexitySearcher{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchImages runs one search attempt. The size floor has no API-level
// filter, so it rides along as a query constraint.
func (p *PerplexitySearcher) SearchImages(ctx context.Context, q entity.SearchQuery) ([]string, error) {
	query := q.Text
	if q.MinSize > 0 {
		query = fmt.Sprintf("%s Only include images wider and taller than %d pixels.", query, q.MinSize)
	}

	requestBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": query},
		},
		"return_images": true,
		"max_tokens":    1000,
	}
	if q.Recency != "" {
		requestBody["search_recency_filter"] = q.Recency
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("perplexity api error: %d - %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return extractImageURLs(body)
}

// extractImageURLs handles both response shapes: a top-level images array and
// images nested inside the first choice's message. Entries may be bare URL
// strings or objects carrying url/src/image_url.
func extractImageURLs(body []byte) ([]string, error) {
	var apiResponse struct {
		Images  []json.RawMessage `json:"images"`
		Choices []struct {
			Message struct {
				Images []json.RawMessage `json:"images"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	raw := apiResponse.Images
	if len(raw) == 0 && len(apiResponse.Choices) > 0 {
		raw = apiResponse.Choices[0].Message.Images
	}

	var urls []string
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			urls = append(urls, s)
			continue
		}
		var obj struct {
			URL      string `json:"url"`
			Src      string `json:"src"`
			ImageURL string `json:"image_url"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		switch {
		case obj.URL != "":
			urls = append(urls, obj.URL)
		case obj.Src != "":
			urls = append(urls, obj.Src)
		case obj.ImageURL != "":
			urls = append(urls, obj.ImageURL)
		}
	}
	return urls, nil
}
