package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// PageScraper fetches a source page and extracts its image references with
// whatever dimension and labeling attributes the markup carries. Filtering
// policy lives in the collector; the scraper only reports what it sees.
type PageScraper struct {
	client *http.Client
}

func NewPageScraper() *PageScraper {
	return &PageScraper{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *PageScraper) ExtractImages(ctx context.Context, pageURL string) ([]entity.PageImage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; image-finder/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page fetch failed: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("page parse failed: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var images []entity.PageImage
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" {
			return
		}
		images = append(images, entity.PageImage{
			URL:    absoluteURL(base, src),
			Width:  attrInt(sel, "width"),
			Height: attrInt(sel, "height"),
			Alt:    sel.AttrOr("alt", ""),
			Class:  sel.AttrOr("class", ""),
		})
	})
	return images, nil
}

// absoluteURL resolves relative image paths against the page URL.
func absoluteURL(base *url.URL, src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

func attrInt(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
