package client

import (
	"strings"
	"testing"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

func TestParseJudgments(t *testing.T) {
	raw := `[
		{"image_index": 0, "relevance_score": 9, "temporal_relevance": "current",
		 "watermark_severity": "none", "ad_presence": "none", "content_quality": "high",
		 "is_relevant_to_event": true, "contains_outdated_info": false, "reasoning": "fresh chart"},
		{"image_index": 1, "relevance_score": 3, "temporal_relevance": "outdated",
		 "watermark_severity": "heavy", "ad_presence": "none", "content_quality": "low",
		 "is_relevant_to_event": false, "contains_outdated_info": true, "reasoning": "stock photo"}
	]`
	judgments, err := parseJudgments(raw, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(judgments) != 2 {
		t.Fatalf("got %d judgments, want 2", len(judgments))
	}
	if judgments[0].RelevanceScore != 9 || judgments[0].TemporalRelevance != entity.TemporalCurrent {
		t.Errorf("first judgment wrong: %+v", judgments[0])
	}
	if judgments[1].WatermarkSeverity != entity.WatermarkHeavy || !judgments[1].ContainsOutdatedInfo {
		t.Errorf("second judgment wrong: %+v", judgments[1])
	}
}

func TestParseJudgmentsStripsMarkdownFences(t *testing.T) {
	raw := "```json\n[{\"image_index\": 0, \"relevance_score\": 8}]\n```"
	judgments, err := parseJudgments(raw, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(judgments) != 1 || judgments[0].RelevanceScore != 8 {
		t.Errorf("unexpected judgments: %+v", judgments)
	}
}

func TestParseJudgmentsDropsOutOfRangeIndexes(t *testing.T) {
	raw := `[
		{"image_index": 0, "relevance_score": 8},
		{"image_index": 5, "relevance_score": 9},
		{"image_index": -1, "relevance_score": 9}
	]`
	judgments, err := parseJudgments(raw, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(judgments) != 1 || judgments[0].Index != 0 {
		t.Errorf("out-of-range indexes should be dropped: %+v", judgments)
	}
}

func TestParseJudgmentsRejectsGarbage(t *testing.T) {
	if _, err := parseJudgments("I could not evaluate the images.", 1); err == nil {
		t.Error("expected parse error for prose output")
	}
}

func TestMimeForURL(t *testing.T) {
	cases := map[string]string{
		"https://x/a.png":           "image/png",
		"https://x/a.PNG":           "image/png",
		"https://x/a.gif":           "image/gif",
		"https://x/a.webp":          "image/webp",
		"https://x/a.jpg":           "image/jpeg",
		"https://x/a.jpeg?w=200":    "image/jpeg",
		"https://x/a.png?size=full": "image/png",
	}
	for url, want := range cases {
		if got := mimeForURL(url); got != want {
			t.Errorf("mimeForURL(%s) = %s, want %s", url, got, want)
		}
	}
}

func TestBuildJudgePromptCarriesBriefAndDate(t *testing.T) {
	prompt := buildJudgePrompt(entity.Brief{Title: "BTC hits $100k", Research: "overnight rally"}, "2026-08-23")
	for _, want := range []string{"BTC hits $100k", "overnight rally", "2026-08-23", "JSON array"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
