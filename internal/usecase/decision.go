package usecase

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/nik-ti/image-finder/internal/domain/entity"
	"github.com/nik-ti/image-finder/internal/domain/repository"
)

// StagePolicy is the acceptance policy for one stage. The hard rejects
// (heavy watermark, intrusive ads, outdated info) apply regardless of policy.
type StagePolicy struct {
	MinScore        int
	RequireRelevant bool
	EnforceTemporal bool
}

// Accepts is the pure acceptance predicate over one judgment.
func (p StagePolicy) Accepts(j entity.Judgment, timeSensitive bool) bool {
	if j.WatermarkSeverity == entity.WatermarkHeavy {
		return false
	}
	if j.AdPresence == entity.AdsIntrusive {
		return false
	}
	if j.ContainsOutdatedInfo {
		return false
	}
	if j.RelevanceScore < p.MinScore {
		return false
	}
	if p.RequireRelevant && !j.IsRelevantToEvent {
		return false
	}
	if p.EnforceTemporal && timeSensitive && j.TemporalRelevance != entity.TemporalCurrent {
		return false
	}
	return true
}

// EvalContext carries everything one evaluation needs so that behavior stays
// deterministic per call; blind-mode degradation is decided here, not by a
// global toggle.
type EvalContext struct {
	Brief         entity.Brief
	Policy        StagePolicy
	TimeSensitive bool
}

// Vision API input constraints.
const maxJudgeBatch = 10

var supportedImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// Engine turns per-candidate vision judgments into a single accept/reject
// outcome for one batch.
type Engine struct {
	judge repository.VisionJudge
}

func NewEngine(judge repository.VisionJudge) *Engine {
	return &Engine{judge: judge}
}

// Evaluate judges one stage's candidate batch and picks the best passer.
// One batched judge call covers the whole batch; a second single-candidate
// verification call re-checks the provisional winner for judgment noise.
// If the judge is unreachable the engine degrades to blind mode: the first
// candidate of the batch is accepted outright.
func (e *Engine) Evaluate(ctx context.Context, cands []entity.Candidate, ec EvalContext) entity.Decision {
	batch := filterSupported(cands)
	if len(batch) == 0 {
		return entity.Decision{}
	}
	if len(batch) > maxJudgeBatch {
		batch = batch[:maxJudgeBatch]
	}

	urls := make([]string, len(batch))
	for i, c := range batch {
		urls[i] = c.URL
	}

	judgments, err := e.judge.Judge(ctx, urls, ec.Brief)
	if err != nil {
		log.Printf("[ENGINE] judge unavailable, degrading to blind mode: %v", err)
		return entity.Decision{Accepted: true, Candidate: &batch[0], Blind: true}
	}

	passers := rankPassers(batch, judgments, ec)
	for i := range passers {
		winner := passers[i]
		if i == 0 && !e.verify(ctx, winner, ec) {
			log.Printf("[ENGINE] verification demoted provisional winner %.50s", winner.candidate.URL)
			continue
		}
		return entity.Decision{
			Accepted:  true,
			Candidate: &winner.candidate,
			Judgment:  &winner.judgment,
		}
	}
	return entity.Decision{}
}

type scored struct {
	candidate entity.Candidate
	judgment  entity.Judgment
}

// rankPassers pairs judgments back to candidates by index, drops non-passers
// and sorts by relevance score, then content quality, keeping batch order on
// remaining ties.
func rankPassers(batch []entity.Candidate, judgments []entity.Judgment, ec EvalContext) []scored {
	var passers []scored
	for _, j := range judgments {
		if j.Index < 0 || j.Index >= len(batch) {
			continue
		}
		if !ec.Policy.Accepts(j, ec.TimeSensitive) {
			continue
		}
		passers = append(passers, scored{candidate: batch[j.Index], judgment: j})
	}
	sort.SliceStable(passers, func(a, b int) bool {
		if passers[a].judgment.RelevanceScore != passers[b].judgment.RelevanceScore {
			return passers[a].judgment.RelevanceScore > passers[b].judgment.RelevanceScore
		}
		return passers[a].judgment.QualityRank() > passers[b].judgment.QualityRank()
	})
	return passers
}

// verify re-judges the provisional winner alone. A hard reject on the second
// look demotes it; a verification transport error keeps the provisional pick
// rather than spending another tier.
func (e *Engine) verify(ctx context.Context, s scored, ec EvalContext) bool {
	judgments, err := e.judge.Judge(ctx, []string{s.candidate.URL}, ec.Brief)
	if err != nil || len(judgments) == 0 {
		return true
	}
	return ec.Policy.Accepts(judgments[0], ec.TimeSensitive)
}

func filterSupported(cands []entity.Candidate) []entity.Candidate {
	out := make([]entity.Candidate, 0, len(cands))
	for _, c := range cands {
		lower := strings.ToLower(c.URL)
		for _, ext := range supportedImageExts {
			if strings.HasSuffix(lower, ext) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// timeSensitiveKeywords flag titles that hinge on a dated or numeric event,
// where only current imagery is acceptable.
var timeSensitiveKeywords = []string{
	"price", "hits", "surge", "drops", "crash", "record", "all-time",
	"today", "launch", "release", "announce", "breaking", "update",
}

// SensitivityFunc classifies whether a request is time-sensitive. It is
// pluggable because the heuristic is deliberately rough: numeric/price/date
// cues in the title and research.
type SensitivityFunc func(title, research string) bool

// DefaultSensitivity reports time sensitivity when the text carries digits,
// currency or percent marks, or event keywords.
func DefaultSensitivity(title, research string) bool {
	text := strings.ToLower(title + " " + research)
	if strings.ContainsAny(text, "0123456789$%") {
		return true
	}
	for _, kw := range timeSensitiveKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
