package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nik-ti/image-finder/internal/domain/entity"
)

// Timeouts per external call and for the whole request.
const (
	DefaultTotalBudget = 60 * time.Second
	perStageTimeout    = 30 * time.Second
)

// Orchestrator drives the tier loop: cache check, then per stage
// collect -> judge -> decide -> process, stopping at the first accepted
// candidate, falling back to the default asset when every stage fails or the
// total budget runs out.
type Orchestrator struct {
	cache       *CacheManager
	collector   *Collector
	engine      *Engine
	processor   *Processor
	sensitivity SensitivityFunc
	fallbackURL string
	budget      time.Duration
}

func NewOrchestrator(cache *CacheManager, collector *Collector, engine *Engine, processor *Processor, fallbackURL string) *Orchestrator {
	return &Orchestrator{
		cache:       cache,
		collector:   collector,
		engine:      engine,
		processor:   processor,
		sensitivity: DefaultSensitivity,
		fallbackURL: fallbackURL,
		budget:      DefaultTotalBudget,
	}
}

// WithSensitivity swaps the time-sensitivity classifier.
func (o *Orchestrator) WithSensitivity(fn SensitivityFunc) *Orchestrator {
	o.sensitivity = fn
	return o
}

// WithBudget overrides the total-latency budget.
func (o *Orchestrator) WithBudget(d time.Duration) *Orchestrator {
	o.budget = d
	return o
}

// Find resolves the single best image for the request. Every syntactically
// valid request yields a structurally valid result; the only fatal condition
// is exhausting all tiers with the default asset itself unreachable.
func (o *Orchestrator) Find(ctx context.Context, req entity.FindRequest) (*entity.FindResult, error) {
	log.Printf("[ORCHESTRATOR] processing request: %.60s", req.Title)

	if cached, state := o.cache.Lookup(ctx, req); state == CacheFresh {
		return cached, nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, o.budget)
	defer cancel()

	result := o.resolve(budgetCtx, req)
	if result == nil {
		fallback, err := o.fallback(ctx)
		if err != nil {
			return nil, err
		}
		result = fallback
	}

	// The budget context may already be done; caching must still happen.
	o.cache.Store(ctx, req, *result)
	return result, nil
}

// resolve walks the stage ladder and returns nil when nothing was accepted.
// Once the budget deadline passes no new stage is started; in-flight calls
// are bounded by their own per-call timeouts.
func (o *Orchestrator) resolve(ctx context.Context, req entity.FindRequest) *entity.FindResult {
	brief := entity.Brief{Title: req.Title, Research: req.Research}
	timeSensitive := o.sensitivity(req.Title, req.Research)

	for stage := StageUser; ; {
		if ctx.Err() != nil {
			log.Printf("[ORCHESTRATOR] budget exceeded before stage %s: %v", stage, entity.ErrBudgetExceeded)
			return nil
		}
		if result := o.runStage(ctx, stage, req, brief, timeSensitive); result != nil {
			return result
		}
		next, ok := stage.Next()
		if !ok {
			log.Printf("[ORCHESTRATOR] all stages exhausted for %.60s", req.Title)
			return nil
		}
		stage = next
	}
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, req entity.FindRequest, brief entity.Brief, timeSensitive bool) *entity.FindResult {
	// Skip stages that cannot produce anything without spending a call.
	if stage == StageUser && len(req.Images) == 0 {
		return nil
	}
	if stage == StageScraped && req.SourceURL == "" {
		return nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, perStageTimeout)
	defer cancel()

	cands := o.collector.Collect(stageCtx, stage, req)
	if len(cands) == 0 {
		log.Printf("[ORCHESTRATOR] stage %s produced no candidates", stage)
		return nil
	}
	log.Printf("[ORCHESTRATOR] stage %s collected %d candidates", stage, len(cands))

	decision := o.engine.Evaluate(stageCtx, cands, EvalContext{
		Brief:         brief,
		Policy:        stage.Policy(),
		TimeSensitive: timeSensitive,
	})
	if !decision.Accepted {
		log.Printf("[ORCHESTRATOR] stage %s: %v", stage, entity.ErrNoneAcceptable)
		return nil
	}

	result, err := o.processor.Finalize(stageCtx, *decision.Candidate, decision.Judgment)
	if err != nil {
		// Processing failure retreats to "none acceptable" for this stage.
		log.Printf("[ORCHESTRATOR] stage %s: finalize failed: %v", stage, err)
		return nil
	}
	return result
}

// fallback builds the fixed default result, verifying the asset is still
// reachable. An unreachable default is the one fatal, user-visible failure.
func (o *Orchestrator) fallback(ctx context.Context) (*entity.FindResult, error) {
	probe, err := o.processor.fetcher.Probe(ctx, o.fallbackURL)
	if err != nil || !probe.IsImage {
		return nil, fmt.Errorf("%w: %s", entity.ErrFallbackUnreachable, o.fallbackURL)
	}
	return &entity.FindResult{
		ImageURL:          o.fallbackURL,
		OriginalURL:       o.fallbackURL,
		ToolUsed:          "default",
		ImageDescription:  "Default fallback image - no suitable image found",
		Format:            "png",
		Dimensions:        "1280x720",
		QualityScore:      1,
		TemporalRelevance: entity.TemporalNotApplicable,
		WatermarkStatus:   entity.WatermarkNone,
	}, nil
}
