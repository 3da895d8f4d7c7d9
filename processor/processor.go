// Package processor consumes queued analysis requests, runs the language
// model over the recipe and persists the result for the polling endpoint.
package processor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"recipe-api/domain"
	"recipe-api/storage"
)

// Store is the queue and table surface the processor drives.
type Store interface {
	DequeueAnalysis(ctx context.Context) (*storage.QueuedAnalysis, error)
	DeleteAnalysisMessage(ctx context.Context, q *storage.QueuedAnalysis) error
	PutAnalysis(ctx context.Context, analysis domain.RecipeAnalysis) error
}

// RecipeSource loads the recipe under analysis.
type RecipeSource interface {
	Information(ctx context.Context, id int, includeNutrition bool) (domain.Recipe, error)
}

// Analyzer produces a RecipeAnalysis for a recipe.
type Analyzer interface {
	AnalyzeRecipe(ctx context.Context, recipe domain.Recipe) (domain.RecipeAnalysis, error)
}

// Processor polls the analysis queue and handles one message at a time.
// Recipe analysis is slow (an LLM round trip) and rare, so there is no
// worker fan-out here.
type Processor struct {
	store    Store
	recipes  RecipeSource
	analyzer Analyzer
	interval time.Duration
	timeout  time.Duration
	log      *log.Logger
}

func New(store Store, recipes RecipeSource, analyzer Analyzer, interval time.Duration, logger *log.Logger) *Processor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Processor{
		store:    store,
		recipes:  recipes,
		analyzer: analyzer,
		interval: interval,
		timeout:  2 * time.Minute,
		log:      logger,
	}
}

// Run polls until ctx is cancelled. An empty queue backs off for the poll
// interval; a drained message is followed immediately by another dequeue.
func (p *Processor) Run(ctx context.Context) {
	p.log.Infof("analysis processor started, poll interval: %v", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		processed, err := p.Poll(ctx)
		if err != nil {
			p.log.Errorf("analysis dequeue failed, err: %v", err)
		}
		if processed {
			continue
		}
		select {
		case <-ctx.Done():
			p.log.Info("analysis processor stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll dequeues and processes at most one message. It reports whether a
// message was handled.
func (p *Processor) Poll(ctx context.Context) (bool, error) {
	q, err := p.store.DequeueAnalysis(ctx)
	if err != nil || q == nil {
		return false, err
	}
	p.handle(ctx, q)
	return true, nil
}

func (p *Processor) handle(ctx context.Context, q *storage.QueuedAnalysis) {
	req := q.Request
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	analysis, err := p.analyze(ctx, req)
	if err != nil {
		p.log.Errorf("recipe analysis failed, err: %v, recipe: %d, request: %s", err, req.RecipeID, req.RequestID)
		analysis = domain.RecipeAnalysis{
			RecipeID:    req.RecipeID,
			RequestID:   req.RequestID,
			Status:      domain.AnalysisFailed,
			GeneratedAt: time.Now().Unix(),
		}
	}
	if err := p.store.PutAnalysis(ctx, analysis); err != nil {
		// Leave the message in the queue; visibility timeout will
		// redeliver it for another attempt.
		p.log.Errorf("analysis store failed, err: %v, recipe: %d", err, req.RecipeID)
		return
	}
	if err := p.store.DeleteAnalysisMessage(ctx, q); err != nil {
		p.log.Errorf("analysis message delete failed, err: %v, recipe: %d", err, req.RecipeID)
	}
}

func (p *Processor) analyze(ctx context.Context, req domain.AnalysisRequest) (domain.RecipeAnalysis, error) {
	recipe, err := p.recipes.Information(ctx, req.RecipeID, true)
	if err != nil {
		return domain.RecipeAnalysis{}, err
	}
	analysis, err := p.analyzer.AnalyzeRecipe(ctx, recipe)
	if err != nil {
		return domain.RecipeAnalysis{}, err
	}
	analysis.RecipeID = req.RecipeID
	analysis.RequestID = req.RequestID
	return analysis, nil
}
