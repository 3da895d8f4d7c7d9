package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "recipe-api"

// searchRequestMetrics collects per-request timings for the search route,
// the hottest endpoint of the service. It emits one structured log record
// and one trace span per request.
type searchRequestMetrics struct {
	logger          *log.Logger
	span            trace.Span
	start           time.Time
	fetchDuration   time.Duration
	encodeDuration  time.Duration
	cacheHit        bool
	resultsReturned int
	errorStage      string
}

func newSearchRequestMetrics(ctx context.Context, logger *log.Logger) (*searchRequestMetrics, context.Context) {
	m := &searchRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "recipes.search")
	m.span = span
	return m, spanCtx
}

func (m *searchRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *searchRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *searchRequestMetrics) SetCacheHit(hit bool) {
	m.cacheHit = hit
}

func (m *searchRequestMetrics) SetResultsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.resultsReturned = count
}

func (m *searchRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *searchRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Bool("cache.hit", m.cacheHit),
			attribute.Int("results.returned", m.resultsReturned),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String("error.stage", m.errorStage))
		}
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":            "/api/recipes/search",
		"status":           status,
		"total_ms":         durationToMillis(time.Since(m.start)),
		"cache_hit":        m.cacheHit,
		"results_returned": m.resultsReturned,
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("search.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
