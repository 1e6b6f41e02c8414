package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/patient-search-assistant/internal/extraction"
	"github.com/wolfman30/patient-search-assistant/internal/observability/metrics"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	timedOutMessage      = "Request timed out"
	defaultSearchTimeout = 15 * time.Second
)

// execute runs one LLM-proposed call and always returns a result the
// narration turn can consume.
func (a *Assistant) execute(ctx context.Context, c call) patients.SearchResult {
	if c.name != SearchFunctionName {
		a.logger.Warn("llm requested unknown function", "function", c.name)
		return patients.Failure("Unknown function: " + c.name)
	}
	filter, err := extraction.ParseFilterArguments(c.arguments, a.opts.DateOrder)
	if err != nil {
		a.logger.Warn("llm sent invalid function arguments", "function", c.name, "error", err)
		return patients.Failure(err.Error())
	}
	a.logger.Info("llm requested patient search", "function", c.name, "filter_fields", len(filter))
	a.logger.Debug("llm search filter", "filter", filter.WireParams())
	return a.searcher.Search(ctx, filter)
}

// Search runs filter through the assistant's watchdog searcher.
func (a *Assistant) Search(ctx context.Context, filter patients.SearchFilter) patients.SearchResult {
	return a.searcher.Search(ctx, filter)
}

// Searcher runs record store searches under a per-call watchdog and
// enriches the records. It is safe for concurrent use.
type Searcher struct {
	store      RecordStore
	timeout    time.Duration
	normalizer *patients.Normalizer
	logger     *logging.Logger
	metrics    *metrics.QueryMetrics
}

// NewSearcher builds a Searcher. A non-positive timeout means 15s.
func NewSearcher(store RecordStore, timeout time.Duration, normalizer *patients.Normalizer, logger *logging.Logger, m *metrics.QueryMetrics) *Searcher {
	if store == nil {
		panic("assistant: record store cannot be nil")
	}
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	if normalizer == nil {
		normalizer = patients.NewNormalizer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Searcher{store: store, timeout: timeout, normalizer: normalizer, logger: logger, metrics: m}
}

// Search runs filter against the record store under the watchdog and
// enriches the records. Timeouts and backend errors become failure results.
func (s *Searcher) Search(ctx context.Context, filter patients.SearchFilter) patients.SearchResult {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "assistant.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("assistant.filter_fields", len(filter))),
	)
	defer span.End()

	start := time.Now()
	res, status := s.searchWithWatchdog(ctx, filter)
	s.metrics.ObserveBackend(status, time.Since(start).Seconds())

	span.SetAttributes(
		attribute.String("assistant.backend_status", status),
		attribute.Int("assistant.record_count", res.Count()),
	)
	if !res.Success {
		span.SetStatus(codes.Error, res.Message)
	}
	return s.normalizer.EnrichResult(res)
}

type searchOutcome struct {
	result patients.SearchResult
	err    error
}

// searchWithWatchdog bounds one backend call. The timer is per call, so a
// slow search never holds up other queries.
func (s *Searcher) searchWithWatchdog(ctx context.Context, filter patients.SearchFilter) (patients.SearchResult, string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan searchOutcome, 1)
	go func() {
		res, err := s.store.Search(ctx, filter)
		done <- searchOutcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				s.logger.Warn("record store search timed out", "timeout", s.timeout)
				return patients.Failure(timedOutMessage), "timeout"
			}
			s.logger.Error("record store search failed", "error", out.err)
			return patients.Failure(out.err.Error()), "error"
		}
		if out.result.Records == nil {
			out.result.Records = []patients.Record{}
		}
		return out.result, "ok"
	case <-ctx.Done():
		s.logger.Warn("record store search timed out", "timeout", s.timeout)
		return patients.Failure(timedOutMessage), "timeout"
	}
}

func resultPayload(res patients.SearchResult) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("assistant: encode function result: %w", err)
	}
	return string(data), nil
}

func syntheticCallID() string {
	return "call_" + uuid.NewString()
}
