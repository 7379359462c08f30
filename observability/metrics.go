// Package observability exposes Prometheus metrics for the answer pipeline.
package observability

import (
	"context"
	"time"

	"legid-backend/llm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	llmCalls      *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	gate          *prometheus.CounterVec
	bannedHits    prometheus.Counter
	scoreTotal    prometheus.Histogram
	escalations   *prometheus.CounterVec
	requests      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "legid_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		llmCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legid_llm_calls_total",
			Help: "LLM calls by stage and outcome",
		}, []string{"stage", "outcome"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legid_structured_output_fallbacks_total",
			Help: "Stages that substituted a default after unparseable model output",
		}, []string{"stage"}),
		gate: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legid_quality_gate_total",
			Help: "Quality gate outcomes by attempt",
		}, []string{"attempt", "result"}),
		bannedHits: f.NewCounter(prometheus.CounterOpts{
			Name: "legid_banned_pattern_hits_total",
			Help: "Banned pattern hits found in drafts",
		}),
		scoreTotal: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "legid_score_total",
			Help:    "Scoring harness total per final answer",
			Buckets: []float64{10, 20, 30, 35, 40, 45, 50},
		}),
		escalations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legid_escalations_total",
			Help: "Rewrite and shadow escalations by mode and final gate result",
		}, []string{"mode", "result"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "legid_requests_total",
			Help: "Pipeline runs by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// Fallback counts a typed-default substitution
func (m *Metrics) Fallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

// Gate records a verification outcome. attempt is "initial" or "escalated".
func (m *Metrics) Gate(attempt string, passed bool, bannedHits int) {
	if m == nil {
		return
	}
	m.gate.WithLabelValues(attempt, result(passed)).Inc()
	m.bannedHits.Add(float64(bannedHits))
}

// Score records the final score total
func (m *Metrics) Score(total int) {
	if m == nil {
		return
	}
	m.scoreTotal.Observe(float64(total))
}

// Escalation records a rewrite or shadow round
func (m *Metrics) Escalation(mode string, passed bool) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(mode, result(passed)).Inc()
}

// Request records the outcome of a whole run: "ok", "degraded" or "error"
func (m *Metrics) Request(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// LLMMiddleware counts completions per stage
func (m *Metrics) LLMMiddleware() llm.Middleware {
	return func(next llm.Completer) llm.Completer {
		if m == nil {
			return next
		}
		return llm.CompleterFunc(func(ctx context.Context, req llm.CompletionRequest) (string, error) {
			out, err := next.Complete(ctx, req)
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.llmCalls.WithLabelValues(llm.StageFrom(ctx), outcome).Inc()
			return out, err
		})
	}
}

func result(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
