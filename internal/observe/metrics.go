// Package observe provides application-wide observability primitives for
// Spellrush: OpenTelemetry metrics, tracing, structured logging helpers, and
// HTTP middleware for the operational listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Spellrush metrics.
const meterName = "github.com/spellrush/spellrush"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// UtteranceDuration tracks end-to-end handling latency of one chat turn.
	UtteranceDuration metric.Float64Histogram

	// ProviderDuration tracks word, dictionary, sentence, and store call
	// latency. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderDuration metric.Float64Histogram

	// --- Counters ---

	// Utterances counts handled chat turns. Use with attribute:
	//   attribute.String("intent", ...)
	Utterances metric.Int64Counter

	// Rounds counts words presented to players. Use with attribute:
	//   attribute.String("mode", ...)
	Rounds metric.Int64Counter

	// Answers counts judged answers. Use with attribute:
	//   attribute.String("outcome", "correct"|"wrong")
	Answers metric.Int64Counter

	// ChallengesCreated counts reserved challenge tokens.
	ChallengesCreated metric.Int64Counter

	// ChallengesJoined counts successful guest joins.
	ChallengesJoined metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveConversations tracks conversations with a game in progress.
	ActiveConversations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// chat-turn latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.UtteranceDuration, err = m.Float64Histogram("spellrush.utterance.duration",
		metric.WithDescription("End-to-end handling latency of one chat turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ProviderDuration, err = m.Float64Histogram("spellrush.provider.duration",
		metric.WithDescription("Latency of word, dictionary, sentence, and store calls by provider and kind."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Utterances, err = m.Int64Counter("spellrush.utterances",
		metric.WithDescription("Total handled chat turns by recognized intent."),
	); err != nil {
		return nil, err
	}
	if met.Rounds, err = m.Int64Counter("spellrush.rounds",
		metric.WithDescription("Total words presented by game mode."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter("spellrush.answers",
		metric.WithDescription("Total judged answers by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ChallengesCreated, err = m.Int64Counter("spellrush.challenges.created",
		metric.WithDescription("Total challenge tokens reserved."),
	); err != nil {
		return nil, err
	}
	if met.ChallengesJoined, err = m.Int64Counter("spellrush.challenges.joined",
		metric.WithDescription("Total successful challenge joins."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("spellrush.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveConversations, err = m.Int64UpDownCounter("spellrush.active_conversations",
		metric.WithDescription("Number of conversations with a game in progress."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("spellrush.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordUtterance is a convenience method that records a handled chat turn
// with its recognized intent.
func (m *Metrics) RecordUtterance(ctx context.Context, intent string) {
	m.Utterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("intent", intent)),
	)
}

// RecordRound is a convenience method that records a presented word with its
// game mode.
func (m *Metrics) RecordRound(ctx context.Context, mode string) {
	m.Rounds.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordAnswer is a convenience method that records a judged answer.
func (m *Metrics) RecordAnswer(ctx context.Context, correct bool) {
	outcome := "wrong"
	if correct {
		outcome = "correct"
	}
	m.Answers.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
