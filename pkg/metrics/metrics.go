// Package metrics exposes form activity as Prometheus metrics through
// form.Hooks.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formstate/pkg/form"
)

const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DefaultFormLabel is the form label value used unless an option changes it.
const DefaultFormLabel = "form"

// Option configures a Collector.
type Option func(*Collector)

// WithFormLabel sets a fixed value for the form label.
func WithFormLabel(label string) Option {
	return func(c *Collector) {
		if label != "" {
			c.formLabel = func(string) string { return label }
		}
	}
}

// WithFormIDLabel labels series with the form id. Only use it when form ids
// are set with form.WithID; generated ids are unique per instance.
func WithFormIDLabel() Option {
	return func(c *Collector) {
		c.formLabel = func(id string) string { return id }
	}
}

// Collector owns the form metrics.
type Collector struct {
	changes            *prometheus.CounterVec
	validations        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	staleResults       *prometheus.CounterVec
	inFlight           *prometheus.GaugeVec
	submissions        *prometheus.CounterVec
	submitDuration     *prometheus.HistogramVec

	formLabel func(formID string) string
}

// New creates the metrics under namespace. They are not registered yet.
// Series are labelled with DefaultFormLabel unless an option says otherwise.
func New(namespace string, opts ...Option) *Collector {
	c := &Collector{
		formLabel: func(string) string { return DefaultFormLabel },
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_changes_total",
			Help:      "Total number of field value changes.",
		}, []string{"form", "field"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Committed validation results by outcome.",
		}, []string{"form", "field", "phase", "outcome"}),
		validationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Duration of validator calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form", "field", "phase"}),
		staleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_validation_results_total",
			Help:      "Validation results discarded because the field changed.",
		}, []string{"form", "field", "phase"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "async_validations_in_flight",
			Help:      "Asynchronous validations currently running.",
		}, []string{"form", "field"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome.",
		}, []string{"form", "outcome"}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Duration of submitter calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.changes,
		c.validations,
		c.validationDuration,
		c.staleResults,
		c.inFlight,
		c.submissions,
		c.submitDuration,
	}
}

// Register adds every metric to reg. Metrics already registered by an
// identical collector are tolerated.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range c.collectors() {
		if err := reg.Register(col); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// Hooks returns form hooks that record into the collector.
func (c *Collector) Hooks() form.Hooks {
	return form.Hooks{
		OnChange: func(e form.ChangeEvent) {
			c.changes.WithLabelValues(c.formLabel(e.FormID), e.Field).Inc()
		},
		OnValidationStart: func(e form.ValidationEvent) {
			if e.Phase == form.PhaseAsync {
				c.inFlight.WithLabelValues(c.formLabel(e.FormID), e.Field).Inc()
			}
		},
		OnValidationResult: func(e form.ValidationEvent) {
			c.finish(e)
			c.validations.WithLabelValues(c.formLabel(e.FormID), e.Field, string(e.Phase), outcome(e)).Inc()
		},
		OnValidationStale: func(e form.ValidationEvent) {
			c.finish(e)
			c.staleResults.WithLabelValues(c.formLabel(e.FormID), e.Field, string(e.Phase)).Inc()
		},
		OnSubmit: func(e form.SubmitEvent) {
			result := OutcomeSuccess
			if e.Err != nil {
				result = OutcomeFailure
			}
			label := c.formLabel(e.FormID)
			c.submissions.WithLabelValues(label, result).Inc()
			c.submitDuration.WithLabelValues(label).Observe(e.Duration.Seconds())
		},
	}
}

func (c *Collector) finish(e form.ValidationEvent) {
	label := c.formLabel(e.FormID)
	if e.Phase == form.PhaseAsync {
		c.inFlight.WithLabelValues(label, e.Field).Dec()
	}
	c.validationDuration.WithLabelValues(label, e.Field, string(e.Phase)).Observe(e.Duration.Seconds())
}

func outcome(e form.ValidationEvent) string {
	switch {
	case e.Err != nil:
		return OutcomeError
	case e.Message != "":
		return OutcomeInvalid
	default:
		return OutcomeValid
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
