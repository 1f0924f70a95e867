package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the extraction pipeline.
//
// Metrics:
//   - jipange_extractions_total{source,outcome} - extractions by input source and model outcome
//   - jipange_extraction_duration_seconds{source} - end-to-end processing time
//   - jipange_validation_issues_total{severity} - validation issues raised
//   - jipange_extraction_confidence - final confidence of extracted tasks
//   - jipange_transcriptions_total{outcome} - speech transcription attempts
type Metrics struct {
	ExtractionsTotal    *prometheus.CounterVec
	ExtractionDuration  *prometheus.HistogramVec
	ValidationIssues    *prometheus.CounterVec
	Confidence          prometheus.Histogram
	TranscriptionsTotal *prometheus.CounterVec
}

// NewMetrics creates pipeline metrics registered with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jipange_extractions_total",
				Help: "Total number of task extractions",
			},
			[]string{"source", "outcome"}, // text|voice, llm|fallback
		),
		ExtractionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jipange_extraction_duration_seconds",
				Help:    "Duration of task extraction in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"source"},
		),
		ValidationIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jipange_validation_issues_total",
				Help: "Total number of validation issues raised",
			},
			[]string{"severity"},
		),
		Confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jipange_extraction_confidence",
				Help:    "Final confidence score of extracted tasks",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		TranscriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jipange_transcriptions_total",
				Help: "Total number of speech transcriptions",
			},
			[]string{"outcome"}, // success|error
		),
	}
}

// RecordExtraction records a finished extraction.
func (m *Metrics) RecordExtraction(source, outcome string, seconds, confidence float64) {
	m.ExtractionsTotal.WithLabelValues(source, outcome).Inc()
	m.ExtractionDuration.WithLabelValues(source).Observe(seconds)
	m.Confidence.Observe(confidence)
}

// RecordIssue records a validation issue.
func (m *Metrics) RecordIssue(severity string) {
	m.ValidationIssues.WithLabelValues(severity).Inc()
}

// RecordTranscription records a transcription attempt.
func (m *Metrics) RecordTranscription(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.TranscriptionsTotal.WithLabelValues(outcome).Inc()
}
