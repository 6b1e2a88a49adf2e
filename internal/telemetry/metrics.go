package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizconv"

var (
	// RecordsDecoded counts topic and question records appended by the decoders.
	RecordsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_decoded_total",
		Help:      "Number of records decoded from quiz files.",
	}, []string{"kind"})

	DecodeWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_warnings_total",
		Help:      "Number of non-fatal conditions met while decoding.",
	}, []string{"reason"})

	Conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversions_total",
		Help:      "Number of finished conversions.",
	}, []string{"format", "cache"})

	ConversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "conversion_duration_seconds",
		Help:      "Time spent decoding and rendering one pair of quiz files.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

const (
	KindTopic    = "topic"
	KindQuestion = "question"

	ReasonUnknownVersion = "unknown_version"
	ReasonTerminator     = "terminator"
	ReasonTruncated      = "truncated"
)
