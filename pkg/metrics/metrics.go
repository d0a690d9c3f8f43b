package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultMatch    = "match"
	ResultMismatch = "mismatch"
	ResultLocked   = "locked"
	ResultError    = "error"

	ResultCommitted = "committed"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

var (
	PinVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pin_verifications_total",
			Help: "PIN verification attempts by outcome",
		},
		[]string{"result"},
	)

	ProfileSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_submissions_total",
			Help: "Profile submissions by outcome",
		},
		[]string{"result"},
	)

	AssetBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assets_written_bytes_total",
			Help: "Bytes written to the asset store",
		},
		[]string{"category"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_submission_duration_seconds",
			Help:    "Duration of profile submissions, parse to commit",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
	)
)
