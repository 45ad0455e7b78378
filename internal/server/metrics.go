package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unknownLabel = "unknown"

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synchook_requests_total",
			Help: "Total hook requests by hook, operation and result.",
		},
		[]string{"hook", "operation", "result"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synchook_request_duration_seconds",
			Help:    "Duration of hook requests, including decoding and encoding.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"hook", "operation"},
	)
	desiredChildren = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synchook_desired_children",
			Help:    "Number of desired children returned per successful sync.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"hook"},
	)
)
