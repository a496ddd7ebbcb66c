package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "sourcechain_validation_package_build_seconds",
	Help:    "Time spent building validation packages",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
}, []string{"strategy"})
