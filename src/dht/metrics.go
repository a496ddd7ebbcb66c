package dht

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pendingGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "sourcechain_pending_validations",
	Help: "Number of aspects waiting for their dependencies",
})
