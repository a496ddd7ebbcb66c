package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authorEntryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcechain_author_entry_total",
		Help: "Authored entries by outcome",
	}, []string{"result"})

	holdAspectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcechain_hold_aspect_total",
		Help: "Incoming aspects by workflow and outcome",
	}, []string{"workflow", "result"})

	pendingRetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcechain_pending_retry_total",
		Help: "Pending validation retries by outcome",
	}, []string{"result"})
)

const (
	resultOk       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
	resultHeld     = "held"
	resultPending  = "pending"
)
