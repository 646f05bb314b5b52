// Package metrics holds the relayer's Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

const namespace = "tbr"

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	resolutions     *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	redemptions     *prometheus.CounterVec
	failures        *prometheus.CounterVec
	requests        *prometheus.CounterVec
	quoteLatencySec prometheus.Histogram
}

func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Number of VAA resolutions by completion kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Number of outbound transfers by kind and destination chain",
			},
			[]string{"kind", "dst_chain"},
		),
		redemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redemptions_total",
				Help:      "Number of completed inbound transfers by kind and source chain",
			},
			[]string{"kind", "src_chain"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Number of failed operations by operation and error code",
			},
			[]string{"operation", "code"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "execution_requests_total",
				Help:      "Number of execution requests emitted by request kind",
			},
			[]string{"kind"},
		),
		quoteLatencySec: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quote_latency_seconds",
				Help:      "Latency of executor quote requests",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registerer.MustRegister(m.resolutions)
	registerer.MustRegister(m.transfers)
	registerer.MustRegister(m.redemptions)
	registerer.MustRegister(m.failures)
	registerer.MustRegister(m.requests)
	registerer.MustRegister(m.quoteLatencySec)

	return m
}

func (m *Metrics) Resolution(kind, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Transfer(kind string, dstChain uint16) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(kind, fmt.Sprint(dstChain)).Inc()
}

func (m *Metrics) Redemption(kind string, srcChain uint16) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(kind, fmt.Sprint(srcChain)).Inc()
}

// Failure counts err under its error code; errors without one count as INTERNAL.
func (m *Metrics) Failure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(operation, string(tbrerrors.CodeOf(err))).Inc()
}

func (m *Metrics) ExecutionRequest(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
}

func (m *Metrics) QuoteLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.quoteLatencySec.Observe(d.Seconds())
}
