// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attestationPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_attestation_polls_total",
			Help: "Total number of IRIS attestation polls by source domain and outcome",
		}, []string{"domain", "outcome"})

	mintsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_aptos_mints_total",
			Help: "Total number of Aptos mint submissions by outcome",
		}, []string{"outcome"})

	burnsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_solana_burns_total",
			Help: "Total number of Solana deposit_for_burn submissions by outcome",
		}, []string{"outcome"})

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

	relayBatchSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_relay_batch_size",
			Help: "Number of tracked transfers examined in the last relay run",
		})
)

// Poll outcomes
const (
	OutcomeReady     = "ready"
	OutcomeNotReady  = "not_ready"
	OutcomeError     = "error"
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
)

// RecordAttestationPoll counts one IRIS poll
func RecordAttestationPoll(domain uint32, outcome string) {
	attestationPolls.WithLabelValues(strconv.FormatUint(uint64(domain), 10), outcome).Inc()
}

// RecordMint counts one Aptos mint attempt
func RecordMint(outcome string) {
	mintsSubmitted.WithLabelValues(outcome).Inc()
}

// RecordBurn counts one Solana burn attempt
func RecordBurn(outcome string) {
	burnsSubmitted.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records the latency of a served request
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// SetRelayBatchSize reports how many transfers the relay examined
func SetRelayBatchSize(n int) {
	relayBatchSize.Set(float64(n))
}
