// Package metrics exposes Prometheus metrics the vault updates during
// operation:
//   - vault_operations_total{op,result}     – guarded operations by outcome
//   - vault_reentrancy_rejections_total{op} – single-flight guard rejections
//   - vault_performance_fees_total{token}   – performance fees taken, per token
//
// Collectors are registered in init() and served by the web server at
// /metrics (Prometheus text exposition format).
package metrics

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_operations_total",
			Help: "Guarded vault operations by outcome",
		},
		[]string{"op", "result"},
	)

	mtxReentrancy = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_reentrancy_rejections_total",
			Help: "Calls rejected by the single-flight guard",
		},
		[]string{"op"},
	)

	mtxFees = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_performance_fees_total",
			Help: "Performance fees taken, in raw token units",
		},
		[]string{"token"},
	)
)

func init() {
	prometheus.MustRegister(mtxOperations, mtxReentrancy, mtxFees)
}

// IncOperation counts one guarded operation outcome (result: ok|error).
func IncOperation(op, result string) {
	mtxOperations.WithLabelValues(op, result).Inc()
}

// IncReentrancyRejected counts one guard rejection.
func IncReentrancyRejected(op string) {
	mtxReentrancy.WithLabelValues(op).Inc()
}

// ObserveFeeTaken records performance fee amounts per token.
func ObserveFeeTaken(fee0, fee1 sdkmath.Int) {
	mtxFees.WithLabelValues("token0").Add(intToFloat(fee0))
	mtxFees.WithLabelValues("token1").Add(intToFloat(fee1))
}

func intToFloat(amount sdkmath.Int) float64 {
	if amount.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	return f
}
