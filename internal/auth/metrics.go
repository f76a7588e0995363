// File: internal/auth/metrics.go
package auth

import (
	"identity_backend/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication attempts by flow and outcome",
	},
	[]string{"flow", "outcome"},
)

// observeAttempt counts one attempt. Client-caused failures are "rejected",
// anything else that fails is "error".
func observeAttempt(flow string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if apiErr, ok := common.IsAPIError(err); ok && apiErr.StatusCode < 500 {
			outcome = "rejected"
		}
	}
	authAttemptsTotal.WithLabelValues(flow, outcome).Inc()
}
