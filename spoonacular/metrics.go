package spoonacular

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var upstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "recipe_api_spoonacular_requests_total",
		Help: "Upstream recipe API requests by endpoint and outcome",
	},
	[]string{"endpoint", "status"},
)

func observeRequest(endpoint, status string) {
	upstreamRequests.WithLabelValues(endpoint, status).Inc()
}
