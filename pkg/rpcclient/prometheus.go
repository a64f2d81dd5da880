package rpcclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics used in monitoring service.
var rpcCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Help:      "RPC call duration by method",
		Name:      "call_duration_seconds",
		Subsystem: "rpcclient",
		Namespace: "evmdevkit",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

func init() {
	prometheus.MustRegister(rpcCallDuration)
}
