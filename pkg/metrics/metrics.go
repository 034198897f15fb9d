// Package metrics holds the process-wide Prometheus registry used to
// instrument backend calls.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// MetricNamespace prefixes every metric exported by this server.
const MetricNamespace = "loki_mcp"

// Registry is the private registry collectors register themselves with.
var Registry = prometheus.NewRegistry()
