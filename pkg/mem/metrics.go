package mem

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes a Pool's debug accounting counters as Prometheus
// gauges. Registration is opt-in (an embedder registers it with its own
// prometheus.Registry) —
// the allocator has no business pulling in a metrics dependency for
// programs that never ask for it.
type Collector struct {
	pool *Pool
}

// NewCollector wraps pool for Prometheus registration.
func NewCollector(pool *Pool) *Collector {
	return &Collector{pool: pool}
}

var (
	allocatedDesc = prometheus.NewDesc(
		"june_mem_pool_allocated_bytes_total",
		"Total bytes allocated for pool chunks.",
		nil, nil)
	bypassDesc = prometheus.NewDesc(
		"june_mem_pool_bypass_bytes_total",
		"Total bytes served outside the pool because the request exceeded the chunk size.",
		nil, nil)
	requestsDesc = prometheus.NewDesc(
		"june_mem_pool_requests_total",
		"Number of Alloc calls made against the pool.",
		nil, nil)
	manualDesc = prometheus.NewDesc(
		"june_mem_pool_manual_bytes_total",
		"Total bytes served by bypass (non-pooled) allocation.",
		nil, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- allocatedDesc
	ch <- bypassDesc
	ch <- requestsDesc
	ch <- manualDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(allocatedDesc, prometheus.CounterValue, float64(s.TotalAllocated))
	ch <- prometheus.MustNewConstMetric(bypassDesc, prometheus.CounterValue, float64(s.TotalBypass))
	ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.CounterValue, float64(s.Requests))
	ch <- prometheus.MustNewConstMetric(manualDesc, prometheus.CounterValue, float64(s.TotalManualAlloc))
}
