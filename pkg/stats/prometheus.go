package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the counters of a Manager as Prometheus gauges.
type Collector struct {
	manager *Manager
	desc    *prometheus.Desc
}

// Compile-time assertion that Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)

// NewCollector wraps manager for registration with a Prometheus registry.
// namespace defaults to "hgpart" if empty.
func NewCollector(manager *Manager, namespace string) *Collector {
	if namespace == "" {
		namespace = "hgpart"
	}
	return &Collector{
		manager: manager,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "initial_partitioning", "stat"),
			"Accumulated initial partitioning statistics by category and metric.",
			[]string{"category", "metric"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, category := range c.manager.Categories() {
		for _, metric := range c.manager.Metrics(category) {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue,
				c.manager.GetStat(category, metric), category, metric)
		}
	}
}
