// Package stats collects named numeric counters across initial partitioning
// attempts. A Manager is created by whoever drives the whole partitioning run
// and handed to every attempt that should report into it.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Well-known categories and metrics.
const (
	CategoryPartitioningResults = "Partitioning Results"
	CategoryTimeMeasurements    = "Time Measurements"

	CutIncreaseDuringRollback   = "Cut increase during rollback"
	CutIncreaseDuringRefinement = "Cut increase during refinement"
	RefinementTime              = "Refinement time"
)

// Manager holds (category, metric) -> value counters.
type Manager struct {
	mu         sync.Mutex
	stats      map[string]map[string]float64
	categories []string // insertion order
}

// NewManager creates an empty statistics context.
func NewManager() *Manager {
	return &Manager{stats: make(map[string]map[string]float64)}
}

// UpdateStat overwrites a counter.
func (m *Manager) UpdateStat(category, metric string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricsFor(category)[metric] = value
}

// AddStat adds delta to a counter, creating it at zero if needed.
func (m *Manager) AddStat(category, metric string, delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricsFor(category)[metric] += delta
}

// GetStat returns a counter, or 0 if it was never written.
func (m *Manager) GetStat(category, metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[category][metric]
}

func (m *Manager) metricsFor(category string) map[string]float64 {
	metrics, ok := m.stats[category]
	if !ok {
		metrics = make(map[string]float64)
		m.stats[category] = metrics
		m.categories = append(m.categories, category)
	}
	return metrics
}

// Categories returns the categories in the order they were first written.
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.categories...)
}

// Metrics returns a sorted list of metric names within a category.
func (m *Manager) Metrics(category string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.stats[category]))
	for name := range m.stats[category] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every counter.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[string]map[string]float64)
	m.categories = nil
}

// WriteTo renders all counters grouped by category.
func (m *Manager) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, category := range m.Categories() {
		n, err := fmt.Fprintf(w, "%s:\n", category)
		total += int64(n)
		if err != nil {
			return total, err
		}
		for _, metric := range m.Metrics(category) {
			n, err := fmt.Fprintf(w, "  %-40s = %g\n", metric, m.GetStat(category, metric))
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
