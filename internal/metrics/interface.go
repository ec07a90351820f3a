// Metrics that reduce a difference heatmap to a single number
package metrics

import (
	"fmt"
	"image"
	"sort"
)

// Metric defines the interface for heatmap metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(heatmap *image.NRGBA) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// IsHigherBetter returns true if higher values indicate a closer match
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates a new metrics evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register(NewDarknessScore())
	e.Register(NewMeanIntensity())
}

// Register registers a metric under its own name
func (e *Evaluator) Register(metric Metric) {
	e.metrics[metric.GetName()] = metric
}

// Names returns the registered metric names in sorted order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, heatmap *image.NRGBA) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}

	return metric.Calculate(heatmap)
}

// CalculateAll calculates every registered metric, stopping at the first failure
func (e *Evaluator) CalculateAll(heatmap *image.NRGBA) (map[string]float64, error) {
	results := make(map[string]float64, len(e.metrics))

	for _, name := range e.Names() {
		value, err := e.metrics[name].Calculate(heatmap)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", name, err)
		}
		results[name] = value
	}

	return results, nil
}
