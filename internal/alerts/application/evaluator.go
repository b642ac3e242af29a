package application

import (
	"log"
	"sort"

	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/observability/metrics"
)

// Evaluator runs the classifier and factory over a tenant's component set.
type Evaluator struct {
	factory *Factory
	logger  *log.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(factory *Factory, logger *log.Logger) *Evaluator {
	if factory == nil {
		factory = NewFactory()
	}
	return &Evaluator{factory: factory, logger: logger}
}

// EvaluateAll classifies every snapshot independently and returns the
// surviving alerts sorted by priority, then by days until maintenance.
// A malformed snapshot is logged with its component id and skipped; it never
// aborts the rest of the batch.
func (e *Evaluator) EvaluateAll(snapshots []alerts.ComponentSnapshot, policy Policy) []alerts.Alert {
	result := make([]alerts.Alert, 0, len(snapshots))
	for _, snapshot := range snapshots {
		if err := snapshot.Validate(); err != nil {
			if e.logger != nil {
				e.logger.Printf("alerts evaluate skip: component=%s err=%v", snapshot.ComponentID, err)
			}
			metrics.IncBatchComponentSkipped()
			continue
		}
		decision := Classify(snapshot, policy)
		if decision == nil {
			continue
		}
		result = append(result, e.factory.Build(snapshot, *decision, policy))
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		if result[i].DaysUntilMaintenance != result[j].DaysUntilMaintenance {
			return result[i].DaysUntilMaintenance < result[j].DaysUntilMaintenance
		}
		return result[i].HoursUntilMaintenance < result[j].HoursUntilMaintenance
	})
	return result
}
