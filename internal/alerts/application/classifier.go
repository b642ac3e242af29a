package application

import (
	"fmt"
	"math"

	alerts "maintenance-cloud/internal/alerts/domain"
)

// Decision is the classifier's verdict for a single component snapshot.
// A nil Decision means no alert is warranted, whether because the component
// is too far out to act on or because no tier condition matches.
type Decision struct {
	Type                  alerts.AlertType
	Severity              alerts.Severity
	Priority              int
	HoursUntilMaintenance float64
	DaysUntilMaintenance  float64
	Message               string
	Recommendation        string
}

// Classify decides whether a snapshot warrants an alert and at what tier.
// Pure function; tiers are evaluated in strict precedence order and the
// first match wins. A missing or non-positive MTBF never alerts.
func Classify(snapshot alerts.ComponentSnapshot, policy Policy) *Decision {
	if snapshot.MTBFHours <= 0 {
		return nil
	}

	hoursUntil := snapshot.MTBFHours - snapshot.CurrentOperatingHours
	daysUntil := hoursUntil / 24
	lead := float64(snapshot.LeadTimeDays)

	if daysUntil > lead*policy.HorizonFactor {
		return nil
	}

	base := snapshot.Criticality.Rank()
	displayDays := ceilDays(hoursUntil)

	var decision Decision
	switch {
	case snapshot.CurrentStock == 0 && daysUntil <= lead:
		decision = Decision{
			Type:     alerts.TypeStockOutCritical,
			Severity: alerts.SeverityCritical,
			Priority: base,
			Message: fmt.Sprintf("%s requires maintenance in %d days and no spare parts are in stock (lead time %d days)",
				snapshot.ComponentName, displayDays, snapshot.LeadTimeDays),
			Recommendation: fmt.Sprintf("Expedite replenishment of part %s immediately; the maintenance window falls inside the supplier lead time",
				partLabel(snapshot)),
		}
	case snapshot.CurrentStock < snapshot.MinimumStock && daysUntil <= lead:
		decision = Decision{
			Type:     alerts.TypeUrgentMTBF,
			Severity: alerts.SeverityCritical,
			Priority: base,
			Message: fmt.Sprintf("%s requires maintenance in %d days; stock %d is below minimum %d (lead time %d days)",
				snapshot.ComponentName, displayDays, snapshot.CurrentStock, snapshot.MinimumStock, snapshot.LeadTimeDays),
			Recommendation: fmt.Sprintf("Order part %s now to cover the maintenance window", partLabel(snapshot)),
		}
	case snapshot.CurrentStock <= snapshot.ReorderPoint && daysUntil <= lead*policy.WarningWindowFactor:
		decision = Decision{
			Type:     alerts.TypeWarningMTBF,
			Severity: alerts.SeverityWarning,
			Priority: base + 1,
			Message: fmt.Sprintf("%s is due for maintenance in %d days; stock %d is at or below reorder point %d",
				snapshot.ComponentName, displayDays, snapshot.CurrentStock, snapshot.ReorderPoint),
			Recommendation: fmt.Sprintf("Schedule replenishment of part %s; supplier lead time is %d days",
				partLabel(snapshot), snapshot.LeadTimeDays),
		}
	case snapshot.CurrentStock <= snapshot.ReorderPoint && daysUntil <= lead*policy.HorizonFactor:
		decision = Decision{
			Type:     alerts.TypeReorderRecommended,
			Severity: alerts.SeverityInfo,
			Priority: base + 2,
			Message: fmt.Sprintf("%s reaches its maintenance window in %d days; stock %d is at or below reorder point %d",
				snapshot.ComponentName, displayDays, snapshot.CurrentStock, snapshot.ReorderPoint),
			Recommendation: fmt.Sprintf("Plan a reorder of part %s within the next cycle (lead time %d days)",
				partLabel(snapshot), snapshot.LeadTimeDays),
		}
	default:
		return nil
	}

	decision.HoursUntilMaintenance = hoursUntil
	decision.DaysUntilMaintenance = daysUntil
	return &decision
}

func ceilDays(hours float64) int {
	return int(math.Ceil(hours / 24))
}

func partLabel(snapshot alerts.ComponentSnapshot) string {
	if snapshot.PartNumber != "" {
		return snapshot.PartNumber
	}
	return snapshot.InventoryItemID
}
