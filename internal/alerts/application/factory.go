package application

import (
	"time"

	"github.com/google/uuid"

	alerts "maintenance-cloud/internal/alerts/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Factory turns classifier decisions into immutable alerts. Pure
// construction; no side effects beyond consuming an id.
type Factory struct {
	clock Clock
	newID func() string
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithClock assigns a clock.
func WithClock(clock Clock) FactoryOption {
	return func(f *Factory) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithIDGenerator assigns an id generator.
func WithIDGenerator(newID func() string) FactoryOption {
	return func(f *Factory) {
		if newID != nil {
			f.newID = newID
		}
	}
}

// NewFactory constructs a Factory.
func NewFactory(opts ...FactoryOption) *Factory {
	factory := &Factory{
		clock: systemClock{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// Build wraps a decision and its originating snapshot into an Alert with a
// fresh id, generation timestamp, and policy-driven expiry.
func (f *Factory) Build(snapshot alerts.ComponentSnapshot, decision Decision, policy Policy) alerts.Alert {
	now := f.clock.Now().UTC()
	return alerts.Alert{
		ID:                    f.newID(),
		Type:                  decision.Type,
		Severity:              decision.Severity,
		ComponentID:           snapshot.ComponentID,
		ComponentName:         snapshot.ComponentName,
		PartNumber:            snapshot.PartNumber,
		Criticality:           snapshot.Criticality,
		MTBFHours:             snapshot.MTBFHours,
		CurrentOperatingHours: snapshot.CurrentOperatingHours,
		InventoryItemID:       snapshot.InventoryItemID,
		CurrentStock:          snapshot.CurrentStock,
		MinimumStock:          snapshot.MinimumStock,
		ReorderPoint:          snapshot.ReorderPoint,
		LeadTimeDays:          snapshot.LeadTimeDays,
		HoursUntilMaintenance: decision.HoursUntilMaintenance,
		DaysUntilMaintenance:  ceilDays(decision.HoursUntilMaintenance),
		Message:               decision.Message,
		Recommendation:        decision.Recommendation,
		Priority:              decision.Priority,
		GeneratedAt:           now,
		ExpiresAt:             now.Add(policy.Expiry),
	}
}
