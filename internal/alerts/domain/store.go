package alerts

import (
	"context"
	"time"
)

// ListFilter narrows a tenant-scoped alert listing. All populated fields are
// AND-combined; multi-value fields match any of their values.
type ListFilter struct {
	Severities    []Severity
	Criticalities []Criticality
	Statuses      []Status
	StockStatuses []StockStatus
	MinDaysUntil  *int
	MaxDaysUntil  *int
	GeneratedFrom time.Time
	GeneratedTo   time.Time
}

// Page bounds a listing. A zero Limit means the store default.
type Page struct {
	Limit  int
	Offset int
}

// Resolution stamps a resolve transition.
type Resolution struct {
	OperatorID  string
	WorkOrderID string
	Notes       string
	At          time.Time
}

// Dismissal stamps a dismiss transition. Reason must be non-empty.
type Dismissal struct {
	OperatorID string
	Reason     string
	At         time.Time
}

// AlertHistoryStore persists alert records and executes the lifecycle
// transitions. It is the sole writer of record state.
//
// Create inserts a new active record unless an active record already exists
// for the same (company, component, type); in that case it is a no-op and
// reports created=false. Resolve and Dismiss are atomic conditional
// transitions: they succeed only while the record is still active, and a
// losing racer receives a ConflictError carrying the record's current
// status. All reads and writes are tenant-scoped; a record owned by another
// tenant surfaces as ErrNotFound.
type AlertHistoryStore interface {
	Create(ctx context.Context, record *AlertRecord) (bool, error)
	GetByID(ctx context.Context, companyID, id string) (*AlertRecord, error)
	List(ctx context.Context, companyID string, filter ListFilter, page Page) ([]AlertRecord, error)
	Resolve(ctx context.Context, companyID, id string, res Resolution) (*AlertRecord, error)
	Dismiss(ctx context.Context, companyID, id string, dis Dismissal) (*AlertRecord, error)
}
