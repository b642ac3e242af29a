package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	alerts "maintenance-cloud/internal/alerts/domain"
)

// AlertRepository is an in-memory AlertHistoryStore for tests and local
// development. Transitions hold the lock for the whole check-and-set so the
// conflict semantics match the Postgres conditional update.
type AlertRepository struct {
	mu   sync.Mutex
	data map[string]*alerts.AlertRecord
}

// NewAlertRepository constructs a repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{data: make(map[string]*alerts.AlertRecord)}
}

// Create inserts a new record unless an active record already exists for the
// same (company, component, type).
func (r *AlertRepository) Create(ctx context.Context, record *alerts.AlertRecord) (bool, error) {
	_ = ctx
	if record == nil {
		return false, alerts.NewValidationError("nil record")
	}
	if record.Status == "" {
		record.Status = alerts.StatusActive
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.CompanyID == record.CompanyID &&
			existing.ComponentID == record.ComponentID &&
			existing.Type == record.Type &&
			existing.Status == alerts.StatusActive {
			return false, nil
		}
	}
	r.data[record.ID] = record.Clone()
	return true, nil
}

// GetByID fetches a record scoped to a tenant.
func (r *AlertRepository) GetByID(ctx context.Context, companyID, id string) (*alerts.AlertRecord, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.data[id]
	if !ok || record.CompanyID != companyID {
		return nil, alerts.ErrNotFound
	}
	return record.Clone(), nil
}

// Resolve transitions a record to resolved if it is still active.
func (r *AlertRepository) Resolve(ctx context.Context, companyID, id string, res alerts.Resolution) (*alerts.AlertRecord, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.data[id]
	if !ok || record.CompanyID != companyID {
		return nil, alerts.ErrNotFound
	}
	if record.Status != alerts.StatusActive {
		return nil, &alerts.ConflictError{Status: record.Status}
	}
	record.Status = alerts.StatusResolved
	record.ResolvedBy = res.OperatorID
	record.ResolvedAt = res.At
	record.LinkedWorkOrderID = res.WorkOrderID
	record.ResolutionNotes = res.Notes
	record.UpdatedAt = res.At
	return record.Clone(), nil
}

// Dismiss transitions a record to dismissed if it is still active. The
// reason is validated before any state changes.
func (r *AlertRepository) Dismiss(ctx context.Context, companyID, id string, dis alerts.Dismissal) (*alerts.AlertRecord, error) {
	_ = ctx
	if strings.TrimSpace(dis.Reason) == "" {
		return nil, alerts.NewValidationError("dismiss reason required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.data[id]
	if !ok || record.CompanyID != companyID {
		return nil, alerts.ErrNotFound
	}
	if record.Status != alerts.StatusActive {
		return nil, &alerts.ConflictError{Status: record.Status}
	}
	record.Status = alerts.StatusDismissed
	record.DismissedBy = dis.OperatorID
	record.DismissedAt = dis.At
	record.DismissReason = dis.Reason
	record.UpdatedAt = dis.At
	return record.Clone(), nil
}

// List returns tenant-scoped records matching the filter, in priority order.
func (r *AlertRepository) List(ctx context.Context, companyID string, filter alerts.ListFilter, page alerts.Page) ([]alerts.AlertRecord, error) {
	_ = ctx
	r.mu.Lock()
	var result []alerts.AlertRecord
	for _, record := range r.data {
		if record.CompanyID != companyID {
			continue
		}
		if !matches(record, filter) {
			continue
		}
		result = append(result, *record.Clone())
	}
	r.mu.Unlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		if result[i].DaysUntilMaintenance != result[j].DaysUntilMaintenance {
			return result[i].DaysUntilMaintenance < result[j].DaysUntilMaintenance
		}
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})

	if page.Offset > 0 {
		if page.Offset >= len(result) {
			return nil, nil
		}
		result = result[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(result) {
		result = result[:page.Limit]
	}
	return result, nil
}

func matches(record *alerts.AlertRecord, filter alerts.ListFilter) bool {
	if len(filter.Severities) > 0 && !contains(filter.Severities, record.Severity) {
		return false
	}
	if len(filter.Criticalities) > 0 && !contains(filter.Criticalities, record.Criticality) {
		return false
	}
	if len(filter.Statuses) > 0 && !contains(filter.Statuses, record.Status) {
		return false
	}
	if len(filter.StockStatuses) > 0 && !contains(filter.StockStatuses, record.StockStatus()) {
		return false
	}
	if filter.MinDaysUntil != nil && record.DaysUntilMaintenance < *filter.MinDaysUntil {
		return false
	}
	if filter.MaxDaysUntil != nil && record.DaysUntilMaintenance > *filter.MaxDaysUntil {
		return false
	}
	if !filter.GeneratedFrom.IsZero() && record.GeneratedAt.Before(filter.GeneratedFrom) {
		return false
	}
	if !filter.GeneratedTo.IsZero() && !record.GeneratedAt.Before(filter.GeneratedTo) {
		return false
	}
	return true
}

func contains[T comparable](values []T, value T) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
