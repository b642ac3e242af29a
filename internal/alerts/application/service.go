package application

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/auth"
	"maintenance-cloud/internal/observability/metrics"
)

// SnapshotSource supplies reliability and inventory snapshots per tenant.
type SnapshotSource interface {
	Tenants(ctx context.Context) ([]string, error)
	ListByTenant(ctx context.Context, companyID string) ([]alerts.ComponentSnapshot, error)
}

// Service runs batch evaluation and mediates the alert lifecycle.
type Service struct {
	store     alerts.AlertHistoryStore
	source    SnapshotSource
	evaluator *Evaluator
	policies  *PolicyProvider
	clock     Clock
	logger    *log.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithServiceClock assigns a clock.
func WithServiceClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithEvaluator assigns a batch evaluator.
func WithEvaluator(evaluator *Evaluator) ServiceOption {
	return func(s *Service) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// NewService constructs an alert service.
func NewService(store alerts.AlertHistoryStore, source SnapshotSource, policies *PolicyProvider, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("alerts: nil store")
	}
	if source == nil {
		return nil, errors.New("alerts: nil snapshot source")
	}
	if policies == nil {
		policies = NewPolicyProvider(Config{})
	}
	service := &Service{
		store:    store,
		source:   source,
		policies: policies,
		clock:    systemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.evaluator == nil {
		service.evaluator = NewEvaluator(NewFactory(WithClock(service.clock)), logger)
	}
	return service, nil
}

// BatchResult summarizes one tenant batch run.
type BatchResult struct {
	CompanyID  string `json:"company_id"`
	Evaluated  int    `json:"evaluated"`
	Alerts     int    `json:"alerts"`
	Created    int    `json:"created"`
	Suppressed int    `json:"suppressed"`
}

// RunBatch evaluates every monitored component of a tenant and persists the
// resulting alerts. Each create is its own atomic unit: a failure to persist
// one alert is logged and the rest of the batch continues, and a crash
// mid-batch loses only the unpersisted remainder, safely recomputed on the
// next tick.
func (s *Service) RunBatch(ctx context.Context, companyID string) (BatchResult, error) {
	result := BatchResult{CompanyID: companyID}
	if s == nil {
		return result, errors.New("alerts: nil service")
	}
	if companyID == "" {
		return result, errors.New("alerts: company id required")
	}
	runID := uuid.NewString()
	started := s.clock.Now()

	snapshots, err := s.source.ListByTenant(ctx, companyID)
	if err != nil {
		metrics.ObserveBatchRun(err, s.clock.Now().Sub(started))
		return result, err
	}
	result.Evaluated = len(snapshots)

	policy := s.policies.ForTenant(companyID)
	batch := s.evaluator.EvaluateAll(snapshots, policy)
	result.Alerts = len(batch)

	var lastErr error
	for _, alert := range batch {
		record := &alerts.AlertRecord{
			Alert:     alert,
			CompanyID: companyID,
			Status:    alerts.StatusActive,
			CreatedAt: alert.GeneratedAt,
			UpdatedAt: alert.GeneratedAt,
		}
		created, err := s.store.Create(ctx, record)
		if err != nil {
			lastErr = err
			if s.logger != nil {
				s.logger.Printf("alert create error: run=%s tenant=%s component=%s type=%s err=%v",
					runID, companyID, alert.ComponentID, alert.Type, err)
			}
			continue
		}
		if created {
			result.Created++
			metrics.IncAlertEvent("created")
		} else {
			result.Suppressed++
			metrics.IncAlertSuppressed()
		}
	}

	metrics.ObserveBatchRun(lastErr, s.clock.Now().Sub(started))
	if s.logger != nil {
		s.logger.Printf("alert batch: run=%s tenant=%s evaluated=%d alerts=%d created=%d suppressed=%d",
			runID, companyID, result.Evaluated, result.Alerts, result.Created, result.Suppressed)
	}
	return result, lastErr
}

// Resolve transitions an active alert to resolved, linking an optional work
// order. The losing side of a concurrent transition receives a
// ConflictError carrying the record's current status.
func (s *Service) Resolve(ctx context.Context, id, workOrderID, notes string) (*alerts.AlertRecord, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	if id == "" {
		return nil, alerts.NewValidationError("alert id required")
	}
	companyID := auth.CompanyIDFromContext(ctx)
	if companyID == "" {
		return nil, alerts.ErrNotFound
	}
	res := alerts.Resolution{
		OperatorID:  auth.SubjectFromContext(ctx),
		WorkOrderID: workOrderID,
		Notes:       notes,
		At:          s.clock.Now().UTC(),
	}
	record, err := s.store.Resolve(ctx, companyID, id, res)
	if err != nil {
		return nil, err
	}
	metrics.IncAlertEvent("resolved")
	return record, nil
}

// Dismiss transitions an active alert to dismissed. The reason is mandatory
// and is validated before any state is touched.
func (s *Service) Dismiss(ctx context.Context, id, reason string) (*alerts.AlertRecord, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	if id == "" {
		return nil, alerts.NewValidationError("alert id required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, alerts.NewValidationError("dismiss reason required")
	}
	companyID := auth.CompanyIDFromContext(ctx)
	if companyID == "" {
		return nil, alerts.ErrNotFound
	}
	dis := alerts.Dismissal{
		OperatorID: auth.SubjectFromContext(ctx),
		Reason:     reason,
		At:         s.clock.Now().UTC(),
	}
	record, err := s.store.Dismiss(ctx, companyID, id, dis)
	if err != nil {
		return nil, err
	}
	metrics.IncAlertEvent("dismissed")
	return record, nil
}

// Get fetches a single alert record for the caller's tenant.
func (s *Service) Get(ctx context.Context, id string) (*alerts.AlertRecord, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	if id == "" {
		return nil, alerts.NewValidationError("alert id required")
	}
	companyID := auth.CompanyIDFromContext(ctx)
	if companyID == "" {
		return nil, alerts.ErrNotFound
	}
	return s.store.GetByID(ctx, companyID, id)
}

// List returns alert records for the caller's tenant.
func (s *Service) List(ctx context.Context, filter alerts.ListFilter, page alerts.Page) ([]alerts.AlertRecord, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	companyID := auth.CompanyIDFromContext(ctx)
	if companyID == "" {
		return nil, alerts.ErrNotFound
	}
	return s.store.List(ctx, companyID, filter, page)
}

// Summary recomputes dashboard counts from the tenant's active alerts.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	records, err := s.List(ctx, alerts.ListFilter{Statuses: []alerts.Status{alerts.StatusActive}}, alerts.Page{})
	if err != nil {
		return Summary{}, err
	}
	list := make([]alerts.Alert, 0, len(records))
	for _, record := range records {
		list = append(list, record.Alert)
	}
	return Summarize(list), nil
}

// Tenants lists the tenants with monitored components, preferring the
// configured list when present.
func (s *Service) Tenants(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	configured := s.policies.Config().Schedule.Tenants
	if len(configured) > 0 {
		return configured, nil
	}
	return s.source.Tenants(ctx)
}
