package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/alerts/infrastructure/memory"
	"maintenance-cloud/internal/auth"
)

type stubSource struct {
	tenants   []string
	snapshots map[string][]alerts.ComponentSnapshot
	err       error
}

func (s *stubSource) Tenants(ctx context.Context) ([]string, error) {
	_ = ctx
	return s.tenants, s.err
}

func (s *stubSource) ListByTenant(ctx context.Context, companyID string) ([]alerts.ComponentSnapshot, error) {
	_ = ctx
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots[companyID], nil
}

func newTestService(t *testing.T, store alerts.AlertHistoryStore, source SnapshotSource, now time.Time) *Service {
	t.Helper()
	service, err := NewService(store, source, nil, nil,
		WithServiceClock(fixedClock{now: now}),
		WithEvaluator(NewEvaluator(testFactory(now), nil)),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func tenantContext(companyID, subject string) context.Context {
	return auth.WithIdentity(context.Background(), companyID, auth.RoleOperator, subject)
}

func TestRunBatch_CreatesThenSuppresses(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)

	first, err := service.RunBatch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if first.Evaluated != 1 || first.Alerts != 1 || first.Created != 1 || first.Suppressed != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := service.RunBatch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("run batch again: %v", err)
	}
	if second.Created != 0 || second.Suppressed != 1 {
		t.Fatalf("expected repeat run suppressed, got %+v", second)
	}

	records, err := store.List(context.Background(), "acme", alerts.ListFilter{}, alerts.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected single record after repeat runs, got %d", len(records))
	}
}

// flakyStore fails creates for a single component so a batch can be driven
// through its continue-on-error path.
type flakyStore struct {
	*memory.AlertRepository
	failComponent string
}

func (s *flakyStore) Create(ctx context.Context, record *alerts.AlertRecord) (bool, error) {
	if record.ComponentID == s.failComponent {
		return false, errors.New("store unavailable")
	}
	return s.AlertRepository.Create(ctx, record)
}

func TestRunBatch_ContinuesPastFailedCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &flakyStore{AlertRepository: memory.NewAlertRepository(), failComponent: "comp-1"}
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {
			snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0),
			snapshotWithDays("comp-2", alerts.CriticalityB, 5, 0),
		},
	}}
	service := newTestService(t, store, source, now)

	result, err := service.RunBatch(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected the failed create to surface")
	}
	if result.Alerts != 2 {
		t.Fatalf("expected both components to alert, got %+v", result)
	}
	if result.Created != 1 {
		t.Fatalf("expected the surviving alert persisted, got %+v", result)
	}

	records, listErr := store.List(context.Background(), "acme", alerts.ListFilter{}, alerts.Page{})
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(records) != 1 || records[0].ComponentID != "comp-2" {
		t.Fatalf("expected only comp-2 persisted, got %+v", records)
	}
}

func TestRunBatch_RecreatesAfterResolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)

	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	records, err := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %v records=%d", err, len(records))
	}
	if _, err := service.Resolve(ctx, records[0].ID, "wo-7", "replaced bearing"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	result, err := service.RunBatch(context.Background(), "acme")
	if err != nil {
		t.Fatalf("run batch after resolve: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected new alert after resolve, got %+v", result)
	}
}

func TestResolve_StampsRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	records, _ := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	resolved, err := service.Resolve(ctx, records[0].ID, "wo-42", "swapped part")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != alerts.StatusResolved {
		t.Fatalf("expected resolved status, got %s", resolved.Status)
	}
	if resolved.ResolvedBy != "op-1" {
		t.Fatalf("expected operator stamp op-1, got %q", resolved.ResolvedBy)
	}
	if resolved.LinkedWorkOrderID != "wo-42" || resolved.ResolutionNotes != "swapped part" {
		t.Fatalf("unexpected resolution fields: %+v", resolved)
	}
	if !resolved.ResolvedAt.Equal(now) {
		t.Fatalf("expected resolved at %s, got %s", now, resolved.ResolvedAt)
	}
}

func TestDismiss_RequiresReason(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	records, _ := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	id := records[0].ID

	_, err := service.Dismiss(ctx, id, "   ")
	var verr *alerts.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	record, err := service.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != alerts.StatusActive {
		t.Fatalf("rejected dismiss must not change state, got %s", record.Status)
	}
}

func TestTransitions_ConflictOnTerminalRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	records, _ := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	id := records[0].ID
	if _, err := service.Dismiss(ctx, id, "false positive"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	_, err := service.Resolve(ctx, id, "", "")
	var conflict *alerts.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if conflict.Status != alerts.StatusDismissed {
		t.Fatalf("conflict should report current status dismissed, got %s", conflict.Status)
	}
}

func TestTransitions_OtherTenantLooksMissing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	owner := tenantContext("acme", "op-1")
	records, _ := service.List(owner, alerts.ListFilter{}, alerts.Page{})
	id := records[0].ID

	other := tenantContext("globex", "op-2")
	if _, err := service.Get(other, id); !errors.Is(err, alerts.ErrNotFound) {
		t.Fatalf("expected not found for foreign tenant get, got %v", err)
	}
	if _, err := service.Resolve(other, id, "", ""); !errors.Is(err, alerts.ErrNotFound) {
		t.Fatalf("expected not found for foreign tenant resolve, got %v", err)
	}
	if _, err := service.Dismiss(other, id, "nope"); !errors.Is(err, alerts.ErrNotFound) {
		t.Fatalf("expected not found for foreign tenant dismiss, got %v", err)
	}
}

func TestTransitions_ConcurrentRace(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0)},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	records, _ := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	id := records[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = service.Resolve(ctx, id, "wo-1", "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = service.Dismiss(ctx, id, "duplicate")
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *alerts.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("loser must see a conflict, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", succeeded)
	}
}

func TestSummary_CountsActiveOnly(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{snapshots: map[string][]alerts.ComponentSnapshot{
		"acme": {
			snapshotWithDays("comp-1", alerts.CriticalityA, 3, 0),
			snapshotWithDays("comp-2", alerts.CriticalityB, 14, 8),
		},
	}}
	service := newTestService(t, store, source, now)
	if _, err := service.RunBatch(context.Background(), "acme"); err != nil {
		t.Fatalf("run batch: %v", err)
	}

	ctx := tenantContext("acme", "op-1")
	summary, err := service.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 2 || summary.Critical != 1 || summary.Warning != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	records, _ := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	if _, err := service.Dismiss(ctx, records[0].ID, "handled offline"); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	summary, err = service.Summary(ctx)
	if err != nil {
		t.Fatalf("summary after dismiss: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected dismissed alert out of summary, got %+v", summary)
	}
}

func TestTenants_PrefersConfiguredList(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewAlertRepository()
	source := &stubSource{tenants: []string{"from-source"}}

	provider := NewPolicyProvider(Config{Schedule: ScheduleConfig{Tenants: []string{"acme", "globex"}}})
	service, err := NewService(store, source, provider, nil, WithServiceClock(fixedClock{now: now}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tenants, err := service.Tenants(context.Background())
	if err != nil {
		t.Fatalf("tenants: %v", err)
	}
	if len(tenants) != 2 || tenants[0] != "acme" {
		t.Fatalf("expected configured tenants, got %v", tenants)
	}

	provider.Update(Config{})
	tenants, err = service.Tenants(context.Background())
	if err != nil {
		t.Fatalf("tenants from source: %v", err)
	}
	if len(tenants) != 1 || tenants[0] != "from-source" {
		t.Fatalf("expected source tenants, got %v", tenants)
	}
}
