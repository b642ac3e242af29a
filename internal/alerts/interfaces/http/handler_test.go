package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maintenance-cloud/internal/alerts/application"
	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/alerts/infrastructure/memory"
	"maintenance-cloud/internal/auth"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type staticSource struct {
	snapshots map[string][]alerts.ComponentSnapshot
}

func (s staticSource) Tenants(ctx context.Context) ([]string, error) {
	_ = ctx
	tenants := make([]string, 0, len(s.snapshots))
	for tenant := range s.snapshots {
		tenants = append(tenants, tenant)
	}
	return tenants, nil
}

func (s staticSource) ListByTenant(ctx context.Context, companyID string) ([]alerts.ComponentSnapshot, error) {
	_ = ctx
	return s.snapshots[companyID], nil
}

func snapshot(id string, criticality alerts.Criticality, daysUntil float64, stock int) alerts.ComponentSnapshot {
	return alerts.ComponentSnapshot{
		ComponentID:           id,
		ComponentName:         "Component " + id,
		Criticality:           criticality,
		MTBFHours:             4000 + daysUntil*24,
		CurrentOperatingHours: 4000,
		InventoryItemID:       "inv-" + id,
		CurrentStock:          stock,
		MinimumStock:          5,
		ReorderPoint:          10,
		LeadTimeDays:          10,
	}
}

func newTestHandler(t *testing.T, snapshots map[string][]alerts.ComponentSnapshot) (*Handler, *application.Service) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service, err := application.NewService(
		memory.NewAlertRepository(),
		staticSource{snapshots: snapshots},
		nil,
		nil,
		application.WithServiceClock(fixedClock{now: now}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, service
}

func authedRequest(method, target string, body []byte, tenant string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := auth.WithIdentity(req.Context(), tenant, auth.RoleOperator, "op-1")
	return req.WithContext(ctx)
}

func seedAlert(t *testing.T, handler *Handler, service *application.Service, tenant string) alerts.AlertRecord {
	t.Helper()
	_ = handler
	if _, err := service.RunBatch(context.Background(), tenant); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	ctx := auth.WithIdentity(context.Background(), tenant, auth.RoleOperator, "op-1")
	records, err := service.List(ctx, alerts.ListFilter{}, alerts.Page{})
	if err != nil || len(records) == 0 {
		t.Fatalf("seed list: err=%v records=%d", err, len(records))
	}
	return records[0]
}

func TestHandler_ListFilters(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {
			snapshot("comp-1", alerts.CriticalityA, 3, 0),
			snapshot("comp-2", alerts.CriticalityB, 14, 8),
		},
	})
	seedAlert(t, handler, service, "acme")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/alerts?severity=critical", nil, "acme"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []alerts.AlertRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Severity != alerts.SeverityCritical {
		t.Fatalf("expected single critical alert, got %+v", list)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/alerts?status=bogus", nil, "acme"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status filter, got %d", rec.Code)
	}
}

func TestHandler_ListRejectsUnknownEnumFilters(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {snapshot("comp-1", alerts.CriticalityA, 3, 0)},
	})
	seedAlert(t, handler, service, "acme")

	for _, target := range []string{
		"/api/v1/alerts?severity=sever",
		"/api/v1/alerts?criticality=D",
		"/api/v1/alerts?stock_status=empty",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, target, nil, "acme"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 for unknown filter value, got %d", target, rec.Code)
		}
	}

	// The valid spellings still filter instead of erroring.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/alerts?severity=critical&criticality=A&stock_status=critical", nil, "acme"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid filters, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Summary(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {
			snapshot("comp-1", alerts.CriticalityA, 3, 0),
			snapshot("comp-2", alerts.CriticalityB, 14, 8),
		},
	})
	seedAlert(t, handler, service, "acme")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/alerts/summary", nil, "acme"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary application.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Total != 2 || summary.Critical != 1 || summary.Warning != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestHandler_EvaluateTriggersBatch(t *testing.T) {
	handler, _ := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {snapshot("comp-1", alerts.CriticalityA, 3, 0)},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/alerts/evaluate", nil, "acme"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result application.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.CompanyID != "acme" || result.Created != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
}

func TestHandler_ResolveAndConflict(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {snapshot("comp-1", alerts.CriticalityA, 3, 0)},
	})
	record := seedAlert(t, handler, service, "acme")

	body := []byte(`{"work_order_id":"wo-9","notes":"done"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/alerts/"+record.ID+"/resolve", body, "acme"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resolved alerts.AlertRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resolved.Status != alerts.StatusResolved || resolved.LinkedWorkOrderID != "wo-9" {
		t.Fatalf("unexpected resolve response: %+v", resolved)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/alerts/"+record.ID+"/dismiss", []byte(`{"reason":"late"}`), "acme"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on terminal record, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "resolved") {
		t.Fatalf("conflict body should carry current status, got %q", rec.Body.String())
	}
}

func TestHandler_DismissRequiresReason(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {snapshot("comp-1", alerts.CriticalityA, 3, 0)},
	})
	record := seedAlert(t, handler, service, "acme")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/alerts/"+record.ID+"/dismiss", []byte(`{"reason":"  "}`), "acme"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank reason, got %d", rec.Code)
	}
}

func TestHandler_CrossTenantIsNotFound(t *testing.T) {
	handler, service := newTestHandler(t, map[string][]alerts.ComponentSnapshot{
		"acme": {snapshot("comp-1", alerts.CriticalityA, 3, 0)},
	})
	record := seedAlert(t, handler, service, "acme")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/alerts/"+record.ID, nil, "globex"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign tenant, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/alerts/"+record.ID+"/resolve", nil, "globex"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign tenant resolve, got %d", rec.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/v1/alerts", nil, "acme"))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
