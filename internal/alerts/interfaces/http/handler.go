package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"maintenance-cloud/internal/alerts/application"
	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/auth"
)

const timeLayout = time.RFC3339

// Handler provides alert HTTP endpoints.
type Handler struct {
	service *application.Service
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles /api/v1/alerts and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/alerts/summary":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSummary(w, r)
	case r.URL.Path == "/api/v1/alerts/evaluate":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleEvaluate(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		h.handleItem(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []alerts.AlertRecord{}
	}
	respondJSON(w, list)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, summary)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	result, err := h.service.RunBatch(r.Context(), companyID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, result)
}

func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		record, err := h.service.Get(r.Context(), parts[0])
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, record)
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.handleAction(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type resolveRequest struct {
	WorkOrderID string `json:"work_order_id"`
	Notes       string `json:"notes"`
}

type dismissRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, id, action string) {
	var (
		record *alerts.AlertRecord
		err    error
	)
	switch action {
	case "resolve":
		var req resolveRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		record, err = h.service.Resolve(r.Context(), id, req.WorkOrderID, req.Notes)
	case "dismiss":
		var req dismissRequest
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		record, err = h.service.Dismiss(r.Context(), id, req.Reason)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, record)
}

func decodeBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	var validation *alerts.ValidationError
	var conflict *alerts.ConflictError
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.As(err, &conflict):
		http.Error(w, conflict.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseListQuery(r *http.Request) (alerts.ListFilter, alerts.Page, error) {
	var filter alerts.ListFilter
	var page alerts.Page
	query := r.URL.Query()

	for _, value := range splitMulti(query["severity"]) {
		severity := alerts.Severity(value)
		if !severity.Valid() {
			return filter, page, errors.New("invalid severity: " + value)
		}
		filter.Severities = append(filter.Severities, severity)
	}
	for _, value := range splitMulti(query["criticality"]) {
		criticality := alerts.Criticality(value)
		if !criticality.Valid() {
			return filter, page, errors.New("invalid criticality: " + value)
		}
		filter.Criticalities = append(filter.Criticalities, criticality)
	}
	for _, value := range splitMulti(query["status"]) {
		status := alerts.Status(value)
		if !status.Valid() {
			return filter, page, errors.New("invalid status: " + value)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, value := range splitMulti(query["stock_status"]) {
		stockStatus := alerts.StockStatus(value)
		if !stockStatus.Valid() {
			return filter, page, errors.New("invalid stock status: " + value)
		}
		filter.StockStatuses = append(filter.StockStatuses, stockStatus)
	}

	var err error
	if filter.MinDaysUntil, err = parseIntQuery(query.Get("min_days")); err != nil {
		return filter, page, err
	}
	if filter.MaxDaysUntil, err = parseIntQuery(query.Get("max_days")); err != nil {
		return filter, page, err
	}
	if value := query.Get("from"); value != "" {
		if filter.GeneratedFrom, err = time.Parse(timeLayout, value); err != nil {
			return filter, page, errors.New("invalid from timestamp")
		}
	}
	if value := query.Get("to"); value != "" {
		if filter.GeneratedTo, err = time.Parse(timeLayout, value); err != nil {
			return filter, page, errors.New("invalid to timestamp")
		}
	}
	if limit, err := parseIntQuery(query.Get("limit")); err != nil {
		return filter, page, err
	} else if limit != nil {
		page.Limit = *limit
	}
	if offset, err := parseIntQuery(query.Get("offset")); err != nil {
		return filter, page, err
	} else if offset != nil {
		page.Offset = *offset
	}
	return filter, page, nil
}

func splitMulti(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}
	return result
}

func parseIntQuery(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.New("invalid integer: " + value)
	}
	return &parsed, nil
}
