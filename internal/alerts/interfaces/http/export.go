package http

import (
	"errors"
	"net/http"
	"time"

	"maintenance-cloud/internal/alerts/application"
	alerts "maintenance-cloud/internal/alerts/domain"
	"maintenance-cloud/internal/alerts/interfaces"
	"maintenance-cloud/internal/observability/metrics"
)

// ExportHandler serves alert history exports.
type ExportHandler struct {
	service *application.Service
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service *application.Service) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("alerts export: nil service")
	}
	return &ExportHandler{service: service}, nil
}

// ServeHTTP handles /api/v1/exports/alerts.xlsx and alerts.pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var format string
	switch r.URL.Path {
	case "/api/v1/exports/alerts.xlsx":
		format = "xlsx"
	case "/api/v1/exports/alerts.pdf":
		format = "pdf"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	filter, page, err := parseListQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	records, err := h.service.List(r.Context(), filter, page)
	if err != nil {
		metrics.ObserveExport(format, err, time.Since(started))
		respondError(w, err)
		return
	}
	list := make([]alerts.Alert, 0, len(records))
	for _, record := range records {
		list = append(list, record.Alert)
	}
	summary := application.Summarize(list)

	var payload []byte
	switch format {
	case "xlsx":
		payload, err = interfaces.BuildAlertsXLSX(summary, records)
	case "pdf":
		payload, err = interfaces.BuildAlertsPDF(summary, records, time.Now().UTC())
	}
	metrics.ObserveExport(format, err, time.Since(started))
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="alerts.xlsx"`)
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="alerts.pdf"`)
	}
	_, _ = w.Write(payload)
}
