package application

import alerts "maintenance-cloud/internal/alerts/domain"

// Summary reduces a batch of alerts into dashboard counts.
type Summary struct {
	Total    int                      `json:"total"`
	Critical int                      `json:"critical"`
	Warning  int                      `json:"warning"`
	Info     int                      `json:"info"`
	ByType   map[alerts.AlertType]int `json:"by_type"`
}

// Summarize counts alerts by severity and type. Pure reduction.
func Summarize(list []alerts.Alert) Summary {
	summary := Summary{ByType: make(map[alerts.AlertType]int)}
	for _, alert := range list {
		summary.Total++
		switch alert.Severity {
		case alerts.SeverityCritical:
			summary.Critical++
		case alerts.SeverityWarning:
			summary.Warning++
		case alerts.SeverityInfo:
			summary.Info++
		}
		summary.ByType[alert.Type]++
	}
	return summary
}
