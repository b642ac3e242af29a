package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"maintenance-cloud/internal/alerts/application"
	alerts "maintenance-cloud/internal/alerts/domain"
)

// BuildAlertsXLSX renders a workbook with a summary sheet and one row per
// alert record.
func BuildAlertsXLSX(summary application.Summary, records []alerts.AlertRecord) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	alertsSheet := "alerts"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(alertsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Predictive Maintenance Alerts")
	_ = f.SetCellValue(summarySheet, "A3", "Total")
	_ = f.SetCellValue(summarySheet, "B3", summary.Total)
	_ = f.SetCellValue(summarySheet, "A4", "Critical")
	_ = f.SetCellValue(summarySheet, "B4", summary.Critical)
	_ = f.SetCellValue(summarySheet, "A5", "Warning")
	_ = f.SetCellValue(summarySheet, "B5", summary.Warning)
	_ = f.SetCellValue(summarySheet, "A6", "Info")
	_ = f.SetCellValue(summarySheet, "B6", summary.Info)
	row := 8
	for alertType, count := range summary.ByType {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(alertType))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), count)
		row++
	}

	headers := []string{"ID", "Component", "Part", "Criticality", "Type", "Severity", "Priority",
		"Days Until Maintenance", "Stock", "Minimum", "Reorder Point", "Lead Time (days)",
		"Status", "Generated", "Expires"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alertsSheet, cell, header)
	}
	for i, record := range records {
		values := []any{
			record.ID,
			record.ComponentName,
			record.PartNumber,
			string(record.Criticality),
			string(record.Type),
			string(record.Severity),
			record.Priority,
			record.DaysUntilMaintenance,
			record.CurrentStock,
			record.MinimumStock,
			record.ReorderPoint,
			record.LeadTimeDays,
			string(record.Status),
			record.GeneratedAt.Format(time.RFC3339),
			record.ExpiresAt.Format(time.RFC3339),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(alertsSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildAlertsPDF renders a minimal PDF report for a batch of alert records.
func BuildAlertsPDF(summary application.Summary, records []alerts.AlertRecord, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Predictive Maintenance Alerts")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d (critical %d, warning %d, info %d)",
		summary.Total, summary.Critical, summary.Warning, summary.Info))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(55, 6, "Component", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Severity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Priority", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Days Until", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Stock", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Lead (days)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, record := range records {
		pdf.CellFormat(55, 6, record.ComponentName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, string(record.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, string(record.Severity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%d", record.Priority), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", record.DaysUntilMaintenance), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", record.CurrentStock), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", record.LeadTimeDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, string(record.Status), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
