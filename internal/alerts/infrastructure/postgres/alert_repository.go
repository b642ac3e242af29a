package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	alerts "maintenance-cloud/internal/alerts/domain"
)

const alertColumns = `id, company_id, component_id, component_name, part_number, criticality,
	inventory_item_id, mtbf_hours, operating_hours, current_stock, minimum_stock, reorder_point, lead_time_days,
	alert_type, severity, priority, hours_until_maintenance, days_until_maintenance, message, recommendation,
	generated_at, expires_at, status, resolved_by, resolved_at, work_order_id, resolution_notes,
	dismissed_by, dismissed_at, dismiss_reason, created_at, updated_at`

const defaultListLimit = 100

// AlertRepository is a Postgres implementation of AlertHistoryStore.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new active record unless one is already active for the
// same (company, component, type). Dedupe is enforced by the partial unique
// index alert_history_active_dedupe (see migrations/001_alert_history.sql):
// ON CONFLICT DO NOTHING makes the losing side of a concurrent create a
// no-op instead of a second active row.
func (r *AlertRepository) Create(ctx context.Context, record *alerts.AlertRecord) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("alert repo: nil db")
	}
	if record == nil {
		return false, errors.New("alert repo: nil record")
	}
	if record.ID == "" || record.CompanyID == "" || record.ComponentID == "" {
		return false, errors.New("alert repo: missing fields")
	}
	if record.Status == "" {
		record.Status = alerts.StatusActive
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO alert_history (`+alertColumns+`)
VALUES ($1, $2, $3, $4, $5, $6,
	$7, $8, $9, $10, $11, $12, $13,
	$14, $15, $16, $17, $18, $19, $20,
	$21, $22, $23, NULL, NULL, NULL, NULL,
	NULL, NULL, NULL, $24, $25)
ON CONFLICT (company_id, component_id, alert_type) WHERE status = 'active'
DO NOTHING`,
		record.ID,
		record.CompanyID,
		record.ComponentID,
		record.ComponentName,
		nullableString(record.PartNumber),
		string(record.Criticality),
		record.InventoryItemID,
		record.MTBFHours,
		record.CurrentOperatingHours,
		record.CurrentStock,
		record.MinimumStock,
		record.ReorderPoint,
		record.LeadTimeDays,
		string(record.Type),
		string(record.Severity),
		record.Priority,
		record.HoursUntilMaintenance,
		record.DaysUntilMaintenance,
		record.Message,
		record.Recommendation,
		record.GeneratedAt,
		record.ExpiresAt,
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByID fetches a record scoped to a tenant. A record owned by another
// tenant is indistinguishable from a missing one.
func (r *AlertRepository) GetByID(ctx context.Context, companyID, id string) (*alerts.AlertRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if companyID == "" || id == "" {
		return nil, errors.New("alert repo: invalid query")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+alertColumns+`
FROM alert_history
WHERE id = $1 AND company_id = $2`, id, companyID)
	record, err := scanAlertRecord(row)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, alerts.ErrNotFound
	}
	return record, nil
}

// Resolve transitions a record to resolved, conditional on it still being
// active. The losing side of a race observes zero rows affected and receives
// a ConflictError with the record's actual status.
func (r *AlertRepository) Resolve(ctx context.Context, companyID, id string, res alerts.Resolution) (*alerts.AlertRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if companyID == "" || id == "" {
		return nil, errors.New("alert repo: invalid query")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alert_history
SET status = $1, resolved_by = $2, resolved_at = $3, work_order_id = $4, resolution_notes = $5, updated_at = $3
WHERE id = $6 AND company_id = $7 AND status = $8`,
		string(alerts.StatusResolved),
		res.OperatorID,
		res.At,
		nullableString(res.WorkOrderID),
		nullableString(res.Notes),
		id,
		companyID,
		string(alerts.StatusActive),
	)
	if err != nil {
		return nil, err
	}
	return r.afterTransition(ctx, companyID, id, result)
}

// Dismiss transitions a record to dismissed with the same conflict
// semantics as Resolve. The reason is validated before any write.
func (r *AlertRepository) Dismiss(ctx context.Context, companyID, id string, dis alerts.Dismissal) (*alerts.AlertRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if companyID == "" || id == "" {
		return nil, errors.New("alert repo: invalid query")
	}
	if strings.TrimSpace(dis.Reason) == "" {
		return nil, alerts.NewValidationError("dismiss reason required")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alert_history
SET status = $1, dismissed_by = $2, dismissed_at = $3, dismiss_reason = $4, updated_at = $3
WHERE id = $5 AND company_id = $6 AND status = $7`,
		string(alerts.StatusDismissed),
		dis.OperatorID,
		dis.At,
		dis.Reason,
		id,
		companyID,
		string(alerts.StatusActive),
	)
	if err != nil {
		return nil, err
	}
	return r.afterTransition(ctx, companyID, id, result)
}

func (r *AlertRepository) afterTransition(ctx context.Context, companyID, id string, result sql.Result) (*alerts.AlertRecord, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	record, getErr := r.GetByID(ctx, companyID, id)
	if affected > 0 {
		return record, getErr
	}
	if getErr != nil {
		return nil, getErr
	}
	return nil, &alerts.ConflictError{Status: record.Status}
}

// List returns tenant-scoped records matching the filter, in priority order.
func (r *AlertRepository) List(ctx context.Context, companyID string, filter alerts.ListFilter, page alerts.Page) ([]alerts.AlertRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if companyID == "" {
		return nil, errors.New("alert repo: invalid query")
	}

	query := strings.Builder{}
	query.WriteString("SELECT " + alertColumns + "\nFROM alert_history\nWHERE company_id = $1")
	args := []any{companyID}

	appendIn := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, 0, len(values))
		for _, value := range values {
			args = append(args, value)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		query.WriteString(" AND " + column + " IN (" + strings.Join(placeholders, ", ") + ")")
	}

	appendIn("severity", stringValues(filter.Severities))
	appendIn("criticality", stringValues(filter.Criticalities))
	appendIn("status", stringValues(filter.Statuses))

	if len(filter.StockStatuses) > 0 {
		clauses := make([]string, 0, len(filter.StockStatuses))
		for _, status := range filter.StockStatuses {
			switch status {
			case alerts.StockCritical:
				clauses = append(clauses, "current_stock = 0")
			case alerts.StockLow:
				clauses = append(clauses, "(current_stock > 0 AND current_stock < reorder_point)")
			case alerts.StockSufficient:
				clauses = append(clauses, "(current_stock > 0 AND current_stock >= reorder_point)")
			}
		}
		if len(clauses) > 0 {
			query.WriteString(" AND (" + strings.Join(clauses, " OR ") + ")")
		}
	}
	if filter.MinDaysUntil != nil {
		args = append(args, *filter.MinDaysUntil)
		query.WriteString(fmt.Sprintf(" AND days_until_maintenance >= $%d", len(args)))
	}
	if filter.MaxDaysUntil != nil {
		args = append(args, *filter.MaxDaysUntil)
		query.WriteString(fmt.Sprintf(" AND days_until_maintenance <= $%d", len(args)))
	}
	if !filter.GeneratedFrom.IsZero() {
		args = append(args, filter.GeneratedFrom)
		query.WriteString(fmt.Sprintf(" AND generated_at >= $%d", len(args)))
	}
	if !filter.GeneratedTo.IsZero() {
		args = append(args, filter.GeneratedTo)
		query.WriteString(fmt.Sprintf(" AND generated_at < $%d", len(args)))
	}

	query.WriteString(" ORDER BY priority ASC, days_until_maintenance ASC, generated_at DESC")

	limit := page.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerts.AlertRecord
	for rows.Next() {
		record, err := scanAlertRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func stringValues[T ~string](values []T) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, value := range values {
		result = append(result, string(value))
	}
	return result
}

type recordScanner interface {
	Scan(dest ...any) error
}

func scanAlertRecord(row recordScanner) (*alerts.AlertRecord, error) {
	var record alerts.AlertRecord
	var partNumber, resolvedBy, workOrderID, resolutionNotes sql.NullString
	var dismissedBy, dismissReason sql.NullString
	var resolvedAt, dismissedAt sql.NullTime
	if err := row.Scan(
		&record.ID,
		&record.CompanyID,
		&record.ComponentID,
		&record.ComponentName,
		&partNumber,
		&record.Criticality,
		&record.InventoryItemID,
		&record.MTBFHours,
		&record.CurrentOperatingHours,
		&record.CurrentStock,
		&record.MinimumStock,
		&record.ReorderPoint,
		&record.LeadTimeDays,
		&record.Type,
		&record.Severity,
		&record.Priority,
		&record.HoursUntilMaintenance,
		&record.DaysUntilMaintenance,
		&record.Message,
		&record.Recommendation,
		&record.GeneratedAt,
		&record.ExpiresAt,
		&record.Status,
		&resolvedBy,
		&resolvedAt,
		&workOrderID,
		&resolutionNotes,
		&dismissedBy,
		&dismissedAt,
		&dismissReason,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	record.PartNumber = partNumber.String
	record.ResolvedBy = resolvedBy.String
	record.LinkedWorkOrderID = workOrderID.String
	record.ResolutionNotes = resolutionNotes.String
	record.DismissedBy = dismissedBy.String
	record.DismissReason = dismissReason.String
	if resolvedAt.Valid {
		record.ResolvedAt = resolvedAt.Time.UTC()
	}
	if dismissedAt.Valid {
		record.DismissedAt = dismissedAt.Time.UTC()
	}
	record.GeneratedAt = record.GeneratedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return &record, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
