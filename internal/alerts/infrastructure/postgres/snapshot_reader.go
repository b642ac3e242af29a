package postgres

import (
	"context"
	"database/sql"
	"errors"

	alerts "maintenance-cloud/internal/alerts/domain"
)

// SnapshotReader loads component reliability and inventory snapshots from
// the monitoring tables, scoped by tenant.
type SnapshotReader struct {
	db *sql.DB
}

// NewSnapshotReader constructs a reader.
func NewSnapshotReader(db *sql.DB) *SnapshotReader {
	return &SnapshotReader{db: db}
}

// Tenants lists the tenants that have monitored components.
func (r *SnapshotReader) Tenants(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("snapshot reader: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT company_id FROM component_reliability ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var companyID string
		if err := rows.Scan(&companyID); err != nil {
			return nil, err
		}
		result = append(result, companyID)
	}
	return result, rows.Err()
}

// ListByTenant joins each monitored component with the inventory position of
// its spare part. Components without an inventory row get zero stock figures
// and are classified accordingly.
func (r *SnapshotReader) ListByTenant(ctx context.Context, companyID string) ([]alerts.ComponentSnapshot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("snapshot reader: nil db")
	}
	if companyID == "" {
		return nil, errors.New("snapshot reader: company id required")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT c.component_id, c.component_name, c.part_number, c.criticality,
	c.mtbf_hours, c.operating_hours, c.inventory_item_id,
	COALESCE(i.current_stock, 0), COALESCE(i.minimum_stock, 0),
	COALESCE(i.reorder_point, 0), COALESCE(i.lead_time_days, 0)
FROM component_reliability c
LEFT JOIN inventory_items i ON i.id = c.inventory_item_id AND i.company_id = c.company_id
WHERE c.company_id = $1
ORDER BY c.component_id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerts.ComponentSnapshot
	for rows.Next() {
		var snapshot alerts.ComponentSnapshot
		var partNumber, inventoryItemID sql.NullString
		var mtbf sql.NullFloat64
		if err := rows.Scan(
			&snapshot.ComponentID,
			&snapshot.ComponentName,
			&partNumber,
			&snapshot.Criticality,
			&mtbf,
			&snapshot.CurrentOperatingHours,
			&inventoryItemID,
			&snapshot.CurrentStock,
			&snapshot.MinimumStock,
			&snapshot.ReorderPoint,
			&snapshot.LeadTimeDays,
		); err != nil {
			return nil, err
		}
		snapshot.PartNumber = partNumber.String
		snapshot.InventoryItemID = inventoryItemID.String
		if mtbf.Valid {
			snapshot.MTBFHours = mtbf.Float64
		}
		result = append(result, snapshot)
	}
	return result, rows.Err()
}
