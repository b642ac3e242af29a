package alerts

import "errors"

// ComponentSnapshot joins a component's reliability statistics with the
// inventory position of its spare part. It is supplied per monitored
// component by the snapshot provider and is the sole input to
// classification. MTBFHours absent or <= 0 means the component carries no
// usable reliability statistic and never alerts.
type ComponentSnapshot struct {
	ComponentID           string      `json:"component_id"`
	ComponentName         string      `json:"component_name"`
	PartNumber            string      `json:"part_number,omitempty"`
	Criticality           Criticality `json:"criticality"`
	MTBFHours             float64     `json:"mtbf_hours"`
	CurrentOperatingHours float64     `json:"current_operating_hours"`
	InventoryItemID       string      `json:"inventory_item_id"`
	CurrentStock          int         `json:"current_stock"`
	MinimumStock          int         `json:"minimum_stock"`
	ReorderPoint          int         `json:"reorder_point"`
	LeadTimeDays          int         `json:"lead_time_days"`
}

// Validate checks snapshot invariants. A snapshot that fails validation is
// malformed input and is skipped by the batch evaluator, not classified.
func (s ComponentSnapshot) Validate() error {
	if s.ComponentID == "" {
		return errors.New("snapshot: empty component id")
	}
	if !s.Criticality.Valid() {
		return errors.New("snapshot: invalid criticality")
	}
	if s.CurrentStock < 0 {
		return errors.New("snapshot: negative stock")
	}
	if s.CurrentOperatingHours < 0 {
		return errors.New("snapshot: negative operating hours")
	}
	if s.LeadTimeDays < 0 {
		return errors.New("snapshot: negative lead time")
	}
	return nil
}

// StockStatus derives the inventory position bucket.
func (s ComponentSnapshot) StockStatus() StockStatus {
	return DeriveStockStatus(s.CurrentStock, s.ReorderPoint)
}
