package alerts

import "time"

// Status values for a persisted alert. Resolved and dismissed are terminal.
const (
	StatusActive    Status = "active"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// Status is the lifecycle state of a persisted alert.
type Status string

// Valid returns true when status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// AlertType identifies the escalation tier of an alert.
type AlertType string

const (
	TypeStockOutCritical   AlertType = "stock_out_critical"
	TypeUrgentMTBF         AlertType = "urgent_mtbf"
	TypeWarningMTBF        AlertType = "warning_mtbf"
	TypeReorderRecommended AlertType = "reorder_recommended"
)

// Valid returns true when the type is a known tier.
func (t AlertType) Valid() bool {
	switch t {
	case TypeStockOutCritical, TypeUrgentMTBF, TypeWarningMTBF, TypeReorderRecommended:
		return true
	default:
		return false
	}
}

// Severity classifies how urgent an alert is for display purposes.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid returns true when the severity is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// Criticality is the ISO-14224-style component importance ranking.
type Criticality string

const (
	CriticalityA Criticality = "A"
	CriticalityB Criticality = "B"
	CriticalityC Criticality = "C"
)

// Valid returns true when the criticality is a known ranking.
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityA, CriticalityB, CriticalityC:
		return true
	default:
		return false
	}
}

// Rank returns the numeric priority base for a criticality. A ranks highest.
func (c Criticality) Rank() int {
	switch c {
	case CriticalityA:
		return 1
	case CriticalityB:
		return 2
	default:
		return 3
	}
}

// Alert is an immutable predictive maintenance alert computed from a
// component snapshot. It carries a copy of the reliability and inventory
// figures as they were at generation time.
type Alert struct {
	ID                    string      `json:"id"`
	Type                  AlertType   `json:"type"`
	Severity              Severity    `json:"severity"`
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
	HoursUntilMaintenance float64     `json:"hours_until_maintenance"`
	DaysUntilMaintenance  int         `json:"days_until_maintenance"`
	Message               string      `json:"message"`
	Recommendation        string      `json:"recommendation"`
	Priority              int         `json:"priority"`
	GeneratedAt           time.Time   `json:"generated_at"`
	ExpiresAt             time.Time   `json:"expires_at"`
}

// StockStatus derives the inventory position bucket from the copied figures.
func (a Alert) StockStatus() StockStatus {
	return DeriveStockStatus(a.CurrentStock, a.ReorderPoint)
}

// AlertRecord is the persisted form of an Alert, scoped to a tenant and
// carrying the lifecycle state plus resolution/dismissal stamps.
type AlertRecord struct {
	Alert
	CompanyID         string    `json:"company_id"`
	Status            Status    `json:"status"`
	ResolvedBy        string    `json:"resolved_by,omitempty"`
	ResolvedAt        time.Time `json:"resolved_at,omitempty"`
	LinkedWorkOrderID string    `json:"linked_work_order_id,omitempty"`
	ResolutionNotes   string    `json:"resolution_notes,omitempty"`
	DismissedBy       string    `json:"dismissed_by,omitempty"`
	DismissedAt       time.Time `json:"dismissed_at,omitempty"`
	DismissReason     string    `json:"dismiss_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe to hand across goroutines.
func (r *AlertRecord) Clone() *AlertRecord {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

// StockStatus buckets the inventory position of a component.
type StockStatus string

const (
	StockCritical   StockStatus = "critical"
	StockLow        StockStatus = "low"
	StockSufficient StockStatus = "sufficient"
)

// Valid returns true when the stock status is a known bucket.
func (s StockStatus) Valid() bool {
	switch s {
	case StockCritical, StockLow, StockSufficient:
		return true
	default:
		return false
	}
}

// DeriveStockStatus maps raw stock figures to a bucket: critical when the
// shelf is empty, low when below the reorder point, sufficient otherwise.
func DeriveStockStatus(currentStock, reorderPoint int) StockStatus {
	if currentStock == 0 {
		return StockCritical
	}
	if currentStock < reorderPoint {
		return StockLow
	}
	return StockSufficient
}
