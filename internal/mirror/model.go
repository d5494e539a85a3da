package mirror

import "time"

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailed  AuditStatus = "failed"
)

// AuditEntry is one row of audit_log. Old and new values are free text,
// usually JSON.
type AuditEntry struct {
	UserID     *int64
	Action     string
	EntityType string
	EntityID   string
	OldValue   string
	NewValue   string
	Status     AuditStatus
	At         time.Time
}

// LowStockRow is a product row at or below its threshold.
type LowStockRow struct {
	ProductID         int64
	Name              string
	Category          string
	Stock             int
	LowStockThreshold int
}
