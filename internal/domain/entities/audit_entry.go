package entities

import (
	"time"
)

// AuditEntry is one row of the "histórico" screen
type AuditEntry struct {
	ID        string    `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	Status    string    `json:"status" db:"status"`
	Value     float64   `json:"value" db:"value"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Audit entry statuses
const (
	AuditStatusActive    = "ATIVO"
	AuditStatusSuspended = "SUSPENSO"
	AuditStatusCanceled  = "CANCELADO"
)

// AuditStatuses lists the statuses in the order the status facet cycles through them
var AuditStatuses = []string{AuditStatusActive, AuditStatusSuspended, AuditStatusCanceled}
