package database

import (
	"database/sql"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// AuditLogListID is the list served from the audit_logs table
const AuditLogListID = "historico"

// AuditLogList describes the "histórico" list over audit_logs
func AuditLogList() ListDefinition[entities.AuditEntry] {
	return ListDefinition[entities.AuditEntry]{
		ListID: AuditLogListID,
		Table:  "audit_logs",
		Columns: []string{
			"id", "actor", "action", "entity", "status", "value", "details", "created_at",
		},
		KeyColumn:     "id",
		SearchColumns: []string{"actor", "entity", "details"},
		FacetColumns: map[string]string{
			"status": "status",
			"action": "action",
			"actor":  "actor",
		},
		DateColumn:  "created_at",
		ValueColumn: "value",
		SortColumns: map[string]string{
			"created_at": "created_at",
		},
		DefaultSort: entities.SortState{Field: "created_at", Direction: entities.SortDesc},
		ScanRow:     scanAuditEntry,
	}
}

func scanAuditEntry(row RowScanner) (entities.AuditEntry, error) {
	var entry entities.AuditEntry
	var details sql.NullString
	var value sql.NullFloat64

	err := row.Scan(
		&entry.ID,
		&entry.Actor,
		&entry.Action,
		&entry.Entity,
		&entry.Status,
		&value,
		&details,
		&entry.CreatedAt,
	)
	if err != nil {
		return entities.AuditEntry{}, err
	}

	entry.Value = value.Float64
	entry.Details = details.String
	return entry, nil
}
