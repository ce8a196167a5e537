package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ImportStatus string

const (
	ImportSuccess   ImportStatus = "success"
	ImportPartial   ImportStatus = "partial"
	ImportFailed    ImportStatus = "failed"
	ImportCancelled ImportStatus = "cancelled"
)

// ImportAudit is append-only: rows are created, never updated or deleted.
type ImportAudit struct {
	ID          string         `gorm:"primaryKey;column:id;size:36"`
	Origin      Origin         `gorm:"column:origin;size:16"`
	PropertyIDs datatypes.JSON `gorm:"column:property_ids"`
	FailedIDs   datatypes.JSON `gorm:"column:failed_property_ids"`
	RangeStart  time.Time      `gorm:"column:range_start"`
	RangeEnd    time.Time      `gorm:"column:range_end"`
	RecordCount int            `gorm:"column:record_count"`
	Status      ImportStatus   `gorm:"column:status;size:16"`
	Message     string         `gorm:"column:message"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
}

func (ImportAudit) TableName() string { return "import_audits" }

// Failed decodes FailedIDs; a broken or empty column yields nil.
func (a ImportAudit) Failed() []string {
	if len(a.FailedIDs) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(a.FailedIDs, &ids); err != nil {
		return nil
	}
	return ids
}
