package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of one admin-level operation. Entries are
// never updated; deleting them happens only through the explicit
// clear_audit_log opt-in of the database clear operation.
type AuditLog struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Action      string    `json:"action" gorm:"type:varchar(100);not null;index"`
	PerformedBy string    `json:"performed_by" gorm:"type:uuid;not null;index"`
	UserID      *string   `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Details     string    `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
