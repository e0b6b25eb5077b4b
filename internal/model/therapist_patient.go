package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TherapistPatient links one therapist to one patient. The unique index on
// PatientID enforces the one-active-therapist-per-patient rule.
type TherapistPatient struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	TherapistID string    `json:"therapist_id" gorm:"type:uuid;not null;index"`
	PatientID   string    `json:"patient_id" gorm:"type:uuid;not null;uniqueIndex"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

func (tp *TherapistPatient) BeforeCreate(tx *gorm.DB) error {
	if tp.ID == "" {
		tp.ID = uuid.NewString()
	}
	return nil
}
