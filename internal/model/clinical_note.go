package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicalNote is authored by a therapist about a patient. It is owned by
// both profiles: deleting either one removes the note.
type ClinicalNote struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	TherapistID string    `json:"therapist_id" gorm:"type:uuid;not null;index"`
	PatientID   string    `json:"patient_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"type:varchar(255)"`
	Body        string    `json:"body" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (n *ClinicalNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
