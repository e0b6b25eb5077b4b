package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CrisisPlan holds a patient's emergency plan. At most one per profile.
type CrisisPlan struct {
	ID                string    `json:"id" gorm:"type:uuid;primaryKey"`
	PatientID         string    `json:"patient_id" gorm:"type:uuid;not null;uniqueIndex"`
	WarningSigns      string    `json:"warning_signs" gorm:"type:text"`
	CopingStrategies  string    `json:"coping_strategies" gorm:"type:text"`
	EmergencyContacts string    `json:"emergency_contacts" gorm:"type:text"` // JSON array
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (p *CrisisPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
