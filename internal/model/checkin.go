package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bounds for the 0-10 scale fields below.
const (
	ScaleMin = 0
	ScaleMax = 10
)

// CheckIn is a single mood check-in belonging to one patient. A patient may
// record several check-ins per day; Date carries the calendar day and EntryAt
// the moment within it.
type CheckIn struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	PatientID string    `json:"patient_id" gorm:"type:uuid;not null;index"`
	Date      time.Time `json:"date" gorm:"type:date;not null;index"`
	EntryAt   time.Time `json:"entry_at" gorm:"not null"`

	// Sleep
	SleepHours   float64 `json:"sleep_hours"`
	SleepQuality int     `json:"sleep_quality"` // 0-10

	// Mood
	MoodScore   int `json:"mood_score"`   // 0-10, 5 = euthymic
	EnergyLevel int `json:"energy_level"` // 0-10

	// Symptoms
	Anxiety      int `json:"anxiety"`      // 0-10
	Irritability int `json:"irritability"` // 0-10

	// Risk and routine
	RiskyBehavior int `json:"risky_behavior"` // 0-10
	RoutineScore  int `json:"routine_score"`  // 0-10

	// Appetite and impulse
	Appetite    int `json:"appetite"`    // 0-10
	Impulsivity int `json:"impulsivity"` // 0-10

	// Medication and context
	MedsTaken   bool   `json:"meds_taken"`
	ContextNote string `json:"context_note,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

func (ci *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == "" {
		ci.ID = uuid.NewString()
	}
	return nil
}
