package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile roles
const (
	RolePatient   = "patient"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)

// Profile creation sources
const (
	SourceAdminManual = "admin_manual"
	SourceSynthetic   = "synthetic"
	SourceSignup      = "signup"
	SourceUnknown     = "unknown"
)

// Profile represents an application user. The ID matches the identity
// provider's principal id for the same user.
//
// DeletedAt is a plain nullable timestamp managed by the deletion engine,
// not gorm.DeletedAt: the bulk engine has to read, count and hard-delete
// rows regardless of the soft-delete marker, and GORM's implicit soft-delete
// scoping would have to be unscoped away on almost every query.
type Profile struct {
	ID                  string     `json:"id" gorm:"type:uuid;primaryKey"`
	Email               string     `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	FullName            string     `json:"full_name" gorm:"type:varchar(255)"`
	Role                string     `json:"role" gorm:"type:varchar(20);not null;default:'patient';index"`
	IsTestPatient       bool       `json:"is_test_patient" gorm:"not null;default:false;index"`
	Source              string     `json:"source" gorm:"type:varchar(20);not null;default:'unknown'"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
	DeletionScheduledAt *time.Time `json:"deletion_scheduled_at,omitempty"`
	DeletionToken       string     `json:"-" gorm:"type:varchar(255)"`
	CreatedAt           time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an id when none was supplied by the identity provider
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsSoftDeleted reports whether the profile carries the soft-delete marker
func (p *Profile) IsSoftDeleted() bool {
	return p.DeletedAt != nil
}
