// Package store abstracts the relational store behind an interface so the
// lifecycle engines can be wired to Postgres in deployment and to the
// in-memory implementation in tests and DB-disabled development mode.
package store

import (
	"context"
	"time"

	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
)

// Store is the persistence contract consumed by the provisioning, cascade
// and audit components. Every method runs in its own implicit transaction
// unless called on the Store handed to a WithTx callback.
type Store interface {
	// WithTx runs fn inside one transaction. If fn returns an error the
	// transaction is rolled back and no partial writes remain.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Profiles
	CreateProfile(ctx context.Context, p *model.Profile) error
	// TestPatients returns live test patients (is_test_patient and no
	// soft-delete marker), created strictly before the optional cutoff,
	// ordered by creation time ascending, capped at limit when limit > 0.
	TestPatients(ctx context.Context, before *time.Time, limit int) ([]model.Profile, error)
	TestPatientIDs(ctx context.Context) ([]string, error)
	CountTestProfiles(ctx context.Context) (int64, error)
	// FindTherapist returns any live therapist profile, or nil when none exists.
	FindTherapist(ctx context.Context) (*model.Profile, error)
	HardDeleteProfiles(ctx context.Context, ids []string) (int64, error)
	DeleteAllTestProfiles(ctx context.Context) (int64, error)
	// CountSoftDeletableProfiles counts non-test profiles with no
	// soft-delete marker yet.
	CountSoftDeletableProfiles(ctx context.Context) (int64, error)
	// SoftDeleteProfiles marks every non-test profile without a marker as
	// deleted at the given time. Already-marked rows are untouched.
	SoftDeleteProfiles(ctx context.Context, at time.Time) (int64, error)

	// Therapist-patient links
	CreateTherapistPatient(ctx context.Context, link *model.TherapistPatient) error
	HasTherapist(ctx context.Context, patientID string) (bool, error)
	CountLinksFor(ctx context.Context, profileIDs []string) (int64, error)
	DeleteLinksFor(ctx context.Context, profileIDs []string) (int64, error)
	CountAllLinks(ctx context.Context) (int64, error)
	DeleteAllLinks(ctx context.Context) (int64, error)

	// Clinical notes (owned by therapist and patient; profileIDs match either side)
	CountNotesFor(ctx context.Context, profileIDs []string) (int64, error)
	DeleteNotesFor(ctx context.Context, profileIDs []string) (int64, error)
	CountAllNotes(ctx context.Context) (int64, error)
	DeleteAllNotes(ctx context.Context) (int64, error)

	// Check-ins
	CreateCheckIns(ctx context.Context, rows []model.CheckIn) (int64, error)
	CountCheckInsFor(ctx context.Context, profileIDs []string) (int64, error)
	DeleteCheckInsFor(ctx context.Context, profileIDs []string) (int64, error)
	CountAllCheckIns(ctx context.Context) (int64, error)
	DeleteAllCheckIns(ctx context.Context) (int64, error)

	// Crisis plans
	CountCrisisPlansFor(ctx context.Context, profileIDs []string) (int64, error)
	DeleteCrisisPlansFor(ctx context.Context, profileIDs []string) (int64, error)
	CountAllCrisisPlans(ctx context.Context) (int64, error)
	DeleteAllCrisisPlans(ctx context.Context) (int64, error)

	// Audit log (append-only; DeleteAllAuditLogs backs the explicit opt-in only)
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
	CountAuditLogs(ctx context.Context) (int64, error)
	DeleteAllAuditLogs(ctx context.Context) (int64, error)
}
