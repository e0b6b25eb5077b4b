package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
)

// pgFKViolationCode is the Postgres SQLSTATE class for foreign key violations.
const pgFKViolationCode = "23503"

type gormStore struct {
	db *gorm.DB
}

var _ Store = (*gormStore)(nil)

// NewGormStore wraps a GORM handle in the Store interface.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// fkCheck translates Postgres foreign key violations into the typed error
// the engines abort on. Other errors pass through unchanged.
func fkCheck(table string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgFKViolationCode {
		return &apperr.ReferentialIntegrityError{Table: table, Err: err}
	}
	return err
}

// Profiles

func (s *gormStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) TestPatients(ctx context.Context, before *time.Time, limit int) ([]model.Profile, error) {
	q := s.db.WithContext(ctx).
		Where("is_test_patient = ? AND deleted_at IS NULL", true).
		Order("created_at ASC")
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []model.Profile
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gormStore) TestPatientIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("is_test_patient = ? AND deleted_at IS NULL", true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *gormStore) CountTestProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("is_test_patient = ?", true).
		Count(&n).Error
	return n, err
}

func (s *gormStore) FindTherapist(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).
		Where("role = ? AND deleted_at IS NULL", model.RoleTherapist).
		Order("created_at ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) HardDeleteProfiles(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Profile{})
	return res.RowsAffected, fkCheck("profiles", res.Error)
}

func (s *gormStore) DeleteAllTestProfiles(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_test_patient = ?", true).
		Delete(&model.Profile{})
	return res.RowsAffected, fkCheck("profiles", res.Error)
}

func (s *gormStore) CountSoftDeletableProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("is_test_patient = ? AND deleted_at IS NULL", false).
		Count(&n).Error
	return n, err
}

func (s *gormStore) SoftDeleteProfiles(ctx context.Context, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Profile{}).
		Where("is_test_patient = ? AND deleted_at IS NULL", false).
		Updates(map[string]interface{}{
			"deleted_at":            at,
			"deletion_scheduled_at": at,
			"updated_at":            at,
		})
	return res.RowsAffected, res.Error
}

// Therapist-patient links

func (s *gormStore) CreateTherapistPatient(ctx context.Context, link *model.TherapistPatient) error {
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *gormStore) HasTherapist(ctx context.Context, patientID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.TherapistPatient{}).
		Where("patient_id = ?", patientID).
		Count(&n).Error
	return n > 0, err
}

func (s *gormStore) CountLinksFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&model.TherapistPatient{}).
		Where("therapist_id IN ? OR patient_id IN ?", profileIDs, profileIDs).
		Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteLinksFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("therapist_id IN ? OR patient_id IN ?", profileIDs, profileIDs).
		Delete(&model.TherapistPatient{})
	return res.RowsAffected, fkCheck("therapist_patients", res.Error)
}

func (s *gormStore) CountAllLinks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.TherapistPatient{}).Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteAllLinks(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.TherapistPatient{})
	return res.RowsAffected, fkCheck("therapist_patients", res.Error)
}

// Clinical notes

func (s *gormStore) CountNotesFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&model.ClinicalNote{}).
		Where("therapist_id IN ? OR patient_id IN ?", profileIDs, profileIDs).
		Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteNotesFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("therapist_id IN ? OR patient_id IN ?", profileIDs, profileIDs).
		Delete(&model.ClinicalNote{})
	return res.RowsAffected, fkCheck("clinical_notes", res.Error)
}

func (s *gormStore) CountAllNotes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.ClinicalNote{}).Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteAllNotes(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.ClinicalNote{})
	return res.RowsAffected, fkCheck("clinical_notes", res.Error)
}

// Check-ins

func (s *gormStore) CreateCheckIns(ctx context.Context, rows []model.CheckIn) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).CreateInBatches(rows, 200)
	return res.RowsAffected, res.Error
}

func (s *gormStore) CountCheckInsFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CheckIn{}).
		Where("patient_id IN ?", profileIDs).
		Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteCheckInsFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("patient_id IN ?", profileIDs).
		Delete(&model.CheckIn{})
	return res.RowsAffected, fkCheck("check_ins", res.Error)
}

func (s *gormStore) CountAllCheckIns(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CheckIn{}).Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteAllCheckIns(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.CheckIn{})
	return res.RowsAffected, fkCheck("check_ins", res.Error)
}

// Crisis plans

func (s *gormStore) CountCrisisPlansFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CrisisPlan{}).
		Where("patient_id IN ?", profileIDs).
		Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteCrisisPlansFor(ctx context.Context, profileIDs []string) (int64, error) {
	if len(profileIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("patient_id IN ?", profileIDs).
		Delete(&model.CrisisPlan{})
	return res.RowsAffected, fkCheck("crisis_plans", res.Error)
}

func (s *gormStore) CountAllCrisisPlans(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CrisisPlan{}).Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteAllCrisisPlans(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.CrisisPlan{})
	return res.RowsAffected, fkCheck("crisis_plans", res.Error)
}

// Audit log

func (s *gormStore) CreateAuditLog(ctx context.Context, entry *model.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormStore) CountAuditLogs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.AuditLog{}).Count(&n).Error
	return n, err
}

func (s *gormStore) DeleteAllAuditLogs(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}
