package testdata

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/internal/audit"
	"github.com/lucasvrm/bipolar-api-sub002/internal/identity"
	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
	"github.com/lucasvrm/bipolar-api-sub002/internal/safety"
	"github.com/lucasvrm/bipolar-api-sub002/internal/store"
)

// Provisioner creates batches of synthetic identities and check-ins. Batch
// items run sequentially and best-effort: one failed item never aborts the
// rest, and the result reports achieved counts, not requested ones.
type Provisioner struct {
	store    store.Store
	identity identity.Provider
	guard    *safety.Guard
	recorder *audit.Recorder
	log      *zap.Logger
}

func NewProvisioner(st store.Store, idp identity.Provider, guard *safety.Guard, rec *audit.Recorder, log *zap.Logger) *Provisioner {
	return &Provisioner{store: st, identity: idp, guard: guard, recorder: rec, log: log}
}

// ProvisionUsersParams describes one bulk user creation request.
type ProvisionUsersParams struct {
	Role                 string
	Count                int
	IsTestPatient        bool
	Source               string
	AutoAssignTherapists bool
	PerformedBy          string
}

// UserOutcome is the tagged per-item result of a batch creation: either a
// created principal id or the failure reason.
type UserOutcome struct {
	ID  string `json:"id,omitempty"`
	Err string `json:"error,omitempty"`
}

// ProvisionUsersResult reports what the batch actually achieved. Callers
// must compare UsersCreated against Requested; a shortfall is a partial
// failure encoded here, not an error.
type ProvisionUsersResult struct {
	Requested          int           `json:"requested"`
	UsersCreated       int           `json:"users_created"`
	UserIDs            []string      `json:"user_ids"`
	TherapistsAssigned int           `json:"therapists_assigned"`
	Outcomes           []UserOutcome `json:"outcomes"`
}

// ProvisionUsers creates Count synthetic users of the given role.
func (p *Provisioner) ProvisionUsers(ctx context.Context, params ProvisionUsersParams) (*ProvisionUsersResult, error) {
	if params.Count <= 0 {
		return nil, apperr.NewValidation("count", "must be positive")
	}
	if params.Role != model.RolePatient && params.Role != model.RoleTherapist {
		return nil, apperr.NewValidation("role", "must be patient or therapist")
	}
	source := params.Source
	if source == "" {
		source = model.SourceSynthetic
	}

	if err := p.guard.AuthorizeUserProvision(params.Role, params.Count); err != nil {
		return nil, err
	}

	result := &ProvisionUsersResult{
		Requested: params.Count,
		UserIDs:   []string{},
		Outcomes:  make([]UserOutcome, 0, params.Count),
	}

	for i := 0; i < params.Count; i++ {
		id, err := p.createOne(ctx, params.Role, params.IsTestPatient, source, i)
		if err != nil {
			p.log.Warn("Synthetic user creation failed, continuing with batch",
				zap.Int("index", i),
				zap.Error(err))
			result.Outcomes = append(result.Outcomes, UserOutcome{Err: err.Error()})
			continue
		}
		result.Outcomes = append(result.Outcomes, UserOutcome{ID: id})
		result.UserIDs = append(result.UserIDs, id)
		result.UsersCreated++
	}

	if params.AutoAssignTherapists && params.Role == model.RolePatient {
		result.TherapistsAssigned = p.assignTherapists(ctx, result.UserIDs)
	}

	p.recorder.RecordBestEffort(ctx, "synthetic_provision_users", params.PerformedBy, nil, map[string]any{
		"role":                   params.Role,
		"requested":              params.Count,
		"users_created":          result.UsersCreated,
		"is_test_patient":        params.IsTestPatient,
		"source":                 source,
		"auto_assign_therapists": params.AutoAssignTherapists,
		"therapists_assigned":    result.TherapistsAssigned,
	})

	return result, nil
}

// createOne makes the identity principal first, then the profile row. A
// profile failure rolls the principal back so the identity provider does not
// accumulate orphans.
func (p *Provisioner) createOne(ctx context.Context, role string, isTest bool, source string, index int) (string, error) {
	tag := uuid.NewString()[:8]
	email := fmt.Sprintf("synthetic-%s-%s@test.invalid", role, tag)

	id, err := p.identity.CreateUser(ctx, identity.NewUser{
		Email:    email,
		Password: randomPassword(),
		FullName: fmt.Sprintf("Synthetic %s %s", role, tag),
	})
	if err != nil {
		return "", fmt.Errorf("identity creation failed: %w", err)
	}

	profile := &model.Profile{
		ID:            id,
		Email:         email,
		FullName:      fmt.Sprintf("Synthetic %s %s", role, tag),
		Role:          role,
		IsTestPatient: isTest,
		Source:        source,
	}
	if err := p.store.CreateProfile(ctx, profile); err != nil {
		if delErr := p.identity.DeleteUser(ctx, id); delErr != nil {
			p.log.Warn("Failed to roll back identity principal",
				zap.String("principal_id", id),
				zap.Error(delErr))
		}
		return "", fmt.Errorf("profile creation failed: %w", err)
	}
	return id, nil
}

// assignTherapists links each new patient to an existing therapist. Missing
// therapists fail soft: the patients stay unassigned and the gap is logged.
func (p *Provisioner) assignTherapists(ctx context.Context, patientIDs []string) int {
	therapist, err := p.store.FindTherapist(ctx)
	if err != nil {
		p.log.Warn("Therapist lookup failed, skipping auto-assignment", zap.Error(err))
		return 0
	}
	if therapist == nil {
		p.log.Warn("No therapist available, skipping auto-assignment",
			zap.Int("patients", len(patientIDs)))
		return 0
	}

	assigned := 0
	for _, patientID := range patientIDs {
		has, err := p.store.HasTherapist(ctx, patientID)
		if err != nil || has {
			continue
		}
		link := &model.TherapistPatient{
			TherapistID: therapist.ID,
			PatientID:   patientID,
			Active:      true,
		}
		if err := p.store.CreateTherapistPatient(ctx, link); err != nil {
			p.log.Warn("Therapist assignment failed",
				zap.String("patient_id", patientID),
				zap.Error(err))
			continue
		}
		assigned++
	}
	return assigned
}

// ProvisionCheckInsParams describes one bulk check-in generation request.
// Targets are either the explicit UserIDs or, when empty, every live test
// patient at call time. The window is either [StartDate, EndDate) or the
// LastNDays ending today.
type ProvisionCheckInsParams struct {
	UserIDs         []string
	StartDate       time.Time
	EndDate         time.Time
	LastNDays       int
	PerDayMin       int
	PerDayMax       int
	Pattern         string
	PhaseLengthDays int
	Seed            *int64
	PerformedBy     string
}

// ProvisionCheckInsResult reports the generated volume.
type ProvisionCheckInsResult struct {
	CreatedCount    int64    `json:"created_count"`
	UsersAffected   int      `json:"users_affected"`
	AffectedUserIDs []string `json:"affected_user_ids"`
	Pattern         string   `json:"pattern"`
	Days            int      `json:"days"`
}

// ProvisionCheckIns generates pattern-shaped check-ins for each target user.
func (p *Provisioner) ProvisionCheckIns(ctx context.Context, params ProvisionCheckInsParams) (*ProvisionCheckInsResult, error) {
	pattern, err := ParsePattern(params.Pattern)
	if err != nil {
		return nil, err
	}

	var start time.Time
	var days int
	if params.LastNDays > 0 {
		days = params.LastNDays
		start = dayStart(time.Now().UTC()).AddDate(0, 0, -(days - 1))
	} else {
		start = params.StartDate
		days, err = DaysInRange(params.StartDate, params.EndDate)
		if err != nil {
			return nil, err
		}
	}

	targets := params.UserIDs
	if len(targets) == 0 {
		targets, err = p.store.TestPatientIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve test patients: %w", err)
		}
	}

	if err := p.guard.AuthorizeCheckInProvision(days * params.PerDayMax); err != nil {
		return nil, err
	}

	result := &ProvisionCheckInsResult{
		Pattern:         string(pattern),
		Days:            days,
		AffectedUserIDs: []string{},
	}

	for i, userID := range targets {
		spec := GeneratorSpec{
			PatientID:       userID,
			Start:           start,
			Days:            days,
			PerDayMin:       params.PerDayMin,
			PerDayMax:       params.PerDayMax,
			Pattern:         pattern,
			PhaseLengthDays: params.PhaseLengthDays,
		}
		if params.Seed != nil {
			// Offset per user so seeded runs stay reproducible without
			// every patient getting an identical series.
			userSeed := *params.Seed + int64(i)
			spec.Seed = &userSeed
		}

		seq, err := NewSequence(spec)
		if err != nil {
			return nil, err
		}
		n, err := p.store.CreateCheckIns(ctx, seq.Collect())
		if err != nil {
			p.log.Warn("Check-in insert failed, continuing with remaining users",
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		result.CreatedCount += n
		result.AffectedUserIDs = append(result.AffectedUserIDs, userID)
		result.UsersAffected++
	}

	p.recorder.RecordBestEffort(ctx, "synthetic_generate", params.PerformedBy, nil, map[string]any{
		"pattern":              string(pattern),
		"days":                 days,
		"checkins_per_day_min": params.PerDayMin,
		"checkins_per_day_max": params.PerDayMax,
		"targets":              len(targets),
		"users_affected":       result.UsersAffected,
		"created_count":        result.CreatedCount,
	})

	return result, nil
}

// randomPassword returns a throwaway credential for a synthetic principal.
func randomPassword() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
