package testdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/audit"
	"github.com/lucasvrm/bipolar-api-sub002/internal/safety"
	"github.com/lucasvrm/bipolar-api-sub002/internal/store"
)

// sampleUserIDLimit bounds the ids returned for the external
// identity-provider cleanup step.
const sampleUserIDLimit = 5

// Cascade deletes test data (and, for full clears, all domain data) in a
// strict multi-table order: therapist links, clinical notes, check-ins,
// crisis plans, then profiles. The audit log goes last and only on request.
//
// Each call runs inside one store transaction; there is no isolation across
// calls. A dry run followed by an execute is therefore not atomic: counts
// can drift if another writer commits in between. Callers needing
// exactly-once semantics must serialize externally.
type Cascade struct {
	store    store.Store
	guard    *safety.Guard
	recorder *audit.Recorder
	log      *zap.Logger
}

func NewCascade(st store.Store, guard *safety.Guard, rec *audit.Recorder, log *zap.Logger) *Cascade {
	return &Cascade{store: st, guard: guard, recorder: rec, log: log}
}

// DeleteTestUsersParams selects which test users to remove. Only profiles
// with is_test_patient and no soft-delete marker are ever considered.
type DeleteTestUsersParams struct {
	DryRun      bool
	Before      *time.Time
	Limit       int
	PerformedBy string
}

// DeleteTestUsersStats reports per-table deletion (or preview) counts.
type DeleteTestUsersStats struct {
	DryRun                   bool     `json:"dry_run"`
	DeletedProfiles          int64    `json:"deleted_profiles"`
	DeletedCheckIns          int64    `json:"deleted_check_ins"`
	DeletedClinicalNotes     int64    `json:"deleted_clinical_notes"`
	DeletedCrisisPlans       int64    `json:"deleted_crisis_plans"`
	DeletedTherapistPatients int64    `json:"deleted_therapist_patients"`
	SampleUserIDs            []string `json:"sample_user_ids"`
	ExecutionTimeMS          int64    `json:"execution_time_ms"`
}

// cascadeStep pairs the preview and execute form of one table's deletion.
// The slice below is the ordering invariant; do not reorder it.
type cascadeStep struct {
	count func(ctx context.Context, tx store.Store, ids []string) (int64, error)
	del   func(ctx context.Context, tx store.Store, ids []string) (int64, error)
	dest  func(stats *DeleteTestUsersStats) *int64
}

var deleteOrder = []cascadeStep{
	{
		count: func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.CountLinksFor(ctx, ids) },
		del:   func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.DeleteLinksFor(ctx, ids) },
		dest:  func(s *DeleteTestUsersStats) *int64 { return &s.DeletedTherapistPatients },
	},
	{
		count: func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.CountNotesFor(ctx, ids) },
		del:   func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.DeleteNotesFor(ctx, ids) },
		dest:  func(s *DeleteTestUsersStats) *int64 { return &s.DeletedClinicalNotes },
	},
	{
		count: func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.CountCheckInsFor(ctx, ids) },
		del:   func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.DeleteCheckInsFor(ctx, ids) },
		dest:  func(s *DeleteTestUsersStats) *int64 { return &s.DeletedCheckIns },
	},
	{
		count: func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.CountCrisisPlansFor(ctx, ids) },
		del:   func(ctx context.Context, tx store.Store, ids []string) (int64, error) { return tx.DeleteCrisisPlansFor(ctx, ids) },
		dest:  func(s *DeleteTestUsersStats) *int64 { return &s.DeletedCrisisPlans },
	},
}

// DeleteTestUsers removes test users and everything they own, or previews
// the removal when DryRun is set. The identity-provider principals of the
// deleted users are NOT touched: SampleUserIDs drives that external
// follow-up.
func (c *Cascade) DeleteTestUsers(ctx context.Context, params DeleteTestUsersParams) (*DeleteTestUsersStats, error) {
	start := time.Now()
	stats := &DeleteTestUsersStats{
		DryRun:        params.DryRun,
		SampleUserIDs: []string{},
	}

	err := c.store.WithTx(ctx, func(tx store.Store) error {
		targets, err := tx.TestPatients(ctx, params.Before, params.Limit)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return nil
		}

		ids := make([]string, 0, len(targets))
		for _, t := range targets {
			ids = append(ids, t.ID)
		}
		for _, id := range ids {
			if len(stats.SampleUserIDs) == sampleUserIDLimit {
				break
			}
			stats.SampleUserIDs = append(stats.SampleUserIDs, id)
		}

		for _, step := range deleteOrder {
			var n int64
			if params.DryRun {
				n, err = step.count(ctx, tx, ids)
			} else {
				n, err = step.del(ctx, tx, ids)
			}
			if err != nil {
				return err
			}
			*step.dest(stats) += n
		}

		if params.DryRun {
			stats.DeletedProfiles = int64(len(ids))
			return nil
		}
		stats.DeletedProfiles, err = tx.HardDeleteProfiles(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats.ExecutionTimeMS = time.Since(start).Milliseconds()

	if !params.DryRun {
		c.log.Info("Deleted test users",
			zap.Int64("profiles", stats.DeletedProfiles),
			zap.Int64("check_ins", stats.DeletedCheckIns),
			zap.Int64("execution_time_ms", stats.ExecutionTimeMS))
		c.recorder.RecordBestEffort(ctx, "delete_test_users", params.PerformedBy, nil, map[string]any{
			"deleted_profiles":           stats.DeletedProfiles,
			"deleted_check_ins":          stats.DeletedCheckIns,
			"deleted_clinical_notes":     stats.DeletedClinicalNotes,
			"deleted_crisis_plans":       stats.DeletedCrisisPlans,
			"deleted_therapist_patients": stats.DeletedTherapistPatients,
			"execution_time_ms":          stats.ExecutionTimeMS,
		})
	}

	return stats, nil
}

// ClearDatabaseParams controls the full environment reset. The domain wipe
// covers ALL profiles' data regardless of the test flag; only the profile
// table itself gets the test/normal split. That asymmetry against
// DeleteTestUsers is intentional: full reset versus targeted test cleanup.
type ClearDatabaseParams struct {
	DryRun                bool
	DeleteTestUsers       bool
	SoftDeleteNormalUsers bool
	ClearAuditLog         bool
	ClearDomainDataOnly   bool
	Confirm               bool
	ConfirmationPhrase    string
	PerformedBy           string
}

// ClearDatabaseOptions echoes the requested flags back in the stats.
type ClearDatabaseOptions struct {
	DeleteTestUsers       bool `json:"delete_test_users"`
	SoftDeleteNormalUsers bool `json:"soft_delete_normal_users"`
	ClearAuditLog         bool `json:"clear_audit_log"`
	ClearDomainDataOnly   bool `json:"clear_domain_data_only"`
}

// ClearDatabaseStats reports what a full clear removed (or would remove).
type ClearDatabaseStats struct {
	DryRun                   bool                 `json:"dry_run"`
	ClearedTherapistPatients int64                `json:"cleared_therapist_patients"`
	ClearedClinicalNotes     int64                `json:"cleared_clinical_notes"`
	ClearedCheckIns          int64                `json:"cleared_check_ins"`
	ClearedCrisisPlans       int64                `json:"cleared_crisis_plans"`
	DeletedTestProfiles      int64                `json:"deleted_test_profiles"`
	SoftDeletedNormalUsers   int64                `json:"soft_deleted_normal_users"`
	ClearedAuditLogs         int64                `json:"cleared_audit_logs"`
	ExecutionTimeMS          int64                `json:"execution_time_ms"`
	Options                  ClearDatabaseOptions `json:"options"`
}

// ClearDatabase wipes the four domain tables for every profile, then applies
// the hard/soft split to the profile table unless ClearDomainDataOnly is
// set. The guard's opt-in flag and confirmation phrase are checked before
// any write; a dry run needs neither since it mutates nothing.
func (c *Cascade) ClearDatabase(ctx context.Context, params ClearDatabaseParams) (*ClearDatabaseStats, error) {
	if !params.DryRun {
		if err := c.guard.AuthorizeFullClear(params.Confirm, params.ConfirmationPhrase); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	stats := &ClearDatabaseStats{
		DryRun: params.DryRun,
		Options: ClearDatabaseOptions{
			DeleteTestUsers:       params.DeleteTestUsers,
			SoftDeleteNormalUsers: params.SoftDeleteNormalUsers,
			ClearAuditLog:         params.ClearAuditLog,
			ClearDomainDataOnly:   params.ClearDomainDataOnly,
		},
	}

	err := c.store.WithTx(ctx, func(tx store.Store) error {
		// Domain wipe, same table order as the targeted cascade.
		wipes := []struct {
			count func(context.Context) (int64, error)
			del   func(context.Context) (int64, error)
			dest  *int64
		}{
			{tx.CountAllLinks, tx.DeleteAllLinks, &stats.ClearedTherapistPatients},
			{tx.CountAllNotes, tx.DeleteAllNotes, &stats.ClearedClinicalNotes},
			{tx.CountAllCheckIns, tx.DeleteAllCheckIns, &stats.ClearedCheckIns},
			{tx.CountAllCrisisPlans, tx.DeleteAllCrisisPlans, &stats.ClearedCrisisPlans},
		}
		for _, w := range wipes {
			var n int64
			var err error
			if params.DryRun {
				n, err = w.count(ctx)
			} else {
				n, err = w.del(ctx)
			}
			if err != nil {
				return err
			}
			*w.dest = n
		}

		if !params.ClearDomainDataOnly {
			if params.DeleteTestUsers {
				var n int64
				var err error
				if params.DryRun {
					n, err = tx.CountTestProfiles(ctx)
				} else {
					n, err = tx.DeleteAllTestProfiles(ctx)
				}
				if err != nil {
					return err
				}
				stats.DeletedTestProfiles = n
			}
			if params.SoftDeleteNormalUsers {
				var n int64
				var err error
				if params.DryRun {
					n, err = tx.CountSoftDeletableProfiles(ctx)
				} else {
					n, err = tx.SoftDeleteProfiles(ctx, time.Now().UTC())
				}
				if err != nil {
					return err
				}
				stats.SoftDeletedNormalUsers = n
			}
		}

		if params.ClearAuditLog {
			var n int64
			var err error
			if params.DryRun {
				n, err = tx.CountAuditLogs(ctx)
			} else {
				n, err = tx.DeleteAllAuditLogs(ctx)
			}
			if err != nil {
				return err
			}
			stats.ClearedAuditLogs = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.ExecutionTimeMS = time.Since(start).Milliseconds()

	if !params.DryRun {
		c.log.Info("Cleared database",
			zap.Int64("check_ins", stats.ClearedCheckIns),
			zap.Int64("test_profiles", stats.DeletedTestProfiles),
			zap.Int64("soft_deleted", stats.SoftDeletedNormalUsers),
			zap.Int64("execution_time_ms", stats.ExecutionTimeMS))
		c.recorder.RecordBestEffort(ctx, "clear_database", params.PerformedBy, nil, map[string]any{
			"cleared_therapist_patients": stats.ClearedTherapistPatients,
			"cleared_clinical_notes":     stats.ClearedClinicalNotes,
			"cleared_check_ins":          stats.ClearedCheckIns,
			"cleared_crisis_plans":       stats.ClearedCrisisPlans,
			"deleted_test_profiles":      stats.DeletedTestProfiles,
			"soft_deleted_normal_users":  stats.SoftDeletedNormalUsers,
			"cleared_audit_logs":         stats.ClearedAuditLogs,
			"execution_time_ms":          stats.ExecutionTimeMS,
		})
	}

	return stats, nil
}
