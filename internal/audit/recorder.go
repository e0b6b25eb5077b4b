// Package audit appends immutable operation records. One entry per logical
// admin operation, never per affected row, so audit volume tracks admin
// actions rather than data volume.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
	"github.com/lucasvrm/bipolar-api-sub002/internal/store"
)

// Recorder writes append-only audit entries. It never updates or deletes an
// existing entry.
type Recorder struct {
	store store.Store
	log   *zap.Logger
}

func NewRecorder(st store.Store, log *zap.Logger) *Recorder {
	return &Recorder{store: st, log: log}
}

// Record appends one audit entry and returns its id.
func (r *Recorder) Record(ctx context.Context, action, performedBy string, userID *string, details map[string]any) (string, error) {
	if strings.TrimSpace(action) == "" {
		return "", apperr.NewValidation("action", "must not be empty")
	}
	if performedBy == "" {
		return "", apperr.NewValidation("performed_by", "must not be empty")
	}

	entry := &model.AuditLog{
		Action:      action,
		PerformedBy: performedBy,
		UserID:      userID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return "", fmt.Errorf("failed to encode audit details: %w", err)
		}
		entry.Details = string(raw)
	}

	if err := r.store.CreateAuditLog(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to write audit entry: %w", err)
	}
	return entry.ID, nil
}

// RecordBestEffort appends an entry and only logs on failure. Audit is
// observability, not a transactional participant: a failed audit write never
// invalidates the data mutation it describes.
func (r *Recorder) RecordBestEffort(ctx context.Context, action, performedBy string, userID *string, details map[string]any) {
	if _, err := r.Record(ctx, action, performedBy, userID, details); err != nil {
		r.log.Warn("Audit write failed",
			zap.String("action", action),
			zap.Error(err))
	}
}
