package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/middleware"
	"github.com/lucasvrm/bipolar-api-sub002/internal/testdata"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/logger"
	"github.com/lucasvrm/bipolar-api-sub002/prometheus"
)

// MaintenanceHandler exposes the cascade deletion operations. Both endpoints
// default dry_run to true: an absent flag can never trigger a mutation.
type MaintenanceHandler struct {
	cascade *testdata.Cascade
}

func NewMaintenanceHandler(cascade *testdata.Cascade) *MaintenanceHandler {
	return &MaintenanceHandler{cascade: cascade}
}

// DeleteTestUsers previews or executes the test-user cascade
func (h *MaintenanceHandler) DeleteTestUsers(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		DryRun     *bool  `json:"dry_run"`
		BeforeDate string `json:"before_date"`
		Limit      int    `json:"limit"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse delete request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	params := testdata.DeleteTestUsersParams{
		DryRun: req.DryRun == nil || *req.DryRun,
		Limit:  req.Limit,
	}
	if req.BeforeDate != "" {
		before, err := time.Parse(dateLayout, req.BeforeDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":             "invalid_request",
				"error_description": "before_date must be YYYY-MM-DD",
			})
		}
		params.Before = &before
	}
	params.PerformedBy, _ = middleware.AdminIDFromContext(c)

	defer prometheus.TrackDBOperation("delete")(time.Now())

	stats, err := h.cascade.DeleteTestUsers(c.Request().Context(), params)
	if err != nil {
		log.Error("Test user deletion failed", zap.Error(err))
		return engineError(c, err)
	}

	prometheus.RecordDeletionRun("delete_test_users", stats.DryRun, stats.ExecutionTimeMS)
	if !stats.DryRun {
		prometheus.RowsDeletedCounter.WithLabelValues("profiles").Add(float64(stats.DeletedProfiles))
		prometheus.RowsDeletedCounter.WithLabelValues("check_ins").Add(float64(stats.DeletedCheckIns))
		prometheus.RowsDeletedCounter.WithLabelValues("clinical_notes").Add(float64(stats.DeletedClinicalNotes))
		prometheus.RowsDeletedCounter.WithLabelValues("crisis_plans").Add(float64(stats.DeletedCrisisPlans))
		prometheus.RowsDeletedCounter.WithLabelValues("therapist_patients").Add(float64(stats.DeletedTherapistPatients))
	}

	return c.JSON(http.StatusOK, stats)
}

// ClearDatabase previews or executes the full environment reset
func (h *MaintenanceHandler) ClearDatabase(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		DryRun                *bool  `json:"dry_run"`
		DeleteTestUsers       *bool  `json:"delete_test_users"`
		SoftDeleteNormalUsers bool   `json:"soft_delete_normal_users"`
		ClearAuditLog         bool   `json:"clear_audit_log"`
		ClearDomainDataOnly   bool   `json:"clear_domain_data_only"`
		Confirm               bool   `json:"confirm"`
		ConfirmationPhrase    string `json:"confirmation_phrase"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse clear request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	performedBy, _ := middleware.AdminIDFromContext(c)
	params := testdata.ClearDatabaseParams{
		DryRun:                req.DryRun == nil || *req.DryRun,
		DeleteTestUsers:       req.DeleteTestUsers == nil || *req.DeleteTestUsers,
		SoftDeleteNormalUsers: req.SoftDeleteNormalUsers,
		ClearAuditLog:         req.ClearAuditLog,
		ClearDomainDataOnly:   req.ClearDomainDataOnly,
		Confirm:               req.Confirm,
		ConfirmationPhrase:    req.ConfirmationPhrase,
		PerformedBy:           performedBy,
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	stats, err := h.cascade.ClearDatabase(c.Request().Context(), params)
	if err != nil {
		log.Error("Database clear failed", zap.Error(err))
		return engineError(c, err)
	}

	prometheus.RecordDeletionRun("clear_database", stats.DryRun, stats.ExecutionTimeMS)

	return c.JSON(http.StatusOK, stats)
}
