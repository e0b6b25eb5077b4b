package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/audit"
	"github.com/lucasvrm/bipolar-api-sub002/internal/middleware"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/logger"
	"github.com/lucasvrm/bipolar-api-sub002/prometheus"
)

// AuditHandler exposes the log_admin_action operation.
type AuditHandler struct {
	recorder *audit.Recorder
}

func NewAuditHandler(rec *audit.Recorder) *AuditHandler {
	return &AuditHandler{recorder: rec}
}

// LogAdminAction appends one audit entry
func (h *AuditHandler) LogAdminAction(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Action  string         `json:"action"`
		UserID  *string        `json:"user_id"`
		Details map[string]any `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse audit request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	performedBy, _ := middleware.AdminIDFromContext(c)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	entryID, err := h.recorder.Record(c.Request().Context(), req.Action, performedBy, req.UserID, req.Details)
	if err != nil {
		log.Error("Audit write failed", zap.Error(err))
		return engineError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"entry_id": entryID})
}
