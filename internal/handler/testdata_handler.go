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

const dateLayout = "2006-01-02"

// TestDataHandler exposes the synthetic provisioning operations.
type TestDataHandler struct {
	provisioner *testdata.Provisioner
}

func NewTestDataHandler(p *testdata.Provisioner) *TestDataHandler {
	return &TestDataHandler{provisioner: p}
}

// ProvisionUsers creates a batch of synthetic users
func (h *TestDataHandler) ProvisionUsers(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Role                 string `json:"role"`
		Count                int    `json:"count"`
		IsTestPatient        *bool  `json:"is_test_patient"`
		Source               string `json:"source"`
		AutoAssignTherapists bool   `json:"auto_assign_therapists"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user provisioning request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	// Synthetic users are test patients unless the caller opts out
	isTest := true
	if req.IsTestPatient != nil {
		isTest = *req.IsTestPatient
	}

	performedBy, _ := middleware.AdminIDFromContext(c)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	result, err := h.provisioner.ProvisionUsers(c.Request().Context(), testdata.ProvisionUsersParams{
		Role:                 req.Role,
		Count:                req.Count,
		IsTestPatient:        isTest,
		Source:               req.Source,
		AutoAssignTherapists: req.AutoAssignTherapists,
		PerformedBy:          performedBy,
	})
	if err != nil {
		log.Error("User provisioning failed", zap.Error(err))
		return engineError(c, err)
	}

	prometheus.SyntheticUsersCreatedCounter.WithLabelValues(req.Role).
		Add(float64(result.UsersCreated))

	return c.JSON(http.StatusCreated, result)
}

// ProvisionCheckIns generates pattern-shaped check-ins for target users
func (h *TestDataHandler) ProvisionCheckIns(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		UserIDs           []string `json:"user_ids"`
		StartDate         string   `json:"start_date"`
		EndDate           string   `json:"end_date"`
		LastNDays         int      `json:"last_n_days"`
		CheckinsPerDayMin int      `json:"checkins_per_day_min"`
		CheckinsPerDayMax int      `json:"checkins_per_day_max"`
		Pattern           string   `json:"pattern"`
		PhaseLengthDays   int      `json:"phase_length_days"`
		Seed              *int64   `json:"seed"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse check-in provisioning request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "invalid_request",
			"error_description": "Could not parse request body",
		})
	}

	params := testdata.ProvisionCheckInsParams{
		UserIDs:         req.UserIDs,
		LastNDays:       req.LastNDays,
		PerDayMin:       req.CheckinsPerDayMin,
		PerDayMax:       req.CheckinsPerDayMax,
		Pattern:         req.Pattern,
		PhaseLengthDays: req.PhaseLengthDays,
		Seed:            req.Seed,
	}
	if req.LastNDays == 0 {
		var err error
		params.StartDate, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":             "invalid_request",
				"error_description": "start_date must be YYYY-MM-DD",
			})
		}
		params.EndDate, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":             "invalid_request",
				"error_description": "end_date must be YYYY-MM-DD",
			})
		}
	}
	params.PerformedBy, _ = middleware.AdminIDFromContext(c)

	defer prometheus.TrackDBOperation("insert")(time.Now())

	result, err := h.provisioner.ProvisionCheckIns(c.Request().Context(), params)
	if err != nil {
		log.Error("Check-in provisioning failed", zap.Error(err))
		return engineError(c, err)
	}

	prometheus.SyntheticCheckInsCreatedCounter.Add(float64(result.CreatedCount))

	return c.JSON(http.StatusCreated, result)
}
