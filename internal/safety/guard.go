// Package safety gates every destructive or bulk test-data operation.
// Outside production the ceilings are advisory and the guard always passes.
package safety

import (
	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
	"github.com/lucasvrm/bipolar-api-sub002/internal/model"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/config"
)

// ConfirmationPhrase must match exactly, case and whitespace included. It is
// never trimmed or normalized.
const ConfirmationPhrase = "DELETE ALL DATA"

// Guard validates environment, ceilings and confirmation phrases before a
// destructive path is allowed to run. It never partially authorizes: either
// the full requested size passes or the call fails naming the limit.
type Guard struct {
	production bool
	limits     config.SafetyConfig
}

func NewGuard(production bool, limits config.SafetyConfig) *Guard {
	return &Guard{production: production, limits: limits}
}

// AuthorizeUserProvision checks the per-role bulk creation ceiling.
func (g *Guard) AuthorizeUserProvision(role string, count int) error {
	if !g.production {
		return nil
	}
	switch role {
	case model.RoleTherapist:
		if count > g.limits.MaxTestTherapists {
			return &apperr.LimitExceededError{
				Limit:     "test therapist creation",
				Max:       g.limits.MaxTestTherapists,
				Requested: count,
			}
		}
	default:
		if count > g.limits.MaxTestPatients {
			return &apperr.LimitExceededError{
				Limit:     "test patient creation",
				Max:       g.limits.MaxTestPatients,
				Requested: count,
			}
		}
	}
	return nil
}

// AuthorizeCheckInProvision checks the per-user-per-operation generation
// ceiling against the worst case of the requested window.
func (g *Guard) AuthorizeCheckInProvision(maxPerUser int) error {
	if !g.production {
		return nil
	}
	if maxPerUser > g.limits.MaxCheckInsPerUser {
		return &apperr.LimitExceededError{
			Limit:     "check-ins per user",
			Max:       g.limits.MaxCheckInsPerUser,
			Requested: maxPerUser,
		}
	}
	return nil
}

// AuthorizeFullClear requires the explicit opt-in flag and the exact
// confirmation phrase for a full database clear.
func (g *Guard) AuthorizeFullClear(optIn bool, confirmation string) error {
	if !g.production {
		return nil
	}
	if !optIn {
		return &apperr.ConfirmationRequiredError{
			Reason: "full database clear requires the confirm flag",
		}
	}
	if confirmation != ConfirmationPhrase {
		return &apperr.ConfirmationRequiredError{
			Reason: "confirmation phrase does not match",
		}
	}
	return nil
}
