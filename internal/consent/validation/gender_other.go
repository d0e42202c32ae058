package validation

import (
	"context"
	"strings"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
)

const (
	msgRequired    = "This field is required."
	msgNotRequired = "This field is not required."
)

// GenderOtherValidator requires gender_other exactly when gender is OTHER.
type GenderOtherValidator struct{}

func (GenderOtherValidator) Validate(_ context.Context, sub *models.Submission, _ Mode, res *Result) error {
	otherGiven := strings.TrimSpace(sub.GenderOther) != ""
	switch {
	case sub.Gender == domain.GenderOther && !otherGiven:
		res.AddError("gender_other", CodeRequired, msgRequired)
	case sub.Gender != domain.GenderOther && otherGiven:
		res.AddError("gender_other", CodeNotRequired, msgNotRequired)
	}
	return nil
}
