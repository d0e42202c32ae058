package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/ports"
	"trialconsent/pkg/domain"
	"trialconsent/pkg/platform/sentinel"
)

const msgEligibilityMissing = "Please complete the Eligibility Confirmation form first."

// DOBValidator checks date of birth against the subject's first consent or,
// before one exists, against the age captured at eligibility confirmation.
type DOBValidator struct {
	consents    ports.ConsentFinder
	eligibility ports.EligibilityFinder
	// loc is the trial time zone used to take the consent date.
	loc *time.Location
}

func NewDOBValidator(consents ports.ConsentFinder, eligibility ports.EligibilityFinder, loc *time.Location) *DOBValidator {
	if loc == nil {
		loc = time.UTC
	}
	return &DOBValidator{consents: consents, eligibility: eligibility, loc: loc}
}

func (v *DOBValidator) Validate(ctx context.Context, sub *models.Submission, _ Mode, res *Result) error {
	first, err := v.consents.FindConsent(ctx, sub.SubjectIdentifier, domain.FirstConsentVersion)
	switch {
	case err == nil:
		if first.DOB != sub.DOB {
			res.AddError("dob", CodeDOBMismatch, fmt.Sprintf(
				"The dob does not match with the dob of previous consent, Got %s but previous consent dob is %s",
				sub.DOB, first.DOB))
		}
		return nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return fmt.Errorf("find first consent: %w", err)
	}

	elig, err := v.eligibility.FindEligibility(ctx, sub.ScreeningIdentifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			res.AddFatal(CodeEligibilityMissing, msgEligibilityMissing)
			return nil
		}
		return fmt.Errorf("find eligibility confirmation: %w", err)
	}

	// An unrecorded or zero eligibility age is not compared.
	if elig.AgeInYears == nil || *elig.AgeInYears == 0 {
		return nil
	}
	if sub.DOB.IsZero() || sub.ConsentDatetime.IsZero() {
		return nil
	}
	consentDate := domain.DateOf(sub.ConsentDatetime.In(v.loc))
	derived := domain.YearsBetween(sub.DOB, consentDate)
	if derived != *elig.AgeInYears {
		res.AddError("dob", CodeAgeMismatch, fmt.Sprintf(
			"The age derived from Date of birth does not match the age provided in the Eligibility Confirmation form. Expected '%d' got '%d'",
			*elig.AgeInYears, derived))
	}
	return nil
}
