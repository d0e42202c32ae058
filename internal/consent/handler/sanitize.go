package handler

import (
	"strings"

	"trialconsent/internal/consent/models"
)

// sanitizeSubmission drops surrounding whitespace typed by study staff so
// " 123421234" and "123421234" are the same identity. Inner whitespace is
// left to the rules.
func sanitizeSubmission(r *models.SubmitConsentRequest) {
	trimFields(
		&r.SubjectIdentifier, &r.ScreeningIdentifier, &r.Version, &r.ConsentDatetime,
		&r.FirstName, &r.LastName, &r.Initials, &r.DOB,
		&r.Gender, &r.GenderOther,
		&r.Identity, &r.ConfirmIdentity, &r.IdentityType,
		&r.RecruitSource, &r.RecruitSourceOther,
		&r.RecruitmentClinic, &r.RecruitmentClinicOther,
		&r.IsLiterate,
	)
}

func sanitizeEligibility(r *models.ConfirmEligibilityRequest) {
	trimFields(&r.ScreeningIdentifier, &r.ReportDatetime)
}

func trimFields(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
