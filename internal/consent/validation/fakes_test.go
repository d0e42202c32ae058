package validation

import (
	"context"
	"time"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
	"trialconsent/pkg/platform/sentinel"
)

const (
	subject   = domain.SubjectIdentifier("150-040990001-5")
	screening = domain.ScreeningIdentifier("S0001")
)

var cat = time.FixedZone("CAT", 2*60*60)

type fakeConsents struct {
	rows  map[domain.ConsentVersion]*models.InformedConsent
	err   error
	calls []domain.ConsentVersion
}

func (f *fakeConsents) FindConsent(_ context.Context, s domain.SubjectIdentifier, v domain.ConsentVersion) (*models.InformedConsent, error) {
	f.calls = append(f.calls, v)
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.rows[v]; ok && s == c.SubjectIdentifier {
		return c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (f *fakeConsents) put(c models.InformedConsent) {
	if f.rows == nil {
		f.rows = map[domain.ConsentVersion]*models.InformedConsent{}
	}
	f.rows[c.Version] = &c
}

type fakeEligibility struct {
	rec *models.EligibilityConfirmation
	err error
}

func (f *fakeEligibility) FindEligibility(_ context.Context, s domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil || f.rec.ScreeningIdentifier != s {
		return nil, sentinel.ErrNotFound
	}
	return f.rec, nil
}

func eligibilityWithAge(age int) *fakeEligibility {
	return &fakeEligibility{rec: &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      time.Date(2021, time.March, 10, 8, 0, 0, 0, cat),
	}}
}

// validSubmission is a first consent by a 35 year old woman with a national
// identity card, consistent with eligibilityWithAge(35).
func validSubmission() *models.Submission {
	return &models.Submission{
		InformedConsent: models.InformedConsent{
			SubjectIdentifier:   subject,
			ScreeningIdentifier: screening,
			Version:             domain.FirstConsentVersion,
			ConsentDatetime:     time.Date(2021, time.March, 15, 9, 30, 0, 0, cat),
			FirstName:           "JANE",
			LastName:            "DOE",
			DOB:                 domain.NewDate(1985, time.June, 20),
			Gender:              domain.GenderFemale,
			Identity:            "123421234",
			IdentityType:        domain.IdentityTypeNationalIDCard,
			RecruitSource:       "clinic",
			RecruitmentClinic:   "Gaborone",
			IsLiterate:          domain.Yes,
		},
		ConfirmIdentity: "123421234",
	}
}
