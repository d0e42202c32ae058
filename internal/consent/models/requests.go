package models

import (
	"time"

	"trialconsent/pkg/domain"
	dErrors "trialconsent/pkg/domain-errors"
)

// SubmitConsentRequest is the consent form body. Values are raw strings so
// parse failures can be reported per field.
type SubmitConsentRequest struct {
	SubjectIdentifier      string `json:"subject_identifier"`
	ScreeningIdentifier    string `json:"screening_identifier"`
	Version                string `json:"version"`
	ConsentDatetime        string `json:"consent_datetime"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Initials               string `json:"initials"`
	DOB                    string `json:"dob"`
	Gender                 string `json:"gender"`
	GenderOther            string `json:"gender_other"`
	Identity               string `json:"identity"`
	ConfirmIdentity        string `json:"confirm_identity"`
	IdentityType           string `json:"identity_type"`
	RecruitSource          string `json:"recruit_source"`
	RecruitSourceOther     string `json:"recruit_source_other"`
	RecruitmentClinic      string `json:"recruitment_clinic"`
	RecruitmentClinicOther string `json:"recruitment_clinic_other"`
	IsLiterate             string `json:"is_literate"`
}

// ToSubmission parses the request at the trust boundary.
func (r *SubmitConsentRequest) ToSubmission() (*Submission, error) {
	subject, err := domain.ParseSubjectIdentifier(r.SubjectIdentifier)
	if err != nil {
		return nil, err
	}
	screening, err := domain.ParseScreeningIdentifier(r.ScreeningIdentifier)
	if err != nil {
		return nil, err
	}
	version, err := domain.ParseConsentVersion(r.Version)
	if err != nil {
		return nil, err
	}
	consentAt, err := parseDatetime("consent_datetime", r.ConsentDatetime)
	if err != nil {
		return nil, err
	}
	dob, err := domain.ParseDate(r.DOB)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid dob, expected YYYY-MM-DD")
	}
	gender, err := domain.ParseGender(r.Gender)
	if err != nil {
		return nil, err
	}
	identityType, err := domain.ParseIdentityType(r.IdentityType)
	if err != nil {
		return nil, err
	}
	literate, err := domain.ParseYesNo(r.IsLiterate)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid is_literate, expected Yes or No")
	}

	return &Submission{
		InformedConsent: InformedConsent{
			SubjectIdentifier:      subject,
			ScreeningIdentifier:    screening,
			Version:                version,
			ConsentDatetime:        consentAt,
			FirstName:              r.FirstName,
			LastName:               r.LastName,
			Initials:               r.Initials,
			DOB:                    dob,
			Gender:                 gender,
			GenderOther:            r.GenderOther,
			Identity:               r.Identity,
			IdentityType:           identityType,
			RecruitSource:          r.RecruitSource,
			RecruitSourceOther:     r.RecruitSourceOther,
			RecruitmentClinic:      r.RecruitmentClinic,
			RecruitmentClinicOther: r.RecruitmentClinicOther,
			IsLiterate:             literate,
		},
		ConfirmIdentity: r.ConfirmIdentity,
	}, nil
}

// ConfirmEligibilityRequest is the eligibility confirmation body.
type ConfirmEligibilityRequest struct {
	ScreeningIdentifier string `json:"screening_identifier"`
	AgeInYears          *int   `json:"age_in_years"`
	ReportDatetime      string `json:"report_datetime"`
}

func (r *ConfirmEligibilityRequest) ToEligibility() (*EligibilityConfirmation, error) {
	screening, err := domain.ParseScreeningIdentifier(r.ScreeningIdentifier)
	if err != nil {
		return nil, err
	}
	reportAt, err := parseDatetime("report_datetime", r.ReportDatetime)
	if err != nil {
		return nil, err
	}
	if r.AgeInYears != nil && *r.AgeInYears < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "age_in_years must not be negative")
	}
	return &EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          r.AgeInYears,
		ReportDatetime:      reportAt,
	}, nil
}

func parseDatetime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field+", expected RFC 3339")
	}
	return t, nil
}

// ValidationResponse reports the outcome of a validation pass. Errors maps a
// field to its message; NonFieldErrors carries form-level messages.
type ValidationResponse struct {
	Valid          bool              `json:"valid"`
	Errors         map[string]string `json:"errors,omitempty"`
	NonFieldErrors []string          `json:"non_field_errors,omitempty"`
}

type ConsentListResponse struct {
	Consents []*InformedConsent `json:"consents"`
}
