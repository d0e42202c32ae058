package models

import (
	"time"

	"trialconsent/pkg/domain"
)

// InformedConsent is one version of a subject's signed consent.
// (SubjectIdentifier, Version) is unique.
type InformedConsent struct {
	ID                     domain.ConsentID           `json:"id"`
	SubjectIdentifier      domain.SubjectIdentifier   `json:"subject_identifier"`
	ScreeningIdentifier    domain.ScreeningIdentifier `json:"screening_identifier"`
	Version                domain.ConsentVersion      `json:"version"`
	ConsentDatetime        time.Time                  `json:"consent_datetime"`
	FirstName              string                     `json:"first_name"`
	LastName               string                     `json:"last_name"`
	Initials               string                     `json:"initials"`
	DOB                    domain.Date                `json:"dob"`
	Gender                 domain.Gender              `json:"gender"`
	GenderOther            string                     `json:"gender_other"`
	Identity               string                     `json:"identity"`
	IdentityType           domain.IdentityType        `json:"identity_type"`
	RecruitSource          string                     `json:"recruit_source"`
	RecruitSourceOther     string                     `json:"recruit_source_other"`
	RecruitmentClinic      string                     `json:"recruitment_clinic"`
	RecruitmentClinicOther string                     `json:"recruitment_clinic_other"`
	IsLiterate             domain.YesNo               `json:"is_literate"`
	Created                time.Time                  `json:"created"`
	Modified               time.Time                  `json:"modified"`
	UserCreated            string                     `json:"user_created"`
	UserModified           string                     `json:"user_modified"`
}

// EligibilityConfirmation is recorded at screening, before consent.
// AgeInYears is nil when the screener did not capture an age.
type EligibilityConfirmation struct {
	ScreeningIdentifier domain.ScreeningIdentifier `json:"screening_identifier"`
	AgeInYears          *int                       `json:"age_in_years"`
	ReportDatetime      time.Time                  `json:"report_datetime"`
	Created             time.Time                  `json:"created"`
	Modified            time.Time                  `json:"modified"`
	UserCreated         string                     `json:"user_created"`
	UserModified        string                     `json:"user_modified"`
}

// Submission is a consent form as entered, before it is accepted.
// ConfirmIdentity is a re-keyed copy of Identity and is never stored.
type Submission struct {
	InformedConsent
	ConfirmIdentity string
}
