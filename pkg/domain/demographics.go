package domain

import dErrors "trialconsent/pkg/domain-errors"

// Gender as captured on the consent form.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "OTHER"
)

var validGenders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// ParseGender constructs a Gender from external input. Empty input is allowed
// and yields the zero value; required-ness is a form concern.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if s != "" && !validGenders[g] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid gender")
	}
	return g, nil
}

func (g Gender) String() string { return string(g) }

// IdentityType labels the document the identity number was taken from.
type IdentityType string

const (
	IdentityTypeNationalIDCard   IdentityType = "national_identity_card"
	IdentityTypeNationalIDRcpt   IdentityType = "national_identity_receipt"
	IdentityTypePassport         IdentityType = "passport"
	IdentityTypeBirthCertificate IdentityType = "birth_certificate"
	IdentityTypeOther            IdentityType = "OTHER"
)

var validIdentityTypes = map[IdentityType]bool{
	IdentityTypeNationalIDCard:   true,
	IdentityTypeNationalIDRcpt:   true,
	IdentityTypePassport:         true,
	IdentityTypeBirthCertificate: true,
	IdentityTypeOther:            true,
}

// ParseIdentityType constructs an IdentityType; empty input yields the zero value.
func ParseIdentityType(s string) (IdentityType, error) {
	t := IdentityType(s)
	if s != "" && !validIdentityTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid identity type")
	}
	return t, nil
}

func (t IdentityType) String() string { return string(t) }

// YesNo is the two-valued answer used by literacy and similar questions.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// ParseYesNo constructs a YesNo; empty input yields the zero value.
func ParseYesNo(s string) (YesNo, error) {
	v := YesNo(s)
	if s != "" && v != Yes && v != No {
		return "", dErrors.New(dErrors.CodeInvalidInput, "expected Yes or No")
	}
	return v, nil
}

func (v YesNo) String() string { return string(v) }
