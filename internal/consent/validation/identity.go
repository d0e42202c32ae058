package validation

import (
	"context"
	"regexp"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
)

const nationalIDLength = 9

// identityPattern is anchored at the start only: "12AB-" passes because it
// begins with an accepted character.
var identityPattern = regexp.MustCompile(`^[A-Z0-9]+`)

const (
	msgIdentityFormat   = "Identity number must be digits."
	msgIdentityMismatch = "'Identity' must match 'confirm identity'."
	msgIdentityLength   = "National identity provided should contain 9 values. Please correct."
	msgIdentityFemale   = "Participant gender is Female. Please correct identity number."
	msgIdentityMale     = "Participant is Male. Please correct identity number."
)

// IdentityValidator checks the identity number's format, its confirmation
// and, for national identity cards, its length and gender digit. The fifth
// character of a national identity number is '1' for men and '2' for women.
// It records at most one error.
type IdentityValidator struct{}

func (IdentityValidator) Validate(_ context.Context, sub *models.Submission, _ Mode, res *Result) error {
	identity := sub.Identity
	if identity == "" {
		return nil
	}
	if !identityPattern.MatchString(identity) {
		res.AddError("identity", CodeIdentityFormat, msgIdentityFormat)
		return nil
	}
	if identity != sub.ConfirmIdentity {
		res.AddError("identity", CodeIdentityMismatch, msgIdentityMismatch)
		return nil
	}
	if sub.IdentityType != domain.IdentityTypeNationalIDCard {
		return nil
	}
	// Length and the gender digit count characters, not bytes.
	chars := []rune(identity)
	if len(chars) != nationalIDLength {
		res.AddError("identity", CodeIdentityLength, msgIdentityLength)
		return nil
	}
	switch {
	case sub.Gender == domain.GenderFemale && chars[4] != '2':
		res.AddError("identity", CodeIdentityGender, msgIdentityFemale)
	case sub.Gender == domain.GenderMale && chars[4] != '1':
		res.AddError("identity", CodeIdentityGender, msgIdentityMale)
	}
	return nil
}
