// Package validation checks an informed consent submission for cross-field
// consistency before it is saved.
//
//	form := validation.NewFormValidator(consents, eligibility, validation.WithLocation(loc))
//	res, err := form.Clean(ctx, sub)
//	if err != nil { /* lookup failed */ }
//	if !res.Valid() { /* report res.Fields(), res.NonField() */ }
//
// Rules never return errors for invalid data; they record FieldErrors on the
// Result. A returned error always means a lookup failed.
package validation

import (
	"context"

	"trialconsent/internal/consent/models"
)

// Validator is one rule (or family of rules) run against a submission.
type Validator interface {
	Validate(ctx context.Context, sub *models.Submission, mode Mode, res *Result) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, sub *models.Submission, mode Mode, res *Result) error

func (f ValidatorFunc) Validate(ctx context.Context, sub *models.Submission, mode Mode, res *Result) error {
	return f(ctx, sub, mode, res)
}
