package validation

import (
	"context"
	"time"

	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/ports"
)

// FormValidator runs the consent rules in order: gender other, re-consent,
// date of birth, identity.
type FormValidator struct {
	validators []Validator
	mode       Mode
}

// Option configures a FormValidator.
type Option func(*formOptions)

type formOptions struct {
	mode Mode
	loc  *time.Location
}

// WithMode sets the Mode used by Clean.
func WithMode(mode Mode) Option {
	return func(o *formOptions) { o.mode = mode }
}

// WithLocation sets the trial time zone used to date the consent.
func WithLocation(loc *time.Location) Option {
	return func(o *formOptions) { o.loc = loc }
}

func NewFormValidator(consents ports.ConsentFinder, eligibility ports.EligibilityFinder, opts ...Option) *FormValidator {
	o := &formOptions{mode: StopAtFirst, loc: time.UTC}
	for _, opt := range opts {
		opt(o)
	}
	return &FormValidator{
		validators: []Validator{
			GenderOtherValidator{},
			NewReconsentValidator(consents),
			NewDOBValidator(consents, eligibility, o.loc),
			IdentityValidator{},
		},
		mode: o.mode,
	}
}

// Mode returns the configured default mode.
func (f *FormValidator) Mode() Mode {
	return f.mode
}

// Clean validates sub using the configured mode.
func (f *FormValidator) Clean(ctx context.Context, sub *models.Submission) (*Result, error) {
	return f.CleanWithMode(ctx, sub, f.mode)
}

// CleanWithMode validates sub. In StopAtFirst the pass ends after the first
// rule that records an error; a fatal error ends it in any mode.
func (f *FormValidator) CleanWithMode(ctx context.Context, sub *models.Submission, mode Mode) (*Result, error) {
	res := &Result{}
	for _, v := range f.validators {
		before := res.Len()
		if err := v.Validate(ctx, sub, mode, res); err != nil {
			return nil, err
		}
		if res.Fatal() {
			break
		}
		if mode == StopAtFirst && res.Len() > before {
			break
		}
	}
	return res, nil
}
