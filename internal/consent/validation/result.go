package validation

import (
	"strings"

	dErrors "trialconsent/pkg/domain-errors"
)

// NonFieldKey is the field name used for form-level errors.
const NonFieldKey = "__all__"

// Severity grades a FieldError.
type Severity string

const (
	// SeverityError makes the submission invalid.
	SeverityError Severity = "error"
	// SeverityFatal also stops every remaining rule, in any Mode.
	SeverityFatal Severity = "fatal"
)

// Code identifies the rule that produced a FieldError.
type Code string

const (
	CodeRequired           Code = "required"
	CodeNotRequired        Code = "not_required"
	CodeIdentityFormat     Code = "identity_format"
	CodeIdentityMismatch   Code = "identity_mismatch"
	CodeIdentityLength     Code = "identity_length"
	CodeIdentityGender     Code = "identity_gender"
	CodeDOBMismatch        Code = "dob_mismatch"
	CodeEligibilityMissing Code = "eligibility_missing"
	CodeAgeMismatch        Code = "age_mismatch"
	CodeReconsentChanged   Code = "reconsent_changed"
)

// FieldError is one failed rule. Field is NonFieldKey for form-level errors.
type FieldError struct {
	Field    string   `json:"field"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result accumulates FieldErrors in the order rules ran. The zero value is
// an empty, valid result. A Result belongs to one validation pass and is not
// safe for concurrent use.
type Result struct {
	errs []FieldError
}

// AddError records a field error.
func (r *Result) AddError(field string, code Code, message string) {
	r.errs = append(r.errs, FieldError{Field: field, Code: code, Message: message, Severity: SeverityError})
}

// AddFatal records a form-level error that ends the pass.
func (r *Result) AddFatal(code Code, message string) {
	r.errs = append(r.errs, FieldError{Field: NonFieldKey, Code: code, Message: message, Severity: SeverityFatal})
}

func (r *Result) Valid() bool {
	return len(r.errs) == 0
}

func (r *Result) Len() int {
	return len(r.errs)
}

// Fatal reports whether a fatal error was recorded.
func (r *Result) Fatal() bool {
	for _, e := range r.errs {
		if e.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Errors returns a copy of every recorded error.
func (r *Result) Errors() []FieldError {
	out := make([]FieldError, len(r.errs))
	copy(out, r.errs)
	return out
}

// Fields maps each field to its first message. Form-level errors are
// reported by NonField instead.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string)
	for _, e := range r.errs {
		if e.Field == NonFieldKey {
			continue
		}
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// NonField returns the form-level messages.
func (r *Result) NonField() []string {
	var out []string
	for _, e := range r.errs {
		if e.Field == NonFieldKey {
			out = append(out, e.Message)
		}
	}
	return out
}

// Err returns a *Error carrying r, or nil when r is valid.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{Result: r}
}

// Error is returned when a submission fails validation. It unwraps to a
// dErrors.CodeValidation error so transports can map it without importing
// this package.
type Error struct {
	Result *Result
}

func (e *Error) Error() string {
	parts := make([]string, 0, e.Result.Len())
	for _, fe := range e.Result.errs {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error {
	return dErrors.New(dErrors.CodeValidation, "submission failed validation")
}
