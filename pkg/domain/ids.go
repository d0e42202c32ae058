package domain

import (
	"database/sql/driver"
	"strings"

	"github.com/google/uuid"

	dErrors "trialconsent/pkg/domain-errors"
)

// ConsentID identifies a stored informed consent row.
type ConsentID uuid.UUID

// NewConsentID returns a fresh random consent ID.
func NewConsentID() ConsentID {
	return ConsentID(uuid.New())
}

// ParseConsentID parses a non-nil UUID.
func ParseConsentID(s string) (ConsentID, error) {
	if s == "" {
		return ConsentID{}, dErrors.New(dErrors.CodeInvalidInput, "consent id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ConsentID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid consent id")
	}
	if parsed == uuid.Nil {
		return ConsentID{}, dErrors.New(dErrors.CodeInvalidInput, "consent id cannot be nil")
	}
	return ConsentID(parsed), nil
}

func (id ConsentID) String() string {
	return uuid.UUID(id).String()
}

func (id ConsentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ConsentID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ConsentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// Scan implements sql.Scanner for UUID columns.
func (id *ConsentID) Scan(src any) error {
	return (*uuid.UUID)(id).Scan(src)
}

// Value implements driver.Valuer.
func (id ConsentID) Value() (driver.Value, error) {
	return uuid.UUID(id).Value()
}

// maxIdentifierLength bounds subject and screening identifiers at trust boundaries.
const maxIdentifierLength = 50

// SubjectIdentifier is assigned to an enrolled participant.
type SubjectIdentifier string

// ScreeningIdentifier is assigned at eligibility screening, before consent.
type ScreeningIdentifier string

// ParseSubjectIdentifier validates a subject identifier from external input.
func ParseSubjectIdentifier(s string) (SubjectIdentifier, error) {
	v, err := parseIdentifier("subject identifier", s)
	return SubjectIdentifier(v), err
}

// ParseScreeningIdentifier validates a screening identifier from external input.
func ParseScreeningIdentifier(s string) (ScreeningIdentifier, error) {
	v, err := parseIdentifier("screening identifier", s)
	return ScreeningIdentifier(v), err
}

func (s SubjectIdentifier) String() string   { return string(s) }
func (s SubjectIdentifier) IsNil() bool      { return s == "" }
func (s ScreeningIdentifier) String() string { return string(s) }
func (s ScreeningIdentifier) IsNil() bool    { return s == "" }

// parseIdentifier accepts letters, digits and hyphens only.
func parseIdentifier(label, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIdentifierLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
		}
	}
	return s, nil
}

// ConsentVersion is the sequential revision of a subject's consent. Stored as
// text because consent form versions are labels ("1", "2", ...), not counters.
type ConsentVersion string

// FirstConsentVersion is the version of the original consent.
const FirstConsentVersion ConsentVersion = "1"

// ParseConsentVersion accepts a positive decimal label without leading zeros.
func ParseConsentVersion(s string) (ConsentVersion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "version cannot be empty")
	}
	if s[0] == '0' || len(s) > 4 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid version")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid version")
		}
	}
	return ConsentVersion(s), nil
}

func (v ConsentVersion) String() string { return string(v) }
