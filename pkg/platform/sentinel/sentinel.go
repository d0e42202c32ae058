package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors or, for lookups
// that feed validation, into "record absent" branches.
//
//   - ErrNotFound: no consent or eligibility row for the key
//   - ErrConflict: a unique key (subject identifier + version) is already taken
//   - ErrUnavailable: backing store or cache temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
