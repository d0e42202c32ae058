package validation

import (
	"fmt"
)

// Mode controls how much of a submission is reported once a rule fails.
type Mode int

const (
	// StopAtFirst ends the pass after the first rule that records an error,
	// and re-consent reports only its first changed field.
	StopAtFirst Mode = iota
	// CollectAll runs every rule and reports every changed re-consent field.
	// A fatal error still ends the pass.
	CollectAll
)

// ParseMode maps "first" (or "") and "all" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "first":
		return StopAtFirst, nil
	case "all":
		return CollectAll, nil
	default:
		return StopAtFirst, fmt.Errorf("unknown validation mode %q", s)
	}
}

func (m Mode) String() string {
	if m == CollectAll {
		return "all"
	}
	return "first"
}
