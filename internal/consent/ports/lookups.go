// Package ports declares the read-only lookups consent validation depends on.
// Implementations return sentinel.ErrNotFound (possibly wrapped) when no
// record exists; any other error is an infrastructure failure.
package ports

import (
	"context"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
)

// ConsentFinder looks up a stored consent by subject and version.
type ConsentFinder interface {
	FindConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error)
}

// EligibilityFinder looks up the eligibility confirmation for a screening.
type EligibilityFinder interface {
	FindEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error)
}
