package store

import (
	"context"
	"sort"
	"sync"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
	"trialconsent/pkg/platform/sentinel"
)

type consentKey struct {
	subject domain.SubjectIdentifier
	version domain.ConsentVersion
}

// InMemoryConsentStore keeps consents in a map keyed by subject and version.
// Callers get copies, so stored rows only change through SaveConsent.
type InMemoryConsentStore struct {
	mu       sync.RWMutex
	consents map[consentKey]models.InformedConsent
}

func NewInMemoryConsentStore() *InMemoryConsentStore {
	return &InMemoryConsentStore{consents: make(map[consentKey]models.InformedConsent)}
}

func (s *InMemoryConsentStore) FindConsent(_ context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.consents[consentKey{subject, version}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

// ListConsents returns the subject's consents ordered by version.
func (s *InMemoryConsentStore) ListConsents(_ context.Context, subject domain.SubjectIdentifier) ([]*models.InformedConsent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InformedConsent
	for k, c := range s.consents {
		if k.subject == subject {
			out = append(out, &c)
		}
	}
	sortByVersion(out)
	return out, nil
}

// SaveConsent inserts or replaces the row for (subject, version). Replacing
// a row under a different ID is a conflict.
func (s *InMemoryConsentStore) SaveConsent(_ context.Context, consent *models.InformedConsent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := consentKey{consent.SubjectIdentifier, consent.Version}
	if existing, ok := s.consents[key]; ok && existing.ID != consent.ID {
		return sentinel.ErrConflict
	}
	s.consents[key] = *consent
	return nil
}

// InMemoryEligibilityStore keeps eligibility confirmations keyed by
// screening identifier.
type InMemoryEligibilityStore struct {
	mu      sync.RWMutex
	records map[domain.ScreeningIdentifier]models.EligibilityConfirmation
}

func NewInMemoryEligibilityStore() *InMemoryEligibilityStore {
	return &InMemoryEligibilityStore{records: make(map[domain.ScreeningIdentifier]models.EligibilityConfirmation)}
}

func (s *InMemoryEligibilityStore) FindEligibility(_ context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[screening]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEligibility(&rec), nil
}

func (s *InMemoryEligibilityStore) SaveEligibility(_ context.Context, rec *models.EligibilityConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ScreeningIdentifier] = *cloneEligibility(rec)
	return nil
}

func cloneEligibility(rec *models.EligibilityConfirmation) *models.EligibilityConfirmation {
	out := *rec
	if rec.AgeInYears != nil {
		age := *rec.AgeInYears
		out.AgeInYears = &age
	}
	return &out
}

// sortByVersion orders numeric version labels numerically ("2" before "10").
func sortByVersion(consents []*models.InformedConsent) {
	sort.Slice(consents, func(i, j int) bool {
		a, b := consents[i].Version, consents[j].Version
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}
