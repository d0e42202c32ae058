package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"trialconsent/pkg/domain"
)

// Action names what happened to a consent or eligibility record.
type Action string

const (
	ActionConsentSaved         Action = "consent_saved"
	ActionReconsentSaved       Action = "reconsent_saved"
	ActionConsentRejected      Action = "consent_rejected"
	ActionEligibilityConfirmed Action = "eligibility_confirmed"
)

// Event is emitted by the consent service. It carries identifiers and the names
// of failing fields, never submitted values: consent forms are full of PII.
type Event struct {
	ID                  uuid.UUID
	Action              Action
	Timestamp           time.Time
	SubjectIdentifier   domain.SubjectIdentifier
	ScreeningIdentifier domain.ScreeningIdentifier
	Version             domain.ConsentVersion
	// ActorID is the study staff member who submitted the form.
	ActorID   string
	RequestID string
	// Fields lists the fields that failed validation on a rejected submission.
	// A blocking non-field failure is listed as "__all__".
	Fields []string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject domain.SubjectIdentifier) ([]Event, error)
}

// OutboxEntry is an event waiting to be relayed to the message bus.
type OutboxEntry struct {
	ID        uuid.UUID
	Key       string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Outbox is the relay-side view of a transactional outbox.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
