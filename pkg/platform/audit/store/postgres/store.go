package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trialconsent/pkg/domain"
	audit "trialconsent/pkg/platform/audit"
	txcontext "trialconsent/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern. When
// called inside a consent transaction the outbox row commits with the consent
// row; the relay publishes it to Kafka afterwards.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID                  string   `json:"id"`
	Action              string   `json:"action"`
	Timestamp           string   `json:"timestamp"`
	SubjectIdentifier   string   `json:"subject_identifier,omitempty"`
	ScreeningIdentifier string   `json:"screening_identifier,omitempty"`
	Version             string   `json:"version,omitempty"`
	ActorID             string   `json:"actor_id,omitempty"`
	RequestID           string   `json:"request_id,omitempty"`
	Fields              []string `json:"fields,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload := outboxPayload{
		ID:                  event.ID.String(),
		Action:              string(event.Action),
		Timestamp:           event.Timestamp.UTC().Format(time.RFC3339Nano),
		SubjectIdentifier:   event.SubjectIdentifier.String(),
		ScreeningIdentifier: event.ScreeningIdentifier.String(),
		Version:             event.Version.String(),
		ActorID:             event.ActorID,
		RequestID:           event.RequestID,
		Fields:              event.Fields,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	// Partition by participant so a subject's events stay ordered.
	key := event.SubjectIdentifier.String()
	if key == "" {
		key = event.ScreeningIdentifier.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_key, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		event.ID,
		key,
		string(event.Action),
		payloadBytes,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListBySubject returns a subject's events, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject domain.SubjectIdentifier) ([]audit.Event, error) {
	query := `
		SELECT payload
		FROM outbox
		WHERE payload->>'subject_identifier' = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Pending returns unpublished outbox entries in insertion order. Called
// inside a transaction, rows are locked with SKIP LOCKED so concurrent relays
// do not pick the same entries.
func (s *Store) Pending(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	query := `
		SELECT id, aggregate_key, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var e audit.OutboxEntry
		if err := rows.Scan(&e.ID, &e.Key, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps published_at on the given entries.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query, at, pq.Array(keys)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func decodePayload(raw []byte) (audit.Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit payload: %w", err)
	}
	eventID, err := uuid.Parse(p.ID)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit timestamp: %w", err)
	}
	return audit.Event{
		ID:                  eventID,
		Action:              audit.Action(p.Action),
		Timestamp:           ts,
		SubjectIdentifier:   domain.SubjectIdentifier(p.SubjectIdentifier),
		ScreeningIdentifier: domain.ScreeningIdentifier(p.ScreeningIdentifier),
		Version:             domain.ConsentVersion(p.Version),
		ActorID:             p.ActorID,
		RequestID:           p.RequestID,
		Fields:              p.Fields,
	}, nil
}
