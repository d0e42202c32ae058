package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trialconsent/internal/consent/metrics"
	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/validation"
	"trialconsent/pkg/domain"
	dErrors "trialconsent/pkg/domain-errors"
	audit "trialconsent/pkg/platform/audit"
	"trialconsent/pkg/platform/sentinel"
	liststrings "trialconsent/pkg/platform/strings"
	"trialconsent/pkg/requestcontext"
)

const tracerName = "trialconsent/internal/consent/service"

type ConsentStore interface {
	FindConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error)
	ListConsents(ctx context.Context, subject domain.SubjectIdentifier) ([]*models.InformedConsent, error)
	SaveConsent(ctx context.Context, consent *models.InformedConsent) error
}

type EligibilityStore interface {
	FindEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error)
	SaveEligibility(ctx context.Context, rec *models.EligibilityConfirmation) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service validates consent submissions and persists the ones that pass.
type Service struct {
	consents       ConsentStore
	eligibility    EligibilityStore
	tx             ConsentStoreTx
	form           *validation.FormValidator
	mode           validation.Mode
	loc            *time.Location
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithTx(tx ConsentStoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithValidationMode sets the mode Submit validates with.
func WithValidationMode(mode validation.Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithLocation sets the trial time zone used to date consents.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New constructs a Service. Without WithTx it uses the in-memory sharded tx.
func New(consents ConsentStore, eligibility EligibilityStore, opts ...Option) *Service {
	s := &Service{
		consents:    consents,
		eligibility: eligibility,
		mode:        validation.StopAtFirst,
		loc:         time.UTC,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx(0)
	}
	s.form = validation.NewFormValidator(consents, eligibility,
		validation.WithMode(s.mode),
		validation.WithLocation(s.loc),
	)
	return s
}

// Validate runs the consent rules without saving anything.
func (s *Service) Validate(ctx context.Context, sub *models.Submission, mode validation.Mode) (*validation.Result, error) {
	ctx, span := s.startSpan(ctx, "consent.Validate", sub)
	defer span.End()

	if err := requireSubmission(sub); err != nil {
		return nil, err
	}
	res, err := s.form.CleanWithMode(ctx, sub, mode)
	if err != nil {
		s.metrics.IncrementOutcome("validate", "error")
		recordSpanError(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate consent")
	}
	s.recordResult("validate", res)
	return res, nil
}

// Submit validates sub with the configured mode and, if it passes, creates
// the consent or updates the stored one of the same version. A failing
// submission returns a *validation.Error and is recorded as rejected.
func (s *Service) Submit(ctx context.Context, sub *models.Submission) (*models.InformedConsent, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSubmitLatency(time.Since(start)) }()

	ctx, span := s.startSpan(ctx, "consent.Submit", sub)
	defer span.End()

	if err := requireSubmission(sub); err != nil {
		return nil, err
	}

	var (
		saved    *models.InformedConsent
		rejected *validation.Result
	)
	txCtx := WithTxKey(ctx, sub.SubjectIdentifier.String())
	err := s.tx.RunInTx(txCtx, func(ctx context.Context) error {
		res, err := s.form.Clean(ctx, sub)
		if err != nil {
			s.metrics.IncrementOutcome("submit", "error")
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate consent")
		}
		s.recordResult("submit", res)
		if !res.Valid() {
			// The rejection is committed; only the consent write is skipped.
			rejected = res
			return s.emit(ctx, sub, audit.ActionConsentRejected, failedFields(res))
		}

		saved, err = s.save(ctx, sub)
		if err != nil {
			return err
		}
		action := audit.ActionConsentSaved
		if sub.Version != domain.FirstConsentVersion {
			action = audit.ActionReconsentSaved
		}
		return s.emit(ctx, sub, action, nil)
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if rejected != nil {
		s.logger.InfoContext(ctx, "consent submission rejected",
			"subject_identifier", sub.SubjectIdentifier.String(),
			"version", sub.Version.String(),
			"fields", failedFields(rejected),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, rejected.Err()
	}

	s.logger.InfoContext(ctx, "consent saved",
		"subject_identifier", saved.SubjectIdentifier.String(),
		"version", saved.Version.String(),
		"consent_id", saved.ID.String(),
		"site", requestcontext.Site(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return saved, nil
}

func (s *Service) save(ctx context.Context, sub *models.Submission) (*models.InformedConsent, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	record := sub.InformedConsent
	existing, err := s.consents.FindConsent(ctx, sub.SubjectIdentifier, sub.Version)
	switch {
	case err == nil:
		record.ID = existing.ID
		record.Created = existing.Created
		record.UserCreated = existing.UserCreated
	case errors.Is(err, sentinel.ErrNotFound):
		record.ID = domain.NewConsentID()
		record.Created = now
		record.UserCreated = actor
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}
	record.Modified = now
	record.UserModified = actor

	if err := s.consents.SaveConsent(ctx, &record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "consent was saved concurrently, please resubmit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}
	return &record, nil
}

// ConfirmEligibility records the eligibility confirmation for a screening.
// Re-confirming replaces the age and report datetime.
func (s *Service) ConfirmEligibility(ctx context.Context, rec *models.EligibilityConfirmation) (*models.EligibilityConfirmation, error) {
	if rec == nil || rec.ScreeningIdentifier.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "screening_identifier is required")
	}
	if rec.AgeInYears != nil && *rec.AgeInYears < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "age_in_years must not be negative")
	}
	if rec.ReportDatetime.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "report_datetime is required")
	}

	saved := *rec
	txCtx := WithTxKey(ctx, rec.ScreeningIdentifier.String())
	err := s.tx.RunInTx(txCtx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)

		existing, err := s.eligibility.FindEligibility(ctx, rec.ScreeningIdentifier)
		switch {
		case err == nil:
			saved.Created = existing.Created
			saved.UserCreated = existing.UserCreated
		case errors.Is(err, sentinel.ErrNotFound):
			saved.Created = now
			saved.UserCreated = actor
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load eligibility confirmation")
		}
		saved.Modified = now
		saved.UserModified = actor

		if err := s.eligibility.SaveEligibility(ctx, &saved); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save eligibility confirmation")
		}
		return s.emitEvent(ctx, audit.Event{
			Action:              audit.ActionEligibilityConfirmed,
			ScreeningIdentifier: saved.ScreeningIdentifier,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "eligibility confirmed",
		"screening_identifier", saved.ScreeningIdentifier.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &saved, nil
}

func (s *Service) GetConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error) {
	c, err := s.consents.FindConsent(ctx, subject, version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load consent")
	}
	return c, nil
}

// ListConsents returns every version of the subject's consent, oldest first.
func (s *Service) ListConsents(ctx context.Context, subject domain.SubjectIdentifier) ([]*models.InformedConsent, error) {
	list, err := s.consents.ListConsents(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	if list == nil {
		list = []*models.InformedConsent{}
	}
	return list, nil
}

func (s *Service) GetEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	rec, err := s.eligibility.FindEligibility(ctx, screening)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "eligibility confirmation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load eligibility confirmation")
	}
	return rec, nil
}

// requireSubmission checks the keys every rule depends on.
func requireSubmission(sub *models.Submission) error {
	switch {
	case sub == nil:
		return dErrors.New(dErrors.CodeBadRequest, "submission is required")
	case sub.SubjectIdentifier.IsNil():
		return dErrors.New(dErrors.CodeBadRequest, "subject_identifier is required")
	case sub.ScreeningIdentifier.IsNil():
		return dErrors.New(dErrors.CodeBadRequest, "screening_identifier is required")
	case sub.Version == "":
		return dErrors.New(dErrors.CodeBadRequest, "version is required")
	case sub.ConsentDatetime.IsZero():
		return dErrors.New(dErrors.CodeBadRequest, "consent_datetime is required")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, sub *models.Submission, action audit.Action, fields []string) error {
	return s.emitEvent(ctx, audit.Event{
		Action:              action,
		SubjectIdentifier:   sub.SubjectIdentifier,
		ScreeningIdentifier: sub.ScreeningIdentifier,
		Version:             sub.Version,
		Fields:              fields,
	})
}

func (s *Service) emitEvent(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	event.ActorID = requestcontext.Actor(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(event.Action),
			"error", err,
			"request_id", event.RequestID,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) recordResult(operation string, res *validation.Result) {
	if res.Valid() {
		s.metrics.IncrementOutcome(operation, "valid")
		return
	}
	s.metrics.IncrementOutcome(operation, "invalid")
	for _, fe := range res.Errors() {
		s.metrics.IncrementFailure(fe.Field, string(fe.Code))
	}
}

// failedFields lists each failing field once, in rule order.
func failedFields(res *validation.Result) []string {
	errs := res.Errors()
	fields := make([]string, len(errs))
	for i, fe := range errs {
		fields[i] = fe.Field
	}
	return liststrings.Compact(fields)
}

func (s *Service) startSpan(ctx context.Context, name string, sub *models.Submission) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	if sub != nil {
		attrs = append(attrs,
			attribute.String("consent.subject_identifier", sub.SubjectIdentifier.String()),
			attribute.String("consent.version", sub.Version.String()),
		)
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordSpanError(span trace.Span, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, dErrors.MessageOf(err))
}
