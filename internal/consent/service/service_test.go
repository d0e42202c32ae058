package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"trialconsent/internal/consent/metrics"
	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/store"
	"trialconsent/internal/consent/validation"
	"trialconsent/pkg/domain"
	dErrors "trialconsent/pkg/domain-errors"
	audit "trialconsent/pkg/platform/audit"
	auditmemory "trialconsent/pkg/platform/audit/store/memory"
	"trialconsent/pkg/platform/sentinel"
	"trialconsent/pkg/requestcontext"
)

const (
	subject   = domain.SubjectIdentifier("150-040990001-5")
	screening = domain.ScreeningIdentifier("S0001")
	actor     = "coordinator@site1"
)

var (
	cat       = time.FixedZone("CAT", 2*60*60)
	requestAt = time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC)
)

type recordingPublisher struct {
	events []audit.Event
	err    error
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	consents    *store.InMemoryConsentStore
	eligibility *store.InMemoryEligibilityStore
	auditStore  *auditmemory.InMemoryStore
	publisher   *recordingPublisher
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	svc         *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithActor(requestcontext.WithTime(context.Background(), requestAt), actor)
	s.consents = store.NewInMemoryConsentStore()
	s.eligibility = store.NewInMemoryEligibilityStore()
	s.publisher = &recordingPublisher{}
	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.NewWithRegisterer(s.registry)
	s.svc = New(s.consents, s.eligibility,
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithLocation(cat),
	)
}

func (s *ServiceSuite) confirmEligibility(age int) {
	_, err := s.svc.ConfirmEligibility(s.ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      time.Date(2021, time.March, 10, 8, 0, 0, 0, cat),
	})
	s.Require().NoError(err)
	s.publisher.events = nil
}

func validSubmission() *models.Submission {
	return &models.Submission{
		InformedConsent: models.InformedConsent{
			SubjectIdentifier:   subject,
			ScreeningIdentifier: screening,
			Version:             domain.FirstConsentVersion,
			ConsentDatetime:     time.Date(2021, time.March, 15, 9, 30, 0, 0, cat),
			FirstName:           "JANE",
			LastName:            "DOE",
			DOB:                 domain.NewDate(1985, time.June, 20),
			Gender:              domain.GenderFemale,
			Identity:            "123421234",
			IdentityType:        domain.IdentityTypeNationalIDCard,
			RecruitSource:       "clinic",
			RecruitmentClinic:   "Gaborone",
			IsLiterate:          domain.Yes,
		},
		ConfirmIdentity: "123421234",
	}
}

func (s *ServiceSuite) TestSubmitCreatesFirstConsent() {
	s.confirmEligibility(35)

	saved, err := s.svc.Submit(s.ctx, validSubmission())
	s.Require().NoError(err)

	s.False(saved.ID.IsNil())
	s.Equal(requestAt, saved.Created)
	s.Equal(requestAt, saved.Modified)
	s.Equal(actor, saved.UserCreated)
	s.Equal(actor, saved.UserModified)

	stored, err := s.consents.FindConsent(s.ctx, subject, domain.FirstConsentVersion)
	s.Require().NoError(err)
	s.Equal(saved.ID, stored.ID)

	s.Require().Len(s.publisher.events, 1)
	event := s.publisher.events[0]
	s.Equal(audit.ActionConsentSaved, event.Action)
	s.Equal(subject, event.SubjectIdentifier)
	s.Equal(actor, event.ActorID)
	s.Empty(event.Fields)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationOutcome.WithLabelValues("submit", "valid")))
}

func (s *ServiceSuite) TestSubmitResubmissionKeepsIdentityOfRecord() {
	s.confirmEligibility(35)
	first, err := s.svc.Submit(s.ctx, validSubmission())
	s.Require().NoError(err)

	later := requestcontext.WithActor(requestcontext.WithTime(s.ctx, requestAt.Add(time.Hour)), "monitor@site1")
	updated, err := s.svc.Submit(later, validSubmission())
	s.Require().NoError(err)

	s.Equal(first.ID, updated.ID)
	s.Equal(first.Created, updated.Created)
	s.Equal(actor, updated.UserCreated)
	s.Equal(requestAt.Add(time.Hour), updated.Modified)
	s.Equal("monitor@site1", updated.UserModified)

	list, err := s.svc.ListConsents(s.ctx, subject)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *ServiceSuite) TestSubmitSecondVersionIsReconsent() {
	s.confirmEligibility(35)
	_, err := s.svc.Submit(s.ctx, validSubmission())
	s.Require().NoError(err)
	s.publisher.events = nil

	sub := validSubmission()
	sub.Version = "2"
	_, err = s.svc.Submit(s.ctx, sub)
	s.Require().NoError(err)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(audit.ActionReconsentSaved, s.publisher.events[0].Action)

	list, err := s.svc.ListConsents(s.ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(domain.ConsentVersion("1"), list[0].Version)
	s.Equal(domain.ConsentVersion("2"), list[1].Version)
}

func (s *ServiceSuite) TestSubmitRejectsWithoutEligibility() {
	_, err := s.svc.Submit(s.ctx, validSubmission())

	var vErr *validation.Error
	s.Require().ErrorAs(err, &vErr)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal([]string{"Please complete the Eligibility Confirmation form first."}, vErr.Result.NonField())

	_, findErr := s.consents.FindConsent(s.ctx, subject, domain.FirstConsentVersion)
	s.ErrorIs(findErr, sentinel.ErrNotFound)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(audit.ActionConsentRejected, s.publisher.events[0].Action)
	s.Equal([]string{validation.NonFieldKey}, s.publisher.events[0].Fields)
}

func (s *ServiceSuite) TestSubmitRejectionCountsFailures() {
	s.confirmEligibility(35)
	sub := validSubmission()
	sub.ConfirmIdentity = "123421235"

	_, err := s.svc.Submit(s.ctx, sub)
	s.Require().Error(err)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationOutcome.WithLabelValues("submit", "invalid")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues("identity", string(validation.CodeIdentityMismatch))))
	s.Equal([]string{"identity"}, s.publisher.events[0].Fields)
}

func (s *ServiceSuite) TestSubmitStopsAtFirstByDefault() {
	s.confirmEligibility(35)
	sub := validSubmission()
	sub.Gender = domain.GenderOther
	sub.ConfirmIdentity = "X"

	_, err := s.svc.Submit(s.ctx, sub)
	var vErr *validation.Error
	s.Require().ErrorAs(err, &vErr)
	s.Equal(1, vErr.Result.Len())
	s.Contains(vErr.Result.Fields(), "gender_other")
}

func (s *ServiceSuite) TestSubmitCollectsAllWhenConfigured() {
	svc := New(s.consents, s.eligibility,
		WithValidationMode(validation.CollectAll),
		WithLocation(cat),
	)
	s.confirmEligibility(35)
	sub := validSubmission()
	sub.Gender = domain.GenderOther
	sub.ConfirmIdentity = "X"

	_, err := svc.Submit(s.ctx, sub)
	var vErr *validation.Error
	s.Require().ErrorAs(err, &vErr)
	fields := vErr.Result.Fields()
	s.Contains(fields, "gender_other")
	s.Contains(fields, "identity")
}

func (s *ServiceSuite) TestSubmitRequiresKeys() {
	cases := map[string]func(sub *models.Submission){
		"subject_identifier":   func(sub *models.Submission) { sub.SubjectIdentifier = "" },
		"screening_identifier": func(sub *models.Submission) { sub.ScreeningIdentifier = "" },
		"version":              func(sub *models.Submission) { sub.Version = "" },
		"consent_datetime":     func(sub *models.Submission) { sub.ConsentDatetime = time.Time{} },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			sub := validSubmission()
			mutate(sub)
			_, err := s.svc.Submit(s.ctx, sub)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest), "got %v", err)
			s.Contains(err.Error(), name)
		})
	}

	_, err := s.svc.Submit(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestSubmitFailsWhenAuditFails() {
	s.confirmEligibility(35)
	s.publisher.err = errors.New("outbox down")

	_, err := s.svc.Submit(s.ctx, validSubmission())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestValidateDoesNotSave() {
	s.confirmEligibility(35)

	res, err := s.svc.Validate(s.ctx, validSubmission(), validation.StopAtFirst)
	s.Require().NoError(err)
	s.True(res.Valid())

	_, err = s.consents.FindConsent(s.ctx, subject, domain.FirstConsentVersion)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Empty(s.publisher.events)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationOutcome.WithLabelValues("validate", "valid")))
}

func (s *ServiceSuite) TestValidateReportsAgeMismatch() {
	s.confirmEligibility(40)

	res, err := s.svc.Validate(s.ctx, validSubmission(), validation.CollectAll)
	s.Require().NoError(err)
	s.False(res.Valid())
	s.Contains(res.Fields(), "dob")
}

func (s *ServiceSuite) TestConfirmEligibilityKeepsCreation() {
	age := 35
	first, err := s.svc.ConfirmEligibility(s.ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      requestAt,
	})
	s.Require().NoError(err)
	s.Equal(requestAt, first.Created)
	s.Equal(actor, first.UserCreated)

	later := requestcontext.WithTime(s.ctx, requestAt.Add(24*time.Hour))
	age = 36
	second, err := s.svc.ConfirmEligibility(later, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      requestAt.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Equal(requestAt, second.Created)
	s.Equal(requestAt.Add(24*time.Hour), second.Modified)

	got, err := s.svc.GetEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Equal(36, *got.AgeInYears)

	s.Require().Len(s.publisher.events, 2)
	s.Equal(audit.ActionEligibilityConfirmed, s.publisher.events[1].Action)
	s.Equal(screening, s.publisher.events[1].ScreeningIdentifier)
}

func (s *ServiceSuite) TestConfirmEligibilityRejectsBadInput() {
	negative := -1
	cases := map[string]*models.EligibilityConfirmation{
		"missing screening": {ReportDatetime: requestAt},
		"negative age":      {ScreeningIdentifier: screening, AgeInYears: &negative, ReportDatetime: requestAt},
		"missing report":    {ScreeningIdentifier: screening},
	}
	for name, rec := range cases {
		s.Run(name, func() {
			_, err := s.svc.ConfirmEligibility(s.ctx, rec)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func (s *ServiceSuite) TestLookupsMapNotFound() {
	_, err := s.svc.GetConsent(s.ctx, subject, "1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.GetEligibility(s.ctx, screening)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	list, err := s.svc.ListConsents(s.ctx, subject)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)
}

type failingConsents struct {
	*store.InMemoryConsentStore
	findErr error
	saveErr error
}

func (f *failingConsents) FindConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.InMemoryConsentStore.FindConsent(ctx, subject, version)
}

func (f *failingConsents) SaveConsent(ctx context.Context, c *models.InformedConsent) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.InMemoryConsentStore.SaveConsent(ctx, c)
}

func TestSubmitErrorMapping(t *testing.T) {
	ctx := context.Background()
	age := 35
	eligibility := store.NewInMemoryEligibilityStore()
	require.NoError(t, eligibility.SaveEligibility(ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      requestAt,
	}))

	t.Run("lookup failure is internal", func(t *testing.T) {
		consents := &failingConsents{InMemoryConsentStore: store.NewInMemoryConsentStore(), findErr: sentinel.ErrUnavailable}
		svc := New(consents, eligibility, WithLocation(cat))

		_, err := svc.Submit(ctx, validSubmission())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("concurrent save is conflict", func(t *testing.T) {
		consents := &failingConsents{InMemoryConsentStore: store.NewInMemoryConsentStore(), saveErr: sentinel.ErrConflict}
		svc := New(consents, eligibility, WithLocation(cat))

		_, err := svc.Submit(ctx, validSubmission())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestSubmitConcurrentSameSubject(t *testing.T) {
	ctx := context.Background()
	age := 35
	consents := store.NewInMemoryConsentStore()
	eligibility := store.NewInMemoryEligibilityStore()
	require.NoError(t, eligibility.SaveEligibility(ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening,
		AgeInYears:          &age,
		ReportDatetime:      requestAt,
	}))
	svc := New(consents, eligibility, WithLocation(cat))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, validSubmission())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	list, err := svc.ListConsents(ctx, subject)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
