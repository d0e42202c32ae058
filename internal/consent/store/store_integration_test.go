//go:build integration

package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"trialconsent/internal/consent/metrics"
	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
	"trialconsent/pkg/platform/sentinel"
	txcontext "trialconsent/pkg/platform/tx"
	"trialconsent/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg          *containers.PostgresContainer
	consents    *PostgresConsentStore
	eligibility *PostgresEligibilityStore
	ctx         context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().Postgres(s.T())
	s.consents = NewPostgresConsentStore(s.pg.DB)
	s.eligibility = NewPostgresEligibilityStore(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx))
}

func (s *PostgresStoreSuite) TestConsentRoundTrip() {
	c := newConsent("1")
	s.Require().NoError(s.consents.SaveConsent(s.ctx, c))

	got, err := s.consents.FindConsent(s.ctx, subject, "1")
	s.Require().NoError(err)
	s.Equal(c.ID, got.ID)
	s.Equal(c.DOB, got.DOB)
	s.Equal(c.IdentityType, got.IdentityType)
	s.True(c.ConsentDatetime.Equal(got.ConsentDatetime))
}

func (s *PostgresStoreSuite) TestConsentMissing() {
	_, err := s.consents.FindConsent(s.ctx, subject, "1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConsentUpsertSameID() {
	c := newConsent("1")
	s.Require().NoError(s.consents.SaveConsent(s.ctx, c))
	c.Initials = "JD"
	c.UserModified = "monitor"
	s.Require().NoError(s.consents.SaveConsent(s.ctx, c))

	got, err := s.consents.FindConsent(s.ctx, subject, "1")
	s.Require().NoError(err)
	s.Equal("JD", got.Initials)
	s.Equal("coordinator", got.UserCreated)
	s.Equal("monitor", got.UserModified)
}

func (s *PostgresStoreSuite) TestConsentOtherIDConflicts() {
	s.Require().NoError(s.consents.SaveConsent(s.ctx, newConsent("1")))
	s.ErrorIs(s.consents.SaveConsent(s.ctx, newConsent("1")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDuplicateIDIsUniqueViolation() {
	first := newConsent("1")
	s.Require().NoError(s.consents.SaveConsent(s.ctx, first))
	second := newConsent("2")
	second.ID = first.ID
	s.ErrorIs(s.consents.SaveConsent(s.ctx, second), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestListOrdersByVersion() {
	for _, v := range []domain.ConsentVersion{"10", "2", "1"} {
		s.Require().NoError(s.consents.SaveConsent(s.ctx, newConsent(v)))
	}
	list, err := s.consents.ListConsents(s.ctx, subject)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal(domain.ConsentVersion("10"), list[2].Version)
}

func (s *PostgresStoreSuite) TestRolledBackTxLeavesNoRow() {
	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(s.ctx, tx)
	s.Require().NoError(s.consents.SaveConsent(txCtx, newConsent("1")))
	s.Require().NoError(tx.Rollback())

	_, err = s.consents.FindConsent(s.ctx, subject, "1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestEligibilityNullableAge() {
	now := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.eligibility.SaveEligibility(s.ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening, ReportDatetime: now, Created: now, Modified: now,
	}))
	got, err := s.eligibility.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Nil(got.AgeInYears)

	age := 35
	s.Require().NoError(s.eligibility.SaveEligibility(s.ctx, &models.EligibilityConfirmation{
		ScreeningIdentifier: screening, AgeInYears: &age, ReportDatetime: now, Created: now, Modified: now,
	}))
	got, err = s.eligibility.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Equal(35, *got.AgeInYears)
}

type RedisEligibilityCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *countingEligibility
	metrics *metrics.Metrics
	cache   *RedisEligibilityCache
	ctx     context.Context
}

type countingEligibility struct {
	*InMemoryEligibilityStore
	finds int
}

func (c *countingEligibility) FindEligibility(ctx context.Context, s domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	c.finds++
	return c.InMemoryEligibilityStore.FindEligibility(ctx, s)
}

func TestRedisEligibilityCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisEligibilityCacheSuite))
}

func (s *RedisEligibilityCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().Redis(s.T())
	s.ctx = context.Background()
}

func (s *RedisEligibilityCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.backend = &countingEligibility{InMemoryEligibilityStore: NewInMemoryEligibilityStore()}
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.cache = NewRedisEligibilityCache(s.backend, s.redis.Client, time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)), s.metrics)
}

func (s *RedisEligibilityCacheSuite) TestReadThrough() {
	age := 35
	s.Require().NoError(s.backend.SaveEligibility(s.ctx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &age}))

	for range 3 {
		got, err := s.cache.FindEligibility(s.ctx, screening)
		s.Require().NoError(err)
		s.Equal(35, *got.AgeInYears)
	}
	s.Equal(1, s.backend.finds)
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.EligibilityCache.WithLabelValues("hit")))
}

func (s *RedisEligibilityCacheSuite) TestMissIsNotCached() {
	_, err := s.cache.FindEligibility(s.ctx, screening)
	s.ErrorIs(err, sentinel.ErrNotFound)

	age := 40
	s.Require().NoError(s.cache.SaveEligibility(s.ctx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &age}))
	got, err := s.cache.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Equal(40, *got.AgeInYears)
}

func (s *RedisEligibilityCacheSuite) TestSaveInvalidates() {
	age := 35
	s.Require().NoError(s.cache.SaveEligibility(s.ctx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &age}))
	_, err := s.cache.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)

	corrected := 36
	s.Require().NoError(s.cache.SaveEligibility(s.ctx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &corrected}))
	got, err := s.cache.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Equal(36, *got.AgeInYears)
}


func (s *RedisEligibilityCacheSuite) TestInvalidatesAfterCommit() {
	age := 35
	s.Require().NoError(s.cache.SaveEligibility(s.ctx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &age}))
	stale, err := s.cache.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)

	txCtx, commit := txcontext.WithCommitHooks(s.ctx)
	corrected := 36
	s.Require().NoError(s.cache.SaveEligibility(txCtx, &models.EligibilityConfirmation{ScreeningIdentifier: screening, AgeInYears: &corrected}))

	// A reader that fetched the committed row before this write re-caches it.
	payload, err := json.Marshal(stale)
	s.Require().NoError(err)
	key := s.redis.Client.Key("eligibility", screening.String())
	s.Require().NoError(s.redis.Client.Set(s.ctx, key, payload, time.Minute).Err())

	commit(s.ctx)

	got, err := s.cache.FindEligibility(s.ctx, screening)
	s.Require().NoError(err)
	s.Equal(36, *got.AgeInYears)
}
