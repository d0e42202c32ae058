package main

import (
	"database/sql"
	"log/slog"

	consentmetrics "trialconsent/internal/consent/metrics"
	consentservice "trialconsent/internal/consent/service"
	consentstore "trialconsent/internal/consent/store"
	"trialconsent/internal/platform/config"
	redisclient "trialconsent/internal/platform/redis"
	"trialconsent/pkg/platform/audit/publisher"
	auditmemory "trialconsent/pkg/platform/audit/store/memory"
	auditpostgres "trialconsent/pkg/platform/audit/store/postgres"
)

// asyncAuditBuffer sizes the in-memory audit queue.
const asyncAuditBuffer = 256

type consentDeps struct {
	consents    consentservice.ConsentStore
	eligibility consentservice.EligibilityStore
	tx          consentservice.ConsentStoreTx
	publisher   *publisher.Publisher
	// outbox is nil without Postgres; there is nothing to relay then.
	outbox *auditpostgres.Store
}

// buildConsentDeps picks Postgres stores when db is set and in-memory stores
// otherwise. With Postgres the audit publisher writes synchronously so the
// outbox row commits with the consent row.
func buildConsentDeps(db *sql.DB, rc *redisclient.Client, cfg *config.Config, log *slog.Logger, m *consentmetrics.Metrics) consentDeps {
	if db == nil {
		return consentDeps{
			consents:    consentstore.NewInMemoryConsentStore(),
			eligibility: withEligibilityCache(consentstore.NewInMemoryEligibilityStore(), rc, cfg, log, m),
			tx:          consentservice.NewShardedTx(0),
			publisher: publisher.NewPublisher(auditmemory.NewInMemoryStore(),
				publisher.WithAsyncBuffer(asyncAuditBuffer),
				publisher.WithLogger(log),
			),
		}
	}

	outbox := auditpostgres.New(db)
	return consentDeps{
		consents:    consentstore.NewPostgresConsentStore(db),
		eligibility: withEligibilityCache(consentstore.NewPostgresEligibilityStore(db), rc, cfg, log, m),
		tx:          newConsentPostgresTx(db),
		publisher:   publisher.NewPublisher(outbox, publisher.WithLogger(log)),
		outbox:      outbox,
	}
}

func withEligibilityCache(next consentstore.EligibilityBackend, rc *redisclient.Client, cfg *config.Config, log *slog.Logger, m *consentmetrics.Metrics) consentservice.EligibilityStore {
	if rc == nil {
		return next
	}
	return consentstore.NewRedisEligibilityCache(next, rc, cfg.Redis.EligibilityTTL, log, m)
}
