//go:build integration

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialconsent/internal/consent/models"
	consentservice "trialconsent/internal/consent/service"
	consentstore "trialconsent/internal/consent/store"
	txcontext "trialconsent/pkg/platform/tx"
	"trialconsent/pkg/testutil/containers"
)

func TestConsentPostgresTx(t *testing.T) {
	pg := containers.GetManager().Postgres(t)
	require.NoError(t, pg.TruncateTables(context.Background()))
	store := consentstore.NewPostgresEligibilityStore(pg.DB)
	tx := newConsentPostgresTx(pg.DB)
	age := 35
	rec := &models.EligibilityConfirmation{
		ScreeningIdentifier: "S0001",
		AgeInYears:          &age,
		ReportDatetime:      time.Date(2021, time.March, 10, 8, 0, 0, 0, time.UTC),
	}

	t.Run("rolls back on error", func(t *testing.T) {
		ctx := consentservice.WithTxKey(context.Background(), "S0001")
		err := tx.RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, store.SaveEligibility(ctx, rec))
			return errors.New("abort")
		})
		require.Error(t, err)

		_, err = store.FindEligibility(context.Background(), "S0001")
		assert.Error(t, err)
	})

	t.Run("commits on success", func(t *testing.T) {
		ctx := consentservice.WithTxKey(context.Background(), "S0001")
		err := tx.RunInTx(ctx, func(ctx context.Context) error {
			return store.SaveEligibility(ctx, rec)
		})
		require.NoError(t, err)

		got, err := store.FindEligibility(context.Background(), "S0001")
		require.NoError(t, err)
		assert.Equal(t, 35, *got.AgeInYears)
	})

	t.Run("commit hooks run only after commit", func(t *testing.T) {
		committed := false
		err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
			txcontext.AfterCommit(ctx, func(context.Context) { committed = true })
			return errors.New("abort")
		})
		require.Error(t, err)
		assert.False(t, committed)

		err = tx.RunInTx(context.Background(), func(ctx context.Context) error {
			txcontext.AfterCommit(ctx, func(context.Context) { committed = true })
			return nil
		})
		require.NoError(t, err)
		assert.True(t, committed)
	})
}
