package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)

	ctx := WithTx(context.Background(), nil)
	_, ok = From(ctx)
	assert.False(t, ok, "nil transactions are not stored")

	sqlTx := &sql.Tx{}
	ctx = WithTx(context.Background(), sqlTx)
	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
	assert.Same(t, sqlTx, Executor(ctx, nil))
}

func TestExecutor_FallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Executor(context.Background(), db))
}

func TestAfterCommit(t *testing.T) {
	t.Run("runs immediately outside a transaction", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func(context.Context) { ran = true })
		assert.True(t, ran)
	})

	t.Run("waits for commit", func(t *testing.T) {
		ctx, commit := WithCommitHooks(context.Background())
		var order []int
		AfterCommit(ctx, func(context.Context) { order = append(order, 1) })
		AfterCommit(ctx, func(context.Context) { order = append(order, 2) })
		assert.Empty(t, order)

		commit(context.Background())
		assert.Equal(t, []int{1, 2}, order)

		commit(context.Background())
		assert.Equal(t, []int{1, 2}, order, "hooks run once")
	})

	t.Run("dropped when never committed", func(t *testing.T) {
		ctx, _ := WithCommitHooks(context.Background())
		ran := false
		AfterCommit(ctx, func(context.Context) { ran = true })
		assert.False(t, ran)
	})

	t.Run("nested transactions defer to the outer commit", func(t *testing.T) {
		outer, commitOuter := WithCommitHooks(context.Background())
		inner, commitInner := WithCommitHooks(outer)
		ran := false
		AfterCommit(inner, func(context.Context) { ran = true })

		commitInner(context.Background())
		assert.False(t, ran)
		commitOuter(context.Background())
		assert.True(t, ran)
	})
}
