package service

import (
	"context"
	"sync"
	"time"

	dErrors "trialconsent/pkg/domain-errors"
	txcontext "trialconsent/pkg/platform/tx"
)

// ConsentStoreTx provides a transactional boundary for a validation pass and
// the writes that depend on it. Implementations may wrap a database
// transaction (carried on the context passed to fn) or, in memory, a lock.
type ConsentStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// numConsentShards spreads subjects over independent locks so unrelated
// submissions do not serialize.
const numConsentShards = 128

// defaultConsentTxTimeout is the maximum duration for a consent transaction.
const defaultConsentTxTimeout = 5 * time.Second

// shardedConsentTx serializes transactions that share a tx key (subject or
// screening identifier) using sharded mutexes.
type shardedConsentTx struct {
	shards  [numConsentShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx returns the in-memory ConsentStoreTx. A zero timeout uses
// the default.
func NewShardedTx(timeout time.Duration) ConsentStoreTx {
	return &shardedConsentTx{timeout: timeout}
}

func (t *shardedConsentTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultConsentTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// The wait for the lock may have used up the deadline.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	txCtx, runHooks := txcontext.WithCommitHooks(ctx)
	if err := fn(txCtx); err != nil {
		return err
	}
	runHooks(ctx)
	return nil
}

// selectShard picks a shard from the tx key on ctx, or shard 0.
func selectShard(ctx context.Context) int {
	if key := TxKey(ctx); key != "" {
		return int(hashConsentString(key) % numConsentShards)
	}
	return 0
}

// hashConsentString is 32-bit FNV-1a.
func hashConsentString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type txKey struct{}

var txKeyCtx = txKey{}

// WithTxKey names the record a transaction is about, so the in-memory tx
// serializes per subject.
func WithTxKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txKeyCtx, key)
}

// TxKey returns the key set by WithTxKey, or "".
func TxKey(ctx context.Context) string {
	key, _ := ctx.Value(txKeyCtx).(string)
	return key
}
