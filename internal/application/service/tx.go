package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"kabaleid/pkg/domain"
	dErrors "kabaleid/pkg/domain-errors"
)

// Tx provides the atomic boundary for review mutations. The approval flow
// appends the verification log, flips the status, re-checks the active-ID
// precondition and creates the digital ID inside one RunInTx call; either all
// of it lands or none of it does.
//
// Implementations key the boundary on the citizen so concurrent approvals for
// the same citizen serialize: a database transaction with row locking, or,
// in-memory, a citizen-sharded mutex.
type Tx interface {
	RunInTx(ctx context.Context, citizenID domain.CitizenID, fn func(ctx context.Context) error) error
}

const numTxShards = 64

// defaultTxTimeout bounds a review transaction.
const defaultTxTimeout = 5 * time.Second

// ShardedTx serializes review transactions per citizen using sharded mutexes.
// It backs the in-memory stores; two approvals for the same citizen hash to
// the same shard and run one after the other, so the in-transaction re-check
// observes the first approval's digital ID.
type ShardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{}
}

func (t *ShardedTx) RunInTx(ctx context.Context, citizenID domain.CitizenID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := shardFor(citizenID)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func shardFor(citizenID domain.CitizenID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(citizenID.String()))
	return int(h.Sum32() % numTxShards)
}
