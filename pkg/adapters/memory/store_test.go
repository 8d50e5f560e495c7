package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nvencoder/pkg/adapters/memory"
	"github.com/aretw0/nvencoder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunResultStoreContract(t, store)
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	locker := memory.NewLocker()

	unlock, err := locker.Lock(ctx, "/out", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "/out", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second holder must wait")

	other, err := locker.Lock(ctx, "/elsewhere", time.Minute)
	require.NoError(t, err, "keys are independent")
	require.NoError(t, other(ctx))

	acquired := make(chan struct{})
	go func() {
		u, err := locker.Lock(ctx, "/out", time.Minute)
		if err == nil {
			_ = u(ctx)
		}
		close(acquired)
	}()

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "unlocking twice is harmless")

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
}

func TestMemoryLocker_Contract(t *testing.T) {
	locker := memory.NewLocker()
	ports.RunDistributedLockerContract(t, func() ports.DistributedLocker { return locker })
}
