package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	batchID := "contract-" + time.Now().Format("20060102150405.000000000")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newResult := func(id string, offset time.Duration) domain.FileResult {
		return domain.FileResult{
			ID:         id,
			BatchID:    batchID,
			Input:      "/videos/" + id + ".mkv",
			Output:     "/out/" + id + ".mp4",
			Status:     domain.StatusEncoded,
			StartedAt:  base.Add(offset),
			FinishedAt: base.Add(offset + time.Minute),
			Elapsed:    time.Minute,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := batchID + "-a"
		res := newResult(id, 0)
		res.Message = "ok"

		require.NoError(t, store.Save(ctx, res), "Save should not return error")
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, res.Input, loaded.Input)
		assert.Equal(t, res.Status, loaded.Status)
		assert.Equal(t, "ok", loaded.Message)
		assert.True(t, res.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+batchID)
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		id := batchID + "-r"
		first := newResult(id, 0)
		require.NoError(t, store.Save(ctx, first))
		defer func() { _ = store.Delete(ctx, id) }()

		second := first
		second.Status = domain.StatusFailed
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, loaded.Status)
	})

	t.Run("Delete", func(t *testing.T) {
		id := batchID + "-d"
		require.NoError(t, store.Save(ctx, newResult(id, 0)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrResultNotFound, "Load after Delete should return ErrResultNotFound")
		assert.NoError(t, store.Delete(ctx, id), "Deleting twice should be a no-op")
	})

	t.Run("List Ordered By Start", func(t *testing.T) {
		late := newResult(batchID+"-2", 2*time.Minute)
		early := newResult(batchID+"-1", 0)
		other := newResult("other-"+batchID, time.Minute)
		other.BatchID = "other-" + batchID

		for _, r := range []domain.FileResult{late, early, other} {
			require.NoError(t, store.Save(ctx, r))
		}
		defer func() {
			_ = store.Delete(ctx, late.ID)
			_ = store.Delete(ctx, early.ID)
			_ = store.Delete(ctx, other.ID)
		}()

		results, err := store.List(ctx, batchID)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, early.ID, results[0].ID)
		assert.Equal(t, late.ID, results[1].ID)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		ids := make([]string, 0, len(all))
		for _, r := range all {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, other.ID)
		assert.Contains(t, ids, early.ID)
	})
}

// RunDistributedLockerContract verifies that lockers returned by newLocker
// exclude each other. Each call must return a locker on the same backend,
// standing in for a separate process.
func RunDistributedLockerContract(t *testing.T, newLocker func() DistributedLocker) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("150405.000000000")
	const ttl = time.Minute

	t.Run("Lock And Unlock", func(t *testing.T) {
		key := prefix + "/videos/out"
		unlock, err := newLocker().Lock(ctx, key, ttl)
		require.NoError(t, err)
		require.NotNil(t, unlock)
		require.NoError(t, unlock(ctx))

		again, err := newLocker().Lock(ctx, key, ttl)
		require.NoError(t, err, "a released key can be locked again")
		require.NoError(t, again(ctx))
	})

	t.Run("Contention Blocks Until Deadline", func(t *testing.T) {
		key := prefix + "-shared"
		unlock, err := newLocker().Lock(ctx, key, ttl)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		defer cancel()
		_, err = newLocker().Lock(waitCtx, key, ttl)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Waiter Acquires After Release", func(t *testing.T) {
		key := prefix + "-handover"
		unlock, err := newLocker().Lock(ctx, key, ttl)
		require.NoError(t, err)

		acquired := make(chan UnlockFunc, 1)
		go func() {
			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			next, err := newLocker().Lock(waitCtx, key, ttl)
			if err != nil {
				close(acquired)
				return
			}
			acquired <- next
		}()

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, unlock(ctx))

		select {
		case next, ok := <-acquired:
			require.True(t, ok, "waiter should acquire the released lock")
			require.NoError(t, next(ctx))
		case <-time.After(5 * time.Second):
			t.Fatal("waiter never acquired the lock")
		}
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		a, err := newLocker().Lock(ctx, prefix+"-a", ttl)
		require.NoError(t, err)
		defer func() { _ = a(ctx) }()

		quick, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		b, err := newLocker().Lock(quick, prefix+"-b", ttl)
		require.NoError(t, err)
		require.NoError(t, b(ctx))
	})

	t.Run("Unlock Twice", func(t *testing.T) {
		unlock, err := newLocker().Lock(ctx, prefix+"-twice", ttl)
		require.NoError(t, err)
		assert.NoError(t, unlock(ctx))
		assert.NoError(t, unlock(ctx), "a second unlock is a no-op")
	})
}
