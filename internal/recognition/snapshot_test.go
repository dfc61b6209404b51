package recognition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEnrollmentStore()
	store.AddEnrollment(database.EnrollmentRecord{IdentityKey: "10000001", Embedding: []float32{1, 0}})
	snap := NewSnapshot(store, time.Hour)

	records, err := snap.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	store.AddEnrollment(database.EnrollmentRecord{IdentityKey: "10000002", Embedding: []float32{0, 1}})
	records, err = snap.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, store.ListCalls())

	snap.Invalidate()
	records, err = snap.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, store.ListCalls())
}

func TestSnapshot_TTL(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEnrollmentStore()
	snap := NewSnapshot(store, time.Minute)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	snap.now = func() time.Time { return now }

	_, err := snap.Records(ctx)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = snap.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ListCalls())

	now = now.Add(time.Minute)
	_, err = snap.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.ListCalls())
}

func TestSnapshot_ZeroTTLAlwaysReloads(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEnrollmentStore()
	snap := NewSnapshot(store, 0)

	for range 3 {
		_, err := snap.Records(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.ListCalls())
}

func TestSnapshot_LoadError(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEnrollmentStore()
	store.ListError = errors.New("db down")
	snap := NewSnapshot(store, time.Hour)

	_, err := snap.Records(ctx)
	require.Error(t, err)

	store.ListError = nil
	records, err := snap.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshot_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockEnrollmentStore()
	store.AddEnrollment(database.EnrollmentRecord{IdentityKey: "10000001", Embedding: []float32{1, 0}})
	snap := NewSnapshot(store, time.Hour)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := snap.Records(ctx)
			assert.NoError(t, err)
			assert.Len(t, records, 1)
		}()
	}
	wg.Wait()

	// singleflight collapses overlapping loads, later calls hit the cache
	assert.LessOrEqual(t, store.ListCalls(), 50)
	before := store.ListCalls()
	_, err := snap.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, store.ListCalls())
}

// ctxCheckingStore fails List when the context it receives is already done.
type ctxCheckingStore struct {
	*mock.MockEnrollmentStore
}

func (s ctxCheckingStore) List(ctx context.Context) ([]database.EnrollmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MockEnrollmentStore.List(ctx)
}

func TestSnapshot_LoadIgnoresCallerCancellation(t *testing.T) {
	store := mock.NewMockEnrollmentStore()
	store.AddEnrollment(database.EnrollmentRecord{IdentityKey: "10000001", Embedding: []float32{1, 0}})
	snap := NewSnapshot(ctxCheckingStore{store}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := snap.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// the shared load was cached for everyone else
	records, err = snap.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, store.ListCalls())
}
