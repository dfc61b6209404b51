package recognition

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"golang.org/x/sync/singleflight"
)

// snapshotState is an immutable view of the enrollment store.
type snapshotState struct {
	records  []facematch.Record
	loadedAt time.Time
	gen      uint64
}

// Snapshot caches the full enrollment list for matching. Readers never block
// each other; a stale or invalidated snapshot is reloaded once no matter how
// many requests ask for it at the same time.
type Snapshot struct {
	reader  database.EnrollmentReader
	ttl     time.Duration
	current atomic.Pointer[snapshotState]
	gen     atomic.Uint64
	group   singleflight.Group
	now     func() time.Time
}

// NewSnapshot creates a snapshot cache. A non-positive ttl reloads on every call.
func NewSnapshot(reader database.EnrollmentReader, ttl time.Duration) *Snapshot {
	return &Snapshot{reader: reader, ttl: ttl, now: time.Now}
}

// Records returns the cached enrollment list, loading it when missing, stale
// or invalidated. The returned slice must not be modified.
func (s *Snapshot) Records(ctx context.Context) ([]facematch.Record, error) {
	gen := s.gen.Load()
	if cur := s.current.Load(); cur != nil && cur.gen == gen && s.now().Sub(cur.loadedAt) < s.ttl {
		return cur.records, nil
	}

	// loads started before an invalidation never serve callers that arrive after it
	// the load is shared with other waiters, so one caller's cancellation must not fail them
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		list, err := s.reader.List(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("loading enrollments: %w", err)
		}
		records := make([]facematch.Record, 0, len(list))
		for _, rec := range list {
			records = append(records, facematch.Record{IdentityKey: rec.IdentityKey, Embedding: rec.Embedding})
		}
		if s.gen.Load() == gen {
			s.current.Store(&snapshotState{records: records, loadedAt: s.now(), gen: gen})
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]facematch.Record), nil
}

// Invalidate forces the next Records call to reload.
func (s *Snapshot) Invalidate() {
	s.gen.Add(1)
}
