// Package recognition runs the face verification pipeline: quality gate,
// matching against enrolled identities, ambiguity checks, confidence
// adjustment and, for streaming sessions, temporal voting. It also owns
// enrollment writes.
package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/kozaktomas/face-verify/internal/voting"
	"go.uber.org/zap"
)

// Extractor detects faces and computes their embeddings.
type Extractor interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]facematch.Detection, error)
}

// Options tunes the pipeline.
type Options struct {
	Threshold          float64
	TopK               int
	EmbeddingDim       int // 0 accepts any dimension
	ParallelMin        int // snapshot size from which matching is sharded, 0 disables
	Shards             int
	SnapshotTTL        time.Duration
	LookalikeThreshold float64 // 0 disables look-alike warnings
}

// Deps are the collaborators of a Service. Index and Photos are optional.
type Deps struct {
	Extractor Extractor
	Gate      *quality.Gate
	Store     database.EnrollmentWriter
	Audit     database.AuditWriter
	Stats     database.StatsReader
	Votes     *voting.Store
	Index     *database.HNSWIndex
	Photos    *PhotoStore
	Logger    *zap.Logger
}

// Service is the recognition pipeline. It is safe for concurrent use.
type Service struct {
	extractor Extractor
	gate      *quality.Gate
	store     database.EnrollmentWriter
	audit     database.AuditWriter
	stats     database.StatsReader
	votes     *voting.Store
	index     *database.HNSWIndex
	photos    *PhotoStore
	snapshot  *Snapshot
	locks     *keyLocks
	opts      Options
	logger    *zap.Logger
}

// NewService wires a recognition service.
func NewService(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	photos := deps.Photos
	if photos == nil {
		photos = NewPhotoStore("")
	}
	return &Service{
		extractor: deps.Extractor,
		gate:      deps.Gate,
		store:     deps.Store,
		audit:     deps.Audit,
		stats:     deps.Stats,
		votes:     deps.Votes,
		index:     deps.Index,
		photos:    photos,
		snapshot:  NewSnapshot(deps.Store, opts.SnapshotTTL),
		locks:     newKeyLocks(),
		opts:      opts,
		logger:    logger.Named("recognition"),
	}
}

// WarmUp loads the enrollment snapshot and builds the look-alike index.
func (s *Service) WarmUp(ctx context.Context) (int, error) {
	records, err := s.snapshot.Records(ctx)
	if err != nil {
		return 0, err
	}
	if s.index != nil {
		list := make([]database.EnrollmentRecord, len(records))
		for i, r := range records {
			list[i] = database.EnrollmentRecord{IdentityKey: r.IdentityKey, Embedding: r.Embedding}
		}
		s.index.Build(list)
	}
	return len(records), nil
}

// Lookup returns the enrollment of an identity.
func (s *Service) Lookup(ctx context.Context, identityKey string) (*database.EnrollmentRecord, error) {
	key, err := validKey(identityKey)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// IsEnrolled reports whether an identity has an enrollment.
func (s *Service) IsEnrolled(ctx context.Context, identityKey string) (bool, error) {
	key, err := validKey(identityKey)
	if err != nil {
		return false, err
	}
	has, err := s.store.Has(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", key, err)
	}
	return has, nil
}

// Stats returns store-wide counters.
func (s *Service) Stats(ctx context.Context) (database.Stats, error) {
	if s.stats == nil {
		n, err := s.store.Count(ctx)
		if err != nil {
			return database.Stats{}, fmt.Errorf("counting enrollments: %w", err)
		}
		return database.Stats{TotalEnrollments: n}, nil
	}
	st, err := s.stats.Stats(ctx)
	if err != nil {
		return database.Stats{}, fmt.Errorf("reading stats: %w", err)
	}
	return st, nil
}

// Dismiss clears the voting window of a streaming session.
func (s *Service) Dismiss(sessionID string) {
	if s.votes != nil {
		s.votes.Dismiss(sessionID)
	}
}

// Delete removes an enrollment together with its photo.
func (s *Service) Delete(ctx context.Context, identityKey string) error {
	key, err := validKey(identityKey)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(key)
	defer unlock()

	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", key, err)
	}
	if rec == nil {
		return ErrNotFound
	}

	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if !deleted {
		return ErrNotFound
	}

	s.snapshot.Invalidate()
	if s.index != nil {
		s.index.Remove(key)
	}
	if err := s.photos.Remove(rec.PhotoPath); err != nil {
		s.logger.Warn("failed to remove enrollment photo", zap.String("identity_key", key), zap.Error(err))
	}

	s.logger.Info("enrollment deleted", zap.String("identity_key", key))
	return nil
}

func validKey(identityKey string) (string, error) {
	key := facematch.NormalizeIdentityKey(identityKey)
	if !facematch.ValidIdentityKey(key) {
		return "", ErrInvalidIdentityKey
	}
	return key, nil
}

// usableEmbedding checks the embedding of a detection that passed the gate.
func (s *Service) usableEmbedding(det *facematch.Detection) ([]float32, error) {
	if det == nil || len(det.Embedding) == 0 {
		return nil, ErrMissingEmbedding
	}
	if s.opts.EmbeddingDim > 0 && len(det.Embedding) != s.opts.EmbeddingDim {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrMissingEmbedding, len(det.Embedding), s.opts.EmbeddingDim)
	}
	return det.Embedding, nil
}
