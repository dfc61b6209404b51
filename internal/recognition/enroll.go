package recognition

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/embedding"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/quality"
	"go.uber.org/zap"
)

// lookalikeLimit caps the look-alike warnings returned per enrollment.
const lookalikeLimit = 5

// EnrollResult is the outcome of an enrollment attempt. When Enrolled is
// false the verdict explains why the photo was refused.
type EnrollResult struct {
	Enrolled    bool                  `json:"enrolled"`
	IdentityKey string                `json:"identity_key"`
	Verdict     quality.Verdict       `json:"quality"`
	PhotoPath   string                `json:"photo_path,omitempty"`
	Replaced    bool                  `json:"replaced"`
	Lookalikes  []facematch.Candidate `json:"lookalikes,omitempty"`
}

// Enroll checks a photo with the strict quality profile and stores the face
// embedding under identityKey, replacing any earlier enrollment. Nothing is
// written when the photo fails the gate or the store rejects the record.
func (s *Service) Enroll(ctx context.Context, identityKey string, photo []byte) (*EnrollResult, error) {
	key, err := validKey(identityKey)
	if err != nil {
		return nil, err
	}

	frame, err := embedding.DecodeImage(photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	detections, err := s.extractor.DetectFaces(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("extracting faces: %w", err)
	}

	verdict, det := s.gate.Evaluate(frame, detections, quality.ModeEnrollment)
	res := &EnrollResult{IdentityKey: key, Verdict: verdict}
	if !verdict.Passed {
		s.logger.Info("enrollment photo rejected",
			zap.String("identity_key", key),
			zap.String("reason", string(verdict.Reason)))
		return res, nil
	}

	emb, err := s.usableEmbedding(det)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(key)
	defer unlock()

	previous, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", key, err)
	}

	path, err := s.photos.Save(key, photo)
	if err != nil {
		return nil, err
	}

	err = s.store.Upsert(ctx, database.EnrollmentRecord{
		IdentityKey: key,
		Embedding:   emb,
		PhotoPath:   path,
	})
	if err != nil {
		if rmErr := s.photos.Remove(path); rmErr != nil {
			s.logger.Warn("failed to clean up photo", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("storing enrollment %s: %w", key, err)
	}

	s.snapshot.Invalidate()
	if previous != nil && previous.PhotoPath != path {
		if err := s.photos.Remove(previous.PhotoPath); err != nil {
			s.logger.Warn("failed to remove replaced photo", zap.String("identity_key", key), zap.Error(err))
		}
	}

	res.Enrolled = true
	res.PhotoPath = path
	res.Replaced = previous != nil
	res.Lookalikes = s.lookalikes(key, emb)

	s.logger.Info("identity enrolled",
		zap.String("identity_key", key),
		zap.Bool("replaced", res.Replaced),
		zap.Int("lookalikes", len(res.Lookalikes)))
	return res, nil
}

// lookalikes indexes the new embedding and reports other identities that are
// close enough to be confused with it.
func (s *Service) lookalikes(key string, emb []float32) []facematch.Candidate {
	if s.index == nil {
		return nil
	}
	s.index.Upsert(key, emb)
	if s.opts.LookalikeThreshold <= 0 {
		return nil
	}
	return s.index.Similar(emb, lookalikeLimit, s.opts.LookalikeThreshold, key)
}
