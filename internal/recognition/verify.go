package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/embedding"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/kozaktomas/face-verify/internal/voting"
	"go.uber.org/zap"
)

// Mode selects between one-off checks and continuous verification.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeStream Mode = "stream"
)

// VerifyRequest is one frame to verify.
type VerifyRequest struct {
	Image     []byte
	Mode      Mode
	Threshold *float64 // nil uses the configured threshold
	SessionID string   // required in stream mode
}

// VerifyResult is the outcome of a verification. Rejections always carry a
// reason code and a hint.
type VerifyResult struct {
	Accepted     bool               `json:"accepted"`
	ReasonCode   string             `json:"reason_code,omitempty"`
	Severity     quality.Severity   `json:"severity,omitempty"`
	Hint         string             `json:"hint,omitempty"`
	Measurements map[string]float64 `json:"measurements,omitempty"`

	IdentityKey   string   `json:"identity_key,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	RawConfidence *float64 `json:"raw_confidence,omitempty"`
	PoseWarning   bool     `json:"pose_warning"`
	Threshold     *float64 `json:"threshold,omitempty"`

	Best           *facematch.Candidate `json:"best,omitempty"`
	Second         *facematch.Candidate `json:"second,omitempty"`
	Gap            *float64             `json:"gap,omitempty"`
	MinRequiredGap *float64             `json:"min_required_gap,omitempty"`

	SessionID string `json:"session_id,omitempty"`
	Stable    bool   `json:"stable,omitempty"`
	Votes     int    `json:"votes,omitempty"`
	Window    int    `json:"window,omitempty"`
}

// Verify runs one frame through the pipeline.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	threshold := s.opts.Threshold
	if req.Threshold != nil {
		if t := *req.Threshold; !(t >= 0 && t <= 1) {
			return nil, ErrInvalidThreshold
		}
		threshold = *req.Threshold
	}
	if req.Mode == "" {
		req.Mode = ModeSingle
	}
	if req.Mode == ModeStream && (req.SessionID == "" || s.votes == nil) {
		return nil, ErrSessionRequired
	}

	frame, err := embedding.DecodeImage(req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	detections, err := s.extractor.DetectFaces(ctx, req.Image)
	if err != nil {
		return nil, fmt.Errorf("extracting faces: %w", err)
	}

	verdict, det := s.gate.Evaluate(frame, detections, quality.ModeVerification)
	if !verdict.Passed {
		s.logger.Debug("frame rejected by quality gate",
			zap.String("reason", string(verdict.Reason)),
			zap.String("session_id", req.SessionID))
		return &VerifyResult{
			ReasonCode:   string(verdict.Reason),
			Severity:     verdict.Severity,
			Hint:         verdict.Hint,
			Measurements: verdict.Measurements,
			SessionID:    req.SessionID,
		}, nil
	}

	emb, err := s.usableEmbedding(det)
	if err != nil {
		return nil, err
	}

	candidates, err := s.match(ctx, emb, threshold)
	if err != nil {
		return nil, err
	}

	poseWarning := verdict.PoseWarning()
	decision := facematch.Decide(candidates, facematch.DecideParams{
		Threshold:   threshold,
		RequireGap:  req.Mode == ModeSingle,
		PoseWarning: poseWarning,
	})

	res := decisionResult(decision, threshold, poseWarning)
	res.Measurements = verdict.Measurements
	res.SessionID = req.SessionID

	if req.Mode == ModeStream {
		return s.observe(ctx, req.SessionID, decision, res)
	}

	if err := s.log(ctx, auditEntry(decision, req.SessionID)); err != nil {
		return nil, err
	}
	s.logDecision(decision, req)
	return res, nil
}

// observe feeds an accepted streaming decision into the session window.
func (s *Service) observe(ctx context.Context, sessionID string, d facematch.Decision, res *VerifyResult) (*VerifyResult, error) {
	if !d.Accepted {
		return res, nil
	}

	w, stable, ok := s.votes.Observe(sessionID, voting.Vote{
		IdentityKey: d.IdentityKey,
		Confidence:  d.AdjustedConfidence,
		Timestamp:   time.Now(),
	})
	if !ok {
		info := quality.Info(quality.ReasonCollecting)
		return &VerifyResult{
			ReasonCode:   string(quality.ReasonCollecting),
			Severity:     info.Severity,
			Hint:         info.Hint,
			Measurements: res.Measurements,
			PoseWarning:  res.PoseWarning,
			SessionID:    sessionID,
			Votes:        w.Len(),
			Window:       w.Size,
		}, nil
	}

	err := s.log(ctx, database.AuditEntry{
		IdentityKey: stable.IdentityKey,
		Confidence:  stable.Confidence,
		Status:      database.AuditStable,
		SessionID:   sessionID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stable identity",
		zap.String("identity_key", stable.IdentityKey),
		zap.Float64("confidence", stable.Confidence),
		zap.Int("votes", stable.Votes),
		zap.String("session_id", sessionID))

	conf := stable.Confidence
	return &VerifyResult{
		Accepted:     true,
		IdentityKey:  stable.IdentityKey,
		Confidence:   &conf,
		PoseWarning:  res.PoseWarning,
		Measurements: res.Measurements,
		SessionID:    sessionID,
		Stable:       true,
		Votes:        stable.Votes,
		Window:       w.Size,
	}, nil
}

func (s *Service) match(ctx context.Context, query []float32, threshold float64) ([]facematch.Candidate, error) {
	records, err := s.snapshot.Records(ctx)
	if err != nil {
		return nil, err
	}
	if s.opts.ParallelMin > 0 && len(records) >= s.opts.ParallelMin {
		return facematch.MatchParallel(ctx, query, records, threshold, s.opts.TopK, s.opts.Shards)
	}
	return facematch.Match(query, records, threshold, s.opts.TopK), nil
}

func (s *Service) log(ctx context.Context, entry database.AuditEntry) error {
	if s.audit == nil {
		return nil
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

func (s *Service) logDecision(d facematch.Decision, req VerifyRequest) {
	if d.Accepted {
		s.logger.Info("identity verified",
			zap.String("identity_key", d.IdentityKey),
			zap.Float64("confidence", d.AdjustedConfidence))
		return
	}
	s.logger.Info("verification rejected",
		zap.String("reason", string(d.RejectReason)),
		zap.Float64("raw_confidence", d.RawConfidence),
		zap.String("session_id", req.SessionID))
}

func decisionResult(d facematch.Decision, threshold float64, poseWarning bool) *VerifyResult {
	res := &VerifyResult{PoseWarning: poseWarning}
	if poseWarning {
		res.Hint = quality.PoseHint()
	}

	switch d.RejectReason {
	case "":
		res.Accepted = true
		res.IdentityKey = d.IdentityKey
		res.Confidence = ptr(d.AdjustedConfidence)
		res.RawConfidence = ptr(d.RawConfidence)
	case facematch.RejectNoMatch:
		res.reject(quality.ReasonNoMatch)
		res.Threshold = ptr(threshold)
	case facematch.RejectAmbiguous:
		res.reject(quality.ReasonAmbiguous)
		res.Best = &d.Gap.Best
		res.Second = &d.Gap.Second
		res.Gap = ptr(d.Gap.Gap)
		res.MinRequiredGap = ptr(d.Gap.MinRequired)
	case facematch.RejectBelowThreshold:
		res.reject(quality.ReasonBelowThreshold)
		res.Confidence = ptr(d.AdjustedConfidence)
		res.RawConfidence = ptr(d.RawConfidence)
		res.Threshold = ptr(threshold)
	}
	return res
}

func (r *VerifyResult) reject(reason quality.Reason) {
	info := quality.Info(reason)
	r.ReasonCode = string(reason)
	r.Severity = info.Severity
	r.Hint = info.Hint
}

func auditEntry(d facematch.Decision, sessionID string) database.AuditEntry {
	entry := database.AuditEntry{SessionID: sessionID}
	switch d.RejectReason {
	case "":
		entry.Status = database.AuditSuccess
		entry.IdentityKey = d.IdentityKey
		entry.Confidence = d.AdjustedConfidence
	case facematch.RejectNoMatch:
		entry.Status = database.AuditNoMatch
	case facematch.RejectAmbiguous:
		entry.Status = database.AuditAmbiguous
		entry.IdentityKey = d.Gap.Best.IdentityKey
		entry.Confidence = d.RawConfidence
	case facematch.RejectBelowThreshold:
		entry.Status = database.AuditLowConfidence
		entry.Confidence = d.AdjustedConfidence
	}
	return entry
}

func ptr[T any](v T) *T {
	return &v
}
