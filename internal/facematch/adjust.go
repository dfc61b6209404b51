package facematch

// PosePenalty is subtracted from the confidence of frames with a pose warning.
const PosePenalty = 0.03

// AdjustConfidence applies quality penalties to a raw similarity.
// The result never drops below zero.
func AdjustConfidence(raw float64, poseWarning bool) float64 {
	if !poseWarning {
		return raw
	}
	return max(raw-PosePenalty, 0)
}

// DecideParams are the inputs of a single recognition decision.
type DecideParams struct {
	Threshold   float64
	RequireGap  bool
	PoseWarning bool
}

// Decide turns ranked candidates into an accept or reject decision:
// gap validation first, then the pose-adjusted confidence against the threshold.
func Decide(candidates []Candidate, p DecideParams) Decision {
	if len(candidates) == 0 {
		return Decision{RejectReason: RejectNoMatch}
	}

	gap := ValidateGap(candidates, p.RequireGap)
	if gap != nil && !gap.Passed {
		return Decision{
			RawConfidence: candidates[0].Similarity,
			Gap:           gap,
			RejectReason:  RejectAmbiguous,
		}
	}

	best := candidates[0]
	adjusted := AdjustConfidence(best.Similarity, p.PoseWarning)
	if adjusted < p.Threshold {
		return Decision{
			RawConfidence:      best.Similarity,
			AdjustedConfidence: adjusted,
			Gap:                gap,
			RejectReason:       RejectBelowThreshold,
		}
	}

	return Decision{
		Accepted:           true,
		IdentityKey:        best.IdentityKey,
		RawConfidence:      best.Similarity,
		AdjustedConfidence: adjusted,
		Gap:                gap,
	}
}
