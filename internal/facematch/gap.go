package facematch

// gapTolerance absorbs float error at band boundaries, so 0.72-0.67 counts as 0.05.
const gapTolerance = 1e-9

// GapResult describes the margin between the two best candidates.
type GapResult struct {
	Best        Candidate `json:"best"`
	Second      Candidate `json:"second"`
	Gap         float64   `json:"gap"`
	MinRequired float64   `json:"min_required_gap"`
	Passed      bool      `json:"passed"`
}

// MinGap returns the margin the best candidate needs over the runner-up.
// Weaker best matches need a wider margin.
func MinGap(best float64) float64 {
	switch {
	case best < 0.70:
		return 0.08
	case best < 0.75:
		return 0.05
	default:
		return 0.02
	}
}

// ValidateGap checks that the top candidate is clearly ahead of the second.
// It returns nil when fewer than two candidates exist or requireGap is false;
// otherwise the result says whether the margin was met. A gap equal to the
// required margin passes.
func ValidateGap(candidates []Candidate, requireGap bool) *GapResult {
	if !requireGap || len(candidates) < 2 {
		return nil
	}

	best, second := candidates[0], candidates[1]
	gap := best.Similarity - second.Similarity
	minGap := MinGap(best.Similarity)

	return &GapResult{
		Best:        best,
		Second:      second,
		Gap:         gap,
		MinRequired: minGap,
		Passed:      gap+gapTolerance >= minGap,
	}
}
