// Package facematch holds the pure decision steps of face verification:
// similarity ranking, gap validation and confidence adjustment.
package facematch

// Point is a pixel coordinate in frame space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks are the five keypoints reported by the detector.
type Landmarks struct {
	LeftEye    Point `json:"left_eye"`
	RightEye   Point `json:"right_eye"`
	Nose       Point `json:"nose"`
	LeftMouth  Point `json:"left_mouth"`
	RightMouth Point `json:"right_mouth"`
}

// Detection is a single face found in a frame.
type Detection struct {
	BBox       BBox       `json:"bbox"`
	Landmarks  *Landmarks `json:"landmarks,omitempty"`
	Confidence float64    `json:"confidence"`
	Embedding  []float32  `json:"-"`
}

// Record is one enrolled identity as seen by the matcher.
type Record struct {
	IdentityKey string
	Embedding   []float32
}

// Candidate is a ranked identity match.
type Candidate struct {
	IdentityKey string  `json:"identity_key"`
	Similarity  float64 `json:"similarity"`
}

// RejectReason explains why a recognition decision was not accepted.
type RejectReason string

const (
	RejectNoMatch        RejectReason = "no_match"        // nothing above the threshold
	RejectAmbiguous      RejectReason = "ambiguous"       // top two too close together
	RejectBelowThreshold RejectReason = "below_threshold" // adjusted confidence fell under the threshold
)

// Decision is the outcome of matching a single embedding.
// Exactly one of IdentityKey (accepted) or RejectReason is set.
type Decision struct {
	Accepted           bool         `json:"accepted"`
	IdentityKey        string       `json:"identity_key,omitempty"`
	RawConfidence      float64      `json:"raw_confidence,omitempty"`
	AdjustedConfidence float64      `json:"adjusted_confidence,omitempty"`
	Gap                *GapResult   `json:"gap,omitempty"`
	RejectReason       RejectReason `json:"reject_reason,omitempty"`
}
