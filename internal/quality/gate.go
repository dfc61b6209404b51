package quality

import (
	"image"

	"github.com/kozaktomas/face-verify/internal/facematch"
)

// Measurement names reported in Verdict.Measurements.
const (
	MeasureFaces        = "faces"
	MeasureDetScore     = "det_score"
	MeasureFaceRatio    = "face_ratio"
	MeasureBlurVariance = "blur_variance"
	MeasureYawPx        = "yaw_px"
	MeasurePoseWarning  = "pose_warning"
)

// Verdict is the outcome of the quality gate. It always carries exactly one reason.
type Verdict struct {
	Passed       bool               `json:"passed"`
	Reason       Reason             `json:"reason_code"`
	Severity     Severity           `json:"severity"`
	Hint         string             `json:"hint"`
	UserMessage  string             `json:"message"`
	Measurements map[string]float64 `json:"measurements"`
}

// PoseWarning reports whether a passing verification frame had an off-axis pose.
func (v Verdict) PoseWarning() bool {
	return v.Measurements[MeasurePoseWarning] == 1
}

// Gate applies the ordered quality rules to detector output.
type Gate struct {
	profiles Profiles
	enabled  bool
}

// NewGate creates a gate. A disabled gate passes any frame with at least one face.
func NewGate(profiles Profiles, enabled bool) *Gate {
	return &Gate{profiles: profiles, enabled: enabled}
}

// Evaluate judges a frame and its detections. The first failing rule wins:
// no face, multiple faces, low confidence, small face, blur, then pose.
// On success the highest-confidence detection is returned.
func (g *Gate) Evaluate(frame image.Image, detections []facematch.Detection, mode Mode) (Verdict, *facematch.Detection) {
	m := map[string]float64{MeasureFaces: float64(len(detections))}

	if len(detections) == 0 {
		return fail(ReasonNoFace, m), nil
	}

	p := g.profiles.For(mode)
	if g.enabled && len(detections) > 1 && p.RejectMultiple {
		return fail(ReasonMultipleFaces, m), nil
	}

	best := selectBest(detections)
	m[MeasureDetScore] = best.Confidence

	if !g.enabled {
		return pass(m), best
	}

	if best.Confidence < p.MinDetScore {
		return fail(ReasonLowConfidence, m), nil
	}

	var bounds image.Rectangle
	if frame != nil {
		bounds = frame.Bounds()
	}
	ratio := best.BBox.AreaRatio(bounds.Dx(), bounds.Dy())
	m[MeasureFaceRatio] = ratio
	if ratio < p.MinFaceRatio {
		return fail(ReasonFaceTooSmall, m), nil
	}

	crop := best.BBox.Clamp(bounds)
	if crop.Empty() {
		return fail(ReasonFaceTooSmall, m), nil
	}

	blur := LaplacianVariance(Grayscale(frame, crop))
	m[MeasureBlurVariance] = blur
	if blur < p.MinBlurVariance {
		return fail(ReasonBlurry, m), nil
	}

	if best.Landmarks != nil {
		yaw := Yaw(*best.Landmarks)
		m[MeasureYawPx] = yaw
		if yaw > p.MaxYawPx {
			if mode == ModeEnrollment {
				return fail(ReasonPoseExtreme, m), nil
			}
			m[MeasurePoseWarning] = 1
		}
	}

	return pass(m), best
}

// selectBest returns the first detection with the highest confidence.
func selectBest(detections []facematch.Detection) *facematch.Detection {
	best := &detections[0]
	for i := 1; i < len(detections); i++ {
		if detections[i].Confidence > best.Confidence {
			best = &detections[i]
		}
	}
	return best
}

func fail(r Reason, m map[string]float64) Verdict {
	info := Info(r)
	return Verdict{
		Reason:       r,
		Severity:     info.Severity,
		Hint:         info.Hint,
		UserMessage:  info.UserMessage,
		Measurements: m,
	}
}

func pass(m map[string]float64) Verdict {
	v := fail(ReasonOK, m)
	v.Passed = true
	if v.PoseWarning() {
		v.Hint = PoseHint()
	}
	return v
}
