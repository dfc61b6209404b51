// Package quality decides whether a captured frame is usable for face
// enrollment or verification.
package quality

// Reason identifies the single rule that decided a verdict.
type Reason string

const (
	ReasonOK            Reason = "ok"
	ReasonNoFace        Reason = "no_face"
	ReasonMultipleFaces Reason = "multiple_faces"
	ReasonFaceTooSmall  Reason = "face_too_small"
	ReasonBlurry        Reason = "blurry"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonPoseExtreme   Reason = "pose_extreme"

	// Recognition outcomes share the table so every rejection has a hint.
	ReasonNoMatch        Reason = "no_match"
	ReasonAmbiguous      Reason = "ambiguous"
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonCollecting     Reason = "collecting"
)

// Severity grades a verdict for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ReasonInfo is the presentation data attached to a reason.
type ReasonInfo struct {
	Severity    Severity
	Hint        string
	UserMessage string
}

// poseHint is also attached to passing verification frames with a pose warning.
const poseHint = "Look straight at the camera and keep your head level."

var reasonTable = map[Reason]ReasonInfo{
	ReasonOK: {
		Severity:    SeverityInfo,
		Hint:        "Photo quality is good.",
		UserMessage: "Face detected.",
	},
	ReasonNoFace: {
		Severity:    SeverityError,
		Hint:        "Make sure your face is fully visible and well lit.",
		UserMessage: "No face was detected.",
	},
	ReasonMultipleFaces: {
		Severity:    SeverityError,
		Hint:        "Only one person may be in front of the camera.",
		UserMessage: "More than one face was detected.",
	},
	ReasonFaceTooSmall: {
		Severity:    SeverityWarning,
		Hint:        "Move closer to the camera.",
		UserMessage: "Your face is too small in the frame.",
	},
	ReasonBlurry: {
		Severity:    SeverityWarning,
		Hint:        "Hold still and clean the camera lens.",
		UserMessage: "The image is blurry.",
	},
	ReasonLowConfidence: {
		Severity:    SeverityWarning,
		Hint:        "Improve the lighting and remove anything covering your face.",
		UserMessage: "The face could not be detected reliably.",
	},
	ReasonPoseExtreme: {
		Severity:    SeverityWarning,
		Hint:        poseHint,
		UserMessage: "Your head is turned too far.",
	},
	ReasonNoMatch: {
		Severity:    SeverityWarning,
		Hint:        "Make sure you are enrolled and try again.",
		UserMessage: "Face not recognized.",
	},
	ReasonAmbiguous: {
		Severity:    SeverityWarning,
		Hint:        "Face the camera directly and try again.",
		UserMessage: "Recognition was not conclusive.",
	},
	ReasonBelowThreshold: {
		Severity:    SeverityWarning,
		Hint:        "Improve the lighting and try again.",
		UserMessage: "Recognition confidence is too low.",
	},
	ReasonCollecting: {
		Severity:    SeverityInfo,
		Hint:        "Hold still while your identity is confirmed.",
		UserMessage: "Verifying.",
	},
}

// Info returns the table entry for r. Unknown reasons are reported as errors.
func Info(r Reason) ReasonInfo {
	if info, ok := reasonTable[r]; ok {
		return info
	}
	return ReasonInfo{
		Severity:    SeverityError,
		Hint:        "Please try again.",
		UserMessage: "The photo could not be checked.",
	}
}

// PoseHint is the hint shown with a pose warning on a passing frame.
func PoseHint() string {
	return poseHint
}
