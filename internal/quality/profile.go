package quality

// Mode selects which threshold profile a frame is judged against.
type Mode string

const (
	// ModeEnrollment is the strict mode used for enrollment photos.
	ModeEnrollment Mode = "enrollment"
	// ModeVerification is the lenient mode used for live frames.
	ModeVerification Mode = "verification"
)

// Profile is a set of gate thresholds for one mode.
type Profile struct {
	MinDetScore     float64 `yaml:"min_det_score" json:"min_det_score"`
	MinFaceRatio    float64 `yaml:"min_face_ratio" json:"min_face_ratio"`
	MinBlurVariance float64 `yaml:"min_blur_variance" json:"min_blur_variance"`
	MaxYawPx        float64 `yaml:"max_yaw_px" json:"max_yaw_px"`
	RejectMultiple  bool    `yaml:"reject_multiple" json:"reject_multiple"`
}

// Profiles pairs the strict and lenient threshold sets.
type Profiles struct {
	Strict  Profile `yaml:"strict" json:"strict"`
	Lenient Profile `yaml:"lenient" json:"lenient"`
}

// For returns the profile used by mode. Unknown modes get the strict profile.
func (p Profiles) For(mode Mode) Profile {
	if mode == ModeVerification {
		return p.Lenient
	}
	return p.Strict
}
