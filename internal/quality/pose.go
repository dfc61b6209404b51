package quality

import (
	"math"

	"github.com/kozaktomas/face-verify/internal/facematch"
)

// Yaw estimates head rotation as the horizontal offset in pixels between
// the nose and the midpoint of the eyes.
func Yaw(lm facematch.Landmarks) float64 {
	mid := (lm.LeftEye.X + lm.RightEye.X) / 2
	return math.Abs(lm.Nose.X - mid)
}
