package facematch

import "image"

// BBox is a face bounding box [x1, y1, x2, y2] in frame pixels.
type BBox [4]float64

// Pixels truncates the box corners to integer pixel coordinates.
// Corners are kept as given, so an inverted box stays empty.
func (b BBox) Pixels() image.Rectangle {
	return image.Rectangle{
		Min: image.Pt(int(b[0]), int(b[1])),
		Max: image.Pt(int(b[2]), int(b[3])),
	}
}

// Area returns the box area computed on truncated corners.
// The box is not clamped to any frame, so it may exceed the frame area.
// An inverted box has zero area.
func (b BBox) Area() int {
	x1, y1, x2, y2 := int(b[0]), int(b[1]), int(b[2]), int(b[3])
	return max(0, x2-x1) * max(0, y2-y1)
}

// AreaRatio returns the box area divided by the frame area.
// Returns 0 for a degenerate frame.
func (b BBox) AreaRatio(frameWidth, frameHeight int) float64 {
	if frameWidth <= 0 || frameHeight <= 0 {
		return 0
	}
	return float64(b.Area()) / float64(frameWidth*frameHeight)
}

// Clamp intersects the truncated box with the frame bounds.
// The result is empty when the box is inverted or lies fully outside the frame.
func (b BBox) Clamp(frame image.Rectangle) image.Rectangle {
	r := b.Pixels()
	if r.Empty() {
		return image.Rectangle{}
	}
	return r.Intersect(frame)
}
