package facematch

import (
	"image"
	"math"
	"testing"
)

func TestBBoxAreaRatio(t *testing.T) {
	tests := []struct {
		name     string
		bbox     BBox
		w, h     int
		expected float64
	}{
		{
			name:     "quarter of frame",
			bbox:     BBox{0, 0, 50, 50},
			w:        100,
			h:        100,
			expected: 0.25,
		},
		{
			name:     "fractional corners are truncated",
			bbox:     BBox{10.9, 10.9, 20.9, 20.9},
			w:        100,
			h:        100,
			expected: 0.01,
		},
		{
			name:     "box larger than frame is not clamped",
			bbox:     BBox{-50, -50, 150, 150},
			w:        100,
			h:        100,
			expected: 4.0,
		},
		{
			name:     "inverted box has no area",
			bbox:     BBox{80, 80, 20, 20},
			w:        100,
			h:        100,
			expected: 0,
		},
		{
			name:     "inverted on one axis",
			bbox:     BBox{20, 80, 80, 20},
			w:        100,
			h:        100,
			expected: 0,
		},
		{
			name:     "degenerate frame",
			bbox:     BBox{0, 0, 10, 10},
			w:        0,
			h:        100,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.bbox.AreaRatio(tt.w, tt.h)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("AreaRatio(%v) = %v, want %v", tt.bbox, result, tt.expected)
			}
		})
	}
}

func TestBBoxClamp(t *testing.T) {
	frame := image.Rect(0, 0, 100, 80)

	tests := []struct {
		name     string
		bbox     BBox
		expected image.Rectangle
		empty    bool
	}{
		{"inside", BBox{10, 10, 20, 30}, image.Rect(10, 10, 20, 30), false},
		{"overflowing right and bottom", BBox{90, 70, 120, 100}, image.Rect(90, 70, 100, 80), false},
		{"negative origin", BBox{-10, -5, 10, 5}, image.Rect(0, 0, 10, 5), false},
		{"fully outside", BBox{200, 200, 250, 250}, image.Rectangle{}, true},
		{"inverted", BBox{80, 80, 20, 20}, image.Rectangle{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.bbox.Clamp(frame)
			if got.Empty() != tt.empty {
				t.Fatalf("Clamp(%v).Empty() = %v, want %v", tt.bbox, got.Empty(), tt.empty)
			}
			if !tt.empty && got != tt.expected {
				t.Errorf("Clamp(%v) = %v, want %v", tt.bbox, got, tt.expected)
			}
		})
	}
}
