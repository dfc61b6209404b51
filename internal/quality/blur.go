package quality

import (
	"image"

	"golang.org/x/image/draw"
)

// Grayscale copies the region r of src into a new 8-bit gray image
// using the ITU-R 601 luma weights.
func Grayscale(src image.Image, r image.Rectangle) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(gray, gray.Bounds(), src, r.Min, draw.Src)
	return gray
}

// LaplacianVariance measures sharpness as the variance of the 3x3 Laplacian
// [0 1 0; 1 -4 1; 0 1 0] over the image. Borders are mirrored without
// repeating the edge pixel. Higher values mean a sharper image.
func LaplacianVariance(img *image.Gray) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		x = reflect101(x, w)
		y = reflect101(y, h)
		return float64(img.Pix[y*img.Stride+x])
	}

	n := float64(w * h)
	var sum, sumSq float64
	for y := range h {
		for x := range w {
			v := at(x, y-1) + at(x-1, y) - 4*at(x, y) + at(x+1, y) + at(x, y+1)
			sum += v
			sumSq += v * v
		}
	}

	mean := sum / n
	return max(sumSq/n-mean*mean, 0)
}

// reflect101 mirrors an out-of-range index back into [0, n).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
