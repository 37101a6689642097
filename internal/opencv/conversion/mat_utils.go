package conversion

import (
	"fmt"
	"image"

	"meme-maker/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ScaleShift computes saturate(alpha*v + beta) for every 8-bit element.
func ScaleShift(src *safe.Mat, alpha, beta float64) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "scale shift"); err != nil {
		return nil, err
	}

	srcMat := src.GetMat()
	dst := gocv.NewMat()
	srcMat.ConvertToWithParams(&dst, gocv.MatTypeCV8U, float32(alpha), float32(beta))
	if dst.Empty() {
		dst.Close()
		return nil, fmt.Errorf("scale shift produced an empty Mat")
	}
	return safe.Adopt(dst, src.Tracker(), "scale_shift")
}

// GaussianBlur blurs every channel with an odd square kernel.
func GaussianBlur(src *safe.Mat, kernel int, sigma float64) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "gaussian blur"); err != nil {
		return nil, err
	}
	if kernel < 1 || kernel%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel must be odd and positive, got %d", kernel)
	}

	dst := gocv.NewMat()
	gocv.GaussianBlur(src.GetMat(), &dst, image.Pt(kernel, kernel), sigma, sigma, gocv.BorderReflect101)
	return safe.Adopt(dst, src.Tracker(), "gaussian_blur")
}
