package conversion

import (
	"fmt"

	"meme-maker/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// SplitAlpha separates a BGRA Mat into a BGR Mat and its alpha plane.
func SplitAlpha(src *safe.Mat) (bgr *safe.Mat, alpha *safe.Mat, err error) {
	if err := safe.ValidateBGRA(src, "alpha split"); err != nil {
		return nil, nil, err
	}

	planes := gocv.Split(src.GetMat())
	if len(planes) != 4 {
		closeAll(planes)
		return nil, nil, fmt.Errorf("expected 4 planes, got %d", len(planes))
	}
	defer closeAll(planes[:3])

	alpha, err = safe.Adopt(planes[3], src.Tracker(), "alpha")
	if err != nil {
		return nil, nil, err
	}

	bgrMat := gocv.NewMat()
	gocv.Merge(planes[:3], &bgrMat)
	bgr, err = safe.Adopt(bgrMat, src.Tracker(), "bgr")
	if err != nil {
		alpha.Close()
		return nil, nil, err
	}
	return bgr, alpha, nil
}

// MergeAlpha recombines a BGR Mat with an alpha plane into BGRA.
func MergeAlpha(bgr, alpha *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(bgr, "alpha merge"); err != nil {
		return nil, err
	}
	if err := safe.ValidateMatForOperation(alpha, "alpha merge"); err != nil {
		return nil, err
	}
	if bgr.Channels() != 3 || alpha.Channels() != 1 {
		return nil, fmt.Errorf("alpha merge requires 3+1 channels, got %d+%d", bgr.Channels(), alpha.Channels())
	}

	planes := gocv.Split(bgr.GetMat())
	defer closeAll(planes)

	dst := gocv.NewMat()
	gocv.Merge(append(planes, alpha.GetMat()), &dst)
	return safe.Adopt(dst, bgr.Tracker(), "bgra_output")
}

// AverageGray replaces every channel of a BGR Mat with (B+G+R)/3.
func AverageGray(bgr *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(bgr, "average grayscale"); err != nil {
		return nil, err
	}
	if bgr.Channels() != 3 {
		return nil, fmt.Errorf("average grayscale requires 3 channels, got %d", bgr.Channels())
	}

	planes := gocv.Split(bgr.GetMat())
	defer closeAll(planes)

	floats := make([]gocv.Mat, len(planes))
	for i, p := range planes {
		floats[i] = gocv.NewMat()
		p.ConvertTo(&floats[i], gocv.MatTypeCV32F)
	}
	defer closeAll(floats)

	sum := gocv.NewMat()
	defer sum.Close()
	gocv.AddWeighted(floats[0], 1.0/3, floats[1], 1.0/3, 0, &sum)

	avgF := gocv.NewMat()
	defer avgF.Close()
	gocv.AddWeighted(sum, 1, floats[2], 1.0/3, 0, &avgF)

	gray := gocv.NewMat()
	defer gray.Close()
	avgF.ConvertTo(&gray, gocv.MatTypeCV8U)

	dst := gocv.NewMat()
	gocv.Merge([]gocv.Mat{gray, gray, gray}, &dst)
	return safe.Adopt(dst, bgr.Tracker(), "gray_average")
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
