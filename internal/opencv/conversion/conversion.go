package conversion

import (
	"fmt"
	"image"
	"image/draw"

	"meme-maker/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ImageToBGRA converts a Go image into an 8-bit BGRA Mat with straight
// (non-premultiplied) alpha.
func ImageToBGRA(img image.Image, tracker safe.MemoryTracker) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if err := safe.ValidateDimensions(width, height, "image to Mat conversion"); err != nil {
		return nil, err
	}

	nrgba := toNRGBA(img)
	data := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
		out := data[y*width*4 : (y+1)*width*4]
		for x := 0; x < width*4; x += 4 {
			out[x+0] = row[x+2]
			out[x+1] = row[x+1]
			out[x+2] = row[x+0]
			out[x+3] = row[x+3]
		}
	}

	return safe.FromBytes(height, width, gocv.MatTypeCV8UC4, data, tracker, "bgra_input")
}

// BGRAToImage converts an 8-bit BGRA Mat back into an NRGBA image.
func BGRAToImage(src *safe.Mat) (*image.NRGBA, error) {
	if err := safe.ValidateBGRA(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows, cols := src.Rows(), src.Cols()
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	if len(data) < rows*cols*4 {
		return nil, fmt.Errorf("Mat data too short: %d bytes for %dx%d", len(data), cols, rows)
	}

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for i := 0; i < rows*cols*4; i += 4 {
		img.Pix[i+0] = data[i+2]
		img.Pix[i+1] = data[i+1]
		img.Pix[i+2] = data[i+0]
		img.Pix[i+3] = data[i+3]
	}
	return img, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	return n
}
