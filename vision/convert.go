package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// ToMat returns img as an OpenCV Mat suitable for marker detection.  Frames
// are returned as is, other images are converted into a new Mat which the
// caller must Close when owned is true
func ToMat(img image.Image) (mat gocv.Mat, owned bool, err error) {

	switch src := img.(type) {
	case *Frame:
		if src.Mat.Empty() {
			return mat, false, fmt.Errorf("frame is empty")
		}

		return src.Mat, false, nil

	case *image.Gray:
		mat, err = gocv.ImageGrayToMatGray(src)

		if err != nil {
			return mat, false, fmt.Errorf("error converting gray image: %w", err)
		}

		return mat, true, nil

	case nil:
		return mat, false, fmt.Errorf("no image")
	}

	// normalise any other image type to RGBA before conversion
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)

	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	mat, err = gocv.ImageToMatRGB(rgba)

	if err != nil {
		return mat, false, fmt.Errorf("error converting image: %w", err)
	}

	return mat, true, nil
}
