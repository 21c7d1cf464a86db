package overlay

import (
	"gocv.io/x/gocv"
)

// CanvasThreshold separates painted pixels from the black background.
const CanvasThreshold = 20

// MergeCanvas paints every non-black pixel of canvas over img. img and
// canvas must share size and type (8UC3).
func MergeCanvas(img *gocv.Mat, canvas gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(canvas, &gray, gocv.ColorBGRToGray)

	inv := gocv.NewMat()
	defer inv.Close()
	gocv.Threshold(gray, &inv, CanvasThreshold, 255, gocv.ThresholdBinaryInv)

	invBGR := gocv.NewMat()
	defer invBGR.Close()
	gocv.CvtColor(inv, &invBGR, gocv.ColorGrayToBGR)

	gocv.BitwiseAnd(*img, invBGR, img)
	gocv.BitwiseOr(*img, canvas, img)
}

// Blend mixes layer into img as img*alpha + layer*beta.
func Blend(img *gocv.Mat, layer gocv.Mat, alpha, beta float64) {
	gocv.AddWeighted(*img, alpha, layer, beta, 0, img)
}
