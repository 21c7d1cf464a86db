package overlay

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/drishti/internal/detector"
)

// PasteThreshold is the gray level below which pasted pixels count as
// background and leave the destination untouched.
const PasteThreshold = 10

// ScaleMatrix returns the 3x3 transform that scales x and y by s and
// keeps z.
func ScaleMatrix(s float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		s, 0, 0,
		0, s, 0,
		0, 0, 1,
	})
}

// TransformPoints applies the 3x3 matrix m to every normalized point
// (row vector times m transposed).
func TransformPoints(points []detector.Point3D, m mat.Matrix) []detector.Point3D {
	if len(points) == 0 {
		return nil
	}
	src := mat.NewDense(len(points), 3, nil)
	for i, p := range points {
		src.SetRow(i, []float64{p.X, p.Y, p.Z})
	}

	var dst mat.Dense
	dst.Mul(src, m.T())

	out := make([]detector.Point3D, len(points))
	for i := range out {
		out[i] = detector.Point3D{X: dst.At(i, 0), Y: dst.At(i, 1), Z: dst.At(i, 2)}
	}
	return out
}

// PasteMasked resizes src to roi and copies its non-dark pixels onto dst.
// roi is clipped to dst; nothing happens when it is empty.
func PasteMasked(dst *gocv.Mat, src gocv.Mat, roi image.Rectangle) {
	full := image.Rect(0, 0, dst.Cols(), dst.Rows())
	clipped := roi.Intersect(full)
	if clipped.Empty() || src.Empty() {
		return
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, roi.Size(), 0, 0, gocv.InterpolationLinear)

	// Cut the part of the resized image that falls inside dst.
	offset := clipped.Sub(roi.Min)
	part := resized.Region(offset)
	defer part.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(part, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, PasteThreshold, 255, gocv.ThresholdBinary)

	target := dst.Region(clipped)
	defer target.Close()
	part.CopyToWithMask(&target, mask)
}
