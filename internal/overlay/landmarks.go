package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/detector"
)

// DrawConnections draws the edges of a landmark graph followed by its points.
func DrawConnections(img *gocv.Mat, points []detector.Point3D, conns []detector.Connection, line, dot color.RGBA) {
	w, h := img.Cols(), img.Rows()
	px := detector.ToPixels(points, w, h)
	for _, c := range conns {
		if c[0] >= len(px) || c[1] >= len(px) {
			continue
		}
		gocv.Line(img, px[c[0]], px[c[1]], line, 2)
	}
	for _, p := range px {
		gocv.Circle(img, p, 4, dot, -1)
	}
}

// DrawHand draws the hand skeleton.
func DrawHand(img *gocv.Mat, hand *detector.HandLandmarks) {
	if hand == nil {
		return
	}
	DrawConnections(img, hand.Points[:], detector.HandConnections, Green, Red)
}

// DrawPose draws the body skeleton, skipping landmarks the model marked
// as hidden.
func DrawPose(img *gocv.Mat, pose *detector.PoseLandmarks, minVisibility float64) {
	if pose == nil {
		return
	}
	w, h := img.Cols(), img.Rows()
	visible := func(i int) bool { return pose.Visibility[i] >= minVisibility }
	for _, c := range detector.PoseConnections {
		if !visible(c[0]) || !visible(c[1]) {
			continue
		}
		gocv.Line(img, detector.ToPixel(pose.Points[c[0]], w, h), detector.ToPixel(pose.Points[c[1]], w, h), White, 2)
	}
	for i, p := range pose.Points {
		if visible(i) {
			gocv.Circle(img, detector.ToPixel(p, w, h), 4, Red, -1)
		}
	}
}

// DrawFace draws every mesh point as a small dot.
func DrawFace(img *gocv.Mat, face *detector.FaceLandmarks, c color.RGBA) {
	if face == nil {
		return
	}
	for _, p := range detector.ToPixels(face.Points, img.Cols(), img.Rows()) {
		gocv.Circle(img, p, 1, c, -1)
	}
}

// DetectionLabel is the caption drawn above detection i.
func DetectionLabel(i int, score float64) string {
	return fmt.Sprintf("Face %d: %s", i+1, Percent(score))
}

// DrawDetections draws each face box with its caption and a total count.
func DrawDetections(img *gocv.Mat, dets []detector.Detection) {
	w, h := img.Cols(), img.Rows()
	for i, d := range dets {
		r := d.Box.Rect(w, h)
		gocv.Rectangle(img, r, Green, 2)
		at := image.Pt(r.Min.X, max(r.Min.Y-10, 15))
		gocv.PutText(img, DetectionLabel(i, d.Score), at, Font, 0.6, Green, 2)
		for _, kp := range d.Keypoints {
			gocv.Circle(img, detector.ToPixel(kp, w, h), 3, Red, -1)
		}
	}
	Label(img, fmt.Sprintf("Faces: %d", len(dets)), image.Pt(10, h-20), Yellow)
}

// DrawRects draws plain pixel boxes, as produced by the Haar detector.
func DrawRects(img *gocv.Mat, rects []image.Rectangle, c color.RGBA) {
	for _, r := range rects {
		gocv.Rectangle(img, r, c, 2)
	}
}

// DrawObjects draws each objectron box and its centre.
func DrawObjects(img *gocv.Mat, objs []detector.Object3D) {
	for i := range objs {
		pts := objs[i].Landmarks2D[:]
		DrawConnections(img, pts, detector.BoxConnections, Cyan, Magenta)
	}
}
