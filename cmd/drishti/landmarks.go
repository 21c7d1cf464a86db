package main

import (
	"context"
	"flag"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/overlay"
	"github.com/ayusman/drishti/internal/segment"
)

// face3dScale enlarges the transformed mesh around the frame origin.
const face3dScale = 1.5

// landmarkDemo opens a camera and a helper for solution, then hands every
// result to draw.
func landmarkDemo(ctx context.Context, e *env, args []string, name string, solution detector.Solution,
	draw func(img *gocv.Mat, res *detector.Result)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	fs.Parse(args)

	svc, err := e.Landmarker(solution)
	if err != nil {
		return err
	}
	defer svc.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	l := &loop{title: name, cam: cam, fpsAt: image.Pt(10, 30)}
	return l.run(ctx, func(img *gocv.Mat) error {
		res, err := svc.Process(img)
		if err != nil {
			return err
		}
		draw(img, res)
		return nil
	}, nil)
}

func runHands(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "hands", detector.SolutionHands, func(img *gocv.Mat, res *detector.Result) {
		for i := range res.Hands {
			overlay.DrawHand(img, &res.Hands[i])
		}
	})
}

func runFace(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "face", detector.SolutionFaceMesh, func(img *gocv.Mat, res *detector.Result) {
		for i := range res.Faces {
			overlay.DrawFace(img, &res.Faces[i], overlay.Green)
		}
	})
}

func runPose(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "pose", detector.SolutionPose, func(img *gocv.Mat, res *detector.Result) {
		if res.Pose != nil {
			overlay.DrawPose(img, res.Pose, 0.5)
		}
	})
}

func runHolistic(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "holistic", detector.SolutionHolistic, func(img *gocv.Mat, res *detector.Result) {
		if res.Pose != nil {
			overlay.DrawPose(img, res.Pose, 0.5)
		}
		for i := range res.Faces {
			overlay.DrawFace(img, &res.Faces[i], overlay.Cyan)
		}
		for i := range res.Hands {
			overlay.DrawHand(img, &res.Hands[i])
		}
	})
}

func runObjectron(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "objectron", detector.SolutionObjectron, func(img *gocv.Mat, res *detector.Result) {
		overlay.DrawObjects(img, res.Objects)
	})
}

func runPoseColor(ctx context.Context, e *env, args []string) error {
	return landmarkDemo(ctx, e, args, "posecolor", detector.SolutionPose, func(img *gocv.Mat, res *detector.Result) {
		if res.Pose == nil {
			return
		}
		overlay.DrawPose(img, res.Pose, 0.5)
		segment.ReplaceColor(img, segment.DarkLower, segment.DarkUpper, overlay.Red)
	})
}

func runFace3D(ctx context.Context, e *env, args []string) error {
	m := overlay.ScaleMatrix(face3dScale)
	return landmarkDemo(ctx, e, args, "face3d", detector.SolutionFaceMesh, func(img *gocv.Mat, res *detector.Result) {
		w, h := img.Cols(), img.Rows()
		for i := range res.Faces {
			for _, p := range detector.ToPixels(overlay.TransformPoints(res.Faces[i].Points, m), w, h) {
				overlay.Marker(img, p, 1, overlay.Blue)
			}
			overlay.DrawFace(img, &res.Faces[i], overlay.Green)
		}
	})
}

// runFaceDetect draws helper face detections, or Haar cascade boxes with -haar.
func runFaceDetect(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("facedetect", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	haar := fs.Bool("haar", false, "use the OpenCV Haar cascade instead of the landmark helper")
	fs.Parse(args)

	var lm detector.Landmarker
	var err error
	if *haar {
		lm, err = e.Haar()
	} else {
		lm, err = e.Landmarker(detector.SolutionFaceDetection)
	}
	if err != nil {
		return err
	}
	defer lm.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	l := &loop{title: "facedetect", cam: cam, fpsAt: image.Pt(10, 30)}
	return l.run(ctx, func(img *gocv.Mat) error {
		res, err := lm.Process(img)
		if err != nil {
			return err
		}
		overlay.DrawDetections(img, res.Detections)
		return nil
	}, nil)
}

// runFaceSwap pastes a captured frame over every tracked face. 'c'
// captures the current frame as the replacement.
func runFaceSwap(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("faceswap", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	fs.Parse(args)

	svc, err := e.Landmarker(detector.SolutionFaceMesh)
	if err != nil {
		return err
	}
	defer svc.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	replacement := gocv.NewMat()
	defer replacement.Close()

	raw := gocv.NewMat()
	defer raw.Close()

	l := &loop{
		title: "faceswap",
		cam:   cam,
		fpsAt: image.Pt(10, 30),
		hud:   []string{"Press 'c' to capture the face to paste"},
	}
	return l.run(ctx, func(img *gocv.Mat) error {
		img.CopyTo(&raw)

		res, err := svc.Process(img)
		if err != nil {
			return err
		}
		w, h := img.Cols(), img.Rows()
		for i := range res.Faces {
			if !replacement.Empty() {
				overlay.PasteMasked(img, replacement, res.Faces[i].Bounds(w, h))
			}
			overlay.DrawFace(img, &res.Faces[i], overlay.Green)
		}
		return nil
	}, func(key int, _ *gocv.Mat) {
		if key == 'c' && !raw.Empty() {
			raw.CopyTo(&replacement)
			zap.L().Info("replacement face captured")
		}
	})
}
