package detector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint3D_Ops(t *testing.T) {
	p := Point3D{X: 4, Y: 6, Z: 12}
	assert.Equal(t, Point3D{X: 3, Y: 4, Z: 12}, p.Sub(Point3D{X: 1, Y: 2}))
	assert.Equal(t, Point3D{X: 2, Y: 3, Z: 6}, p.Scaled(0.5))
	assert.InDelta(t, 13.0, Point3D{X: 3, Y: 4, Z: 12}.Norm(), 1e-12)
}

func TestHandLandmarks_Normalize(t *testing.T) {
	hand := HandLandmarks{Handedness: "Right", Score: 0.9}
	for i := range hand.Points {
		hand.Points[i] = Point3D{X: 100 + float64(i)*10, Y: 200 + float64(i)*5, Z: 50}
	}
	hand.Points[Wrist] = Point3D{X: 100, Y: 200, Z: 50}
	hand.Points[MiddleMCP] = Point3D{X: 130, Y: 240, Z: 50}

	norm := hand.Normalize()
	require.NotNil(t, norm)
	assert.Equal(t, Point3D{}, norm.Points[Wrist])
	assert.InDelta(t, 1.0, norm.Points[MiddleMCP].Norm(), 1e-9)
	assert.InDelta(t, 0.6, norm.Points[MiddleMCP].X, 1e-9)
	assert.InDelta(t, 0.8, norm.Points[MiddleMCP].Y, 1e-9)
	assert.Equal(t, "Right", norm.Handedness)
	assert.Equal(t, 0.9, norm.Score)

	// The source is left untouched.
	assert.Equal(t, Point3D{X: 130, Y: 240, Z: 50}, hand.Points[MiddleMCP])
}

func TestHandLandmarks_NormalizeDegenerate(t *testing.T) {
	var nilHand *HandLandmarks
	assert.Nil(t, nilHand.Normalize())

	hand := HandLandmarks{}
	hand.Points[Wrist] = Point3D{X: 10, Y: 20, Z: 5}
	hand.Points[MiddleMCP] = Point3D{X: 10, Y: 20, Z: 5}
	hand.Points[IndexTip] = Point3D{X: 12, Y: 20, Z: 5}

	norm := hand.Normalize()
	assert.Equal(t, Point3D{}, norm.Points[MiddleMCP])
	assert.Equal(t, Point3D{X: 2}, norm.Points[IndexTip], "translated but not scaled")
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	hands, err := m.Detect(nil)
	require.NoError(t, err)
	assert.Empty(t, hands)

	m.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})
	hands, err = m.Detect(nil)
	require.NoError(t, err)
	assert.Len(t, hands, 2)

	res, err := m.Process(nil)
	require.NoError(t, err)
	assert.Len(t, res.Hands, 2)

	pose := TPoseLandmarks()
	m.SetResult(&Result{Pose: &pose})
	res, err = m.Process(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Hands)
	assert.Same(t, &pose, res.Pose)

	boom := errors.New("boom")
	m.SetError(boom)
	_, err = m.Detect(nil)
	assert.ErrorIs(t, err, boom)
	_, err = m.Process(nil)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 6, m.Calls())
	assert.NoError(t, m.Close())
}

func TestFixtures_Shapes(t *testing.T) {
	thumbsUp := ThumbsUpLandmarks()
	assert.Less(t, thumbsUp.Points[ThumbTip].Y, thumbsUp.Points[ThumbIP].Y, "thumb points up")
	for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
		assert.Greater(t, thumbsUp.Points[tip].Y, thumbsUp.Points[tip-2].Y, "finger %d curled", tip)
	}

	palm := OpenPalmLandmarks()
	for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
		assert.Less(t, palm.Points[tip].Y, palm.Points[tip-2].Y, "finger %d extended", tip)
	}

	pointing := PointingLandmarks()
	assert.Less(t, pointing.Points[IndexTip].Y, pointing.Points[IndexPIP].Y)
	assert.Greater(t, pointing.Points[MiddleTip].Y, pointing.Points[MiddlePIP].Y)

	pose := TPoseLandmarks()
	assert.InDelta(t, pose.Points[PoseLeftWrist].Y, pose.Points[PoseLeftShoulder].Y, 1e-9, "arms level")
	assert.Greater(t, pose.Points[PoseLeftWrist].X, pose.Points[PoseRightWrist].X)

	for _, h := range []HandLandmarks{thumbsUp, palm, pointing} {
		for i, p := range h.Points {
			assert.True(t, p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1, "point %d inside the frame", i)
		}
	}
}
