package detector

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, []byte("jpeg")))

	raw := buf.Bytes()
	require.Len(t, raw, 8)
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(raw[:4]))
	assert.Equal(t, "jpeg", string(raw[4:]))
}

func TestDecodeResult_Hands(t *testing.T) {
	line := []byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0.3},{"x":0.4,"y":0.5,"z":0.6}],"handedness":"Left","score":0.97}]}` + "\n")

	res, err := decodeResult(line)
	require.NoError(t, err)
	require.Len(t, res.Hands, 1)

	h := res.Hands[0]
	assert.Equal(t, "Left", h.Handedness)
	assert.InDelta(t, 0.97, h.Score, 1e-9)
	assert.Equal(t, Point3D{X: 0.4, Y: 0.5, Z: 0.6}, h.Points[ThumbCMC])
	assert.Equal(t, Point3D{}, h.Points[PinkyTip], "missing points stay zero")
}

func TestDecodeResult_AllSolutions(t *testing.T) {
	line := []byte(`{
		"faces":[{"points":[{"x":0.5,"y":0.5,"z":0}]}],
		"pose":{"points":[{"x":0.5,"y":0.2,"z":0}],"visibility":[0.8]},
		"detections":[{"box":{"xmin":0.1,"ymin":0.2,"width":0.3,"height":0.4},"score":0.91}],
		"objects":[{"landmarks_2d":[{"x":0.5,"y":0.5,"z":0}],"rotation":[1,0,0,0,1,0,0,0,1],"translation":[0,0,-1]}]
	}`)

	res, err := decodeResult(line)
	require.NoError(t, err)

	require.Len(t, res.Faces, 1)
	require.NotNil(t, res.Pose)
	assert.InDelta(t, 0.2, res.Pose.Points[PoseNose].Y, 1e-9)
	assert.InDelta(t, 0.8, res.Pose.Visibility[PoseNose], 1e-9)
	require.Len(t, res.Detections, 1)
	assert.InDelta(t, 0.91, res.Detections[0].Score, 1e-9)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, [3]float64{0, 0, -1}, res.Objects[0].Translation)
	assert.False(t, res.Empty())
}

func TestDecodeResult_Errors(t *testing.T) {
	_, err := decodeResult([]byte("not json"))
	assert.Error(t, err)

	_, err = decodeResult([]byte(`{"error":"model failed"}`))
	assert.ErrorContains(t, err, "model failed")
}

func TestNewMediaPipeService(t *testing.T) {
	script := filepath.Join(t.TempDir(), ScriptName)
	require.NoError(t, os.WriteFile(script, []byte("# helper\n"), 0o644))

	t.Run("defaults to hands", func(t *testing.T) {
		svc, err := NewMediaPipeService(Config{Script: script, Python: "python3"})
		require.NoError(t, err)
		assert.Equal(t, SolutionHands, svc.Solution())
		assert.Equal(t, 30*time.Second, svc.config.IdleTimeout)
	})

	t.Run("rejects unknown solution", func(t *testing.T) {
		_, err := NewMediaPipeService(Config{Script: script, Solution: "iris"})
		assert.Error(t, err)
	})

	t.Run("passes options to the helper", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Solution = SolutionObjectron
		cfg.ObjectronModel = "Shoe"
		cfg.Script = script
		svc, err := NewMediaPipeService(cfg)
		require.NoError(t, err)

		args := svc.args()
		assert.Equal(t, script, args[0])
		assert.Contains(t, args, "objectron")
		assert.Contains(t, args, "Shoe")
		assert.Contains(t, args, "0.5")
	})

	t.Run("close before start is a no-op", func(t *testing.T) {
		svc, err := NewMediaPipeService(Config{Script: script})
		require.NoError(t, err)
		assert.NoError(t, svc.Close())
	})
}

func TestSolution_Valid(t *testing.T) {
	for _, s := range []Solution{SolutionHands, SolutionFaceMesh, SolutionPose, SolutionHolistic, SolutionFaceDetection, SolutionObjectron} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Solution("iris").Valid())
}
