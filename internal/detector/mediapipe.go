package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// ScriptName is the helper script looked up on disk.
const ScriptName = "landmark_service.py"

// MediaPipeService runs one MediaPipe solution in a Python helper process.
// Frames go to stdin as a 4-byte big-endian length and a JPEG body; each
// frame is answered by one JSON line on stdout. The helper starts on the
// first frame and stops after Config.IdleTimeout without frames.
type MediaPipeService struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeService validates the configuration and locates the helper.
// The Python process is started lazily on first use.
func NewMediaPipeService(config Config) (*MediaPipeService, error) {
	if config.Solution == "" {
		config.Solution = SolutionHands
	}
	if !config.Solution.Valid() {
		return nil, fmt.Errorf("unknown solution %q", config.Solution)
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 30 * time.Second
	}

	script := config.Script
	if script == "" {
		script = findServiceScript()
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeService{
		config: config,
		script: script,
		python: python,
	}, nil
}

// NewMediaPipeDetector creates a hands-only service.
func NewMediaPipeDetector(config Config) (*MediaPipeService, error) {
	config.Solution = SolutionHands
	return NewMediaPipeService(config)
}

// Solution returns the configured solution.
func (s *MediaPipeService) Solution() Solution {
	return s.config.Solution
}

// Detect returns the hands found in frame.
func (s *MediaPipeService) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	res, err := s.Process(frame)
	if err != nil {
		return nil, err
	}
	return res.Hands, nil
}

// Process sends frame to the helper and decodes its answer.
func (s *MediaPipeService) Process(frame *gocv.Mat) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	if err := writeFrame(s.stdin, buf.GetBytes()); err != nil {
		s.kill()
		return nil, err
	}

	line, err := s.stdout.ReadBytes('\n')
	if err != nil {
		s.kill()
		return nil, fmt.Errorf("read response: %w", err)
	}

	res, err := decodeResult(line)
	if err != nil {
		return nil, err
	}

	s.lastUsed = time.Now()
	s.resetIdleTimer()

	return res, nil
}

// Close shuts down the Python process.
func (s *MediaPipeService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *MediaPipeService) args() []string {
	c := s.config
	return []string{
		s.script,
		"--solution", string(c.Solution),
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--max-faces", strconv.Itoa(c.MaxFaces),
		"--min-detection-confidence", strconv.FormatFloat(c.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', -1, 64),
		"--objectron-model", c.ObjectronModel,
	}
}

func (s *MediaPipeService) ensureStarted() error {
	if s.started {
		return nil
	}

	s.cmd = exec.Command(s.python, s.args()...)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	s.lastUsed = time.Now()

	zap.L().Info("landmark service started",
		zap.String("solution", string(s.config.Solution)),
		zap.Int("pid", s.cmd.Process.Pid))

	return nil
}

// kill tears the helper down after a protocol error so the next frame
// starts a fresh process.
func (s *MediaPipeService) kill() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.shutdown()
}

func (s *MediaPipeService) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	zap.L().Info("landmark service stopped", zap.String("solution", string(s.config.Solution)))

	return err
}

func (s *MediaPipeService) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(s.config.IdleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.shutdown(); err != nil {
			zap.L().Debug("idle shutdown", zap.Error(err))
		}
	})
}

// writeFrame writes one length-prefixed frame.
func writeFrame(w io.Writer, data []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))

	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", ScriptName),
		filepath.Join("..", "scripts", ScriptName),
		filepath.Join(execDir, "scripts", ScriptName),
		filepath.Join(os.Getenv("HOME"), ".drishti", "scripts", ScriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".drishti/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// wireResult mirrors the helper's JSON line. Hands arrive with a
// variable-length point list and are copied into fixed arrays.
type wireResult struct {
	Hands      []wireHand      `json:"hands"`
	Faces      []FaceLandmarks `json:"faces"`
	Pose       *wirePose       `json:"pose"`
	Detections []Detection     `json:"detections"`
	Objects    []wireObject    `json:"objects"`
	Error      string          `json:"error"`
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type wirePose struct {
	Points     []Point3D `json:"points"`
	Visibility []float64 `json:"visibility"`
}

type wireObject struct {
	Landmarks2D []Point3D `json:"landmarks_2d"`
	Rotation    []float64 `json:"rotation"`
	Translation []float64 `json:"translation"`
}

func decodeResult(line []byte) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if w.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", w.Error)
	}

	res := &Result{
		Faces:      w.Faces,
		Detections: w.Detections,
	}

	for _, h := range w.Hands {
		res.Hands = append(res.Hands, h.toHandLandmarks())
	}

	if w.Pose != nil {
		p := &PoseLandmarks{}
		copy(p.Points[:], w.Pose.Points)
		copy(p.Visibility[:], w.Pose.Visibility)
		res.Pose = p
	}

	for _, o := range w.Objects {
		var obj Object3D
		copy(obj.Landmarks2D[:], o.Landmarks2D)
		copy(obj.Rotation[:], o.Rotation)
		copy(obj.Translation[:], o.Translation)
		res.Objects = append(res.Objects, obj)
	}

	return res, nil
}

func (h wireHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(lm.Points[:], h.Points)
	return lm
}
