package paint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/store"
)

// Saver writes PNG snapshots into a directory and records them. The
// drawing demos save canvases with it; the colour demo saves masks.
type Saver struct {
	dir      string
	captures *store.CaptureRepository
	now      func() time.Time
}

// NewSaver saves into dir. captures may be nil when no database is open.
func NewSaver(dir string, captures *store.CaptureRepository) *Saver {
	return &Saver{dir: dir, captures: captures, now: time.Now}
}

// Save writes the canvas as artwork.
func (s *Saver) Save(c *Canvas, prefix string) (*store.Capture, error) {
	return s.SaveMat(c.Mat(), prefix, store.CaptureArtwork)
}

// SaveMat writes m as <prefix>_<unix>.png and records it under kind.
func (s *Saver) SaveMat(m gocv.Mat, prefix, kind string) (*store.Capture, error) {
	data, err := EncodePNG(m)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d.png", prefix, s.now().Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}

	capture := &store.Capture{Kind: kind, Path: path, Width: m.Cols(), Height: m.Rows()}
	if s.captures != nil {
		if err := s.captures.Create(capture); err != nil {
			return nil, fmt.Errorf("record snapshot: %w", err)
		}
	}

	zap.L().Info("snapshot saved", zap.String("kind", kind), zap.String("path", path))
	return capture, nil
}

// EncodePNG returns m as PNG bytes.
func EncodePNG(m gocv.Mat) ([]byte, error) {
	if m.Empty() {
		return nil, errors.New("image is empty")
	}
	buf, err := gocv.IMEncode(gocv.PNGFileExt, m)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
