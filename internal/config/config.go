// Package config loads drishti settings from YAML, layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Log       LogConfig       `yaml:"log"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Swipe     SwipeConfig     `yaml:"swipe"`
	Painter   PainterConfig   `yaml:"painter"`
	Segment   SegmentConfig   `yaml:"segment"`
	OCR       OCRConfig       `yaml:"ocr"`
	Assistant AssistantConfig `yaml:"assistant"`
	Chatbot   ChatbotConfig   `yaml:"chatbot"`
	Server    ServerConfig    `yaml:"server"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CameraConfig describes the capture device.
type CameraConfig struct {
	Device int  `yaml:"device"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	FPS    int  `yaml:"fps"`
	Mirror bool `yaml:"mirror"`
}

// DetectorConfig configures the landmark helper service and the Haar cascade.
type DetectorConfig struct {
	Python          string  `yaml:"python"`
	Script          string  `yaml:"script"`
	MaxHands        int     `yaml:"max_hands"`
	MaxFaces        int     `yaml:"max_faces"`
	MinConfidence   float64 `yaml:"min_confidence"`
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`
	ObjectronModel  string  `yaml:"objectron_model"`
	CascadePath     string  `yaml:"cascade_path"`
}

// SwipeConfig holds the fingertip swipe thresholds.
type SwipeConfig struct {
	Alpha       float64       `yaml:"alpha"`
	ThresholdX  float64       `yaml:"threshold_x"`
	ThresholdY  float64       `yaml:"threshold_y"`
	Cooldown    time.Duration `yaml:"cooldown"`
	TrailLength int           `yaml:"trail_length"`
	Plugin      string        `yaml:"plugin"`
}

// PaletteEntry is one toolbar swatch. A fingertip inside (MinX, MaxX)
// while selecting picks the colour.
type PaletteEntry struct {
	Name  string `yaml:"name"`
	Color Color  `yaml:"color"`
	MinX  int    `yaml:"min_x"`
	MaxX  int    `yaml:"max_x"`
}

// PainterConfig covers every drawing demo.
type PainterConfig struct {
	BrushThickness  int            `yaml:"brush_thickness"`
	EraserThickness int            `yaml:"eraser_thickness"`
	PinchThreshold  float64        `yaml:"pinch_threshold"`
	SelectBandY     int            `yaml:"select_band_y"`
	ToolbarHeight   int            `yaml:"toolbar_height"`
	CursorTrail     int            `yaml:"cursor_trail"`
	Palette         []PaletteEntry `yaml:"palette"`
}

// HSVRange is an inclusive OpenCV HSV range (H 0-180, S and V 0-255).
type HSVRange struct {
	Lower [3]uint8 `yaml:"lower"`
	Upper [3]uint8 `yaml:"upper"`
}

// SegmentConfig maps colour names to one or more HSV ranges.
type SegmentConfig struct {
	Ranges map[string][]HSVRange `yaml:"ranges"`
}

// OCRConfig configures the Tesseract pipeline.
type OCRConfig struct {
	TesseractPath  string `yaml:"tesseract_path"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
	Language       string `yaml:"language"`
	Mode           string `yaml:"mode"`
	PSM            int    `yaml:"psm"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
	MaxDimension   int    `yaml:"max_dimension"`
}

// AssistantConfig configures the voice assistant.
type AssistantConfig struct {
	Hotword        string        `yaml:"hotword"`
	ListenTimeout  time.Duration `yaml:"listen_timeout"`
	PhraseLimit    time.Duration `yaml:"phrase_limit"`
	Recognizer     []string      `yaml:"recognizer"`
	Speaker        []string      `yaml:"speaker"`
	VoiceRate      int           `yaml:"voice_rate"`
	WikipediaURL   string        `yaml:"wikipedia_url"`
	WikiSentences  int           `yaml:"wiki_sentences"`
	OpenCommand    []string      `yaml:"open_command"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// QA is one knowledge base entry.
type QA struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// ChatbotConfig configures the embedding chatbot.
type ChatbotConfig struct {
	Threshold     float64 `yaml:"threshold"`
	Fallback      string  `yaml:"fallback"`
	Script        string  `yaml:"script"`
	Dimensions    int     `yaml:"dimensions"`
	KnowledgeBase []QA    `yaml:"knowledge_base"`
}

// ServerConfig configures `drishti serve`.
type ServerConfig struct {
	Addr            string  `yaml:"addr"`
	StaticDir       string  `yaml:"static_dir"`
	PluginDir       string  `yaml:"plugin_dir"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	PluginTimeoutMs int     `yaml:"plugin_timeout_ms"`
}

// Load reads the YAML file at path over Default. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes YAML from r into cfg and validates the result.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail deep inside a capture loop.
func (c *Config) Validate() error {
	if c.Swipe.Alpha <= 0 || c.Swipe.Alpha > 1 {
		return fmt.Errorf("swipe.alpha must be in (0, 1], got %v", c.Swipe.Alpha)
	}
	if c.Swipe.TrailLength <= 0 {
		return fmt.Errorf("swipe.trail_length must be positive")
	}
	if c.Chatbot.Threshold < -1 || c.Chatbot.Threshold > 1 {
		return fmt.Errorf("chatbot.threshold must be in [-1, 1], got %v", c.Chatbot.Threshold)
	}
	for _, p := range c.Painter.Palette {
		if _, err := p.Color.RGBA(); err != nil {
			return fmt.Errorf("painter.palette %s: %w", p.Name, err)
		}
		if p.MinX >= p.MaxX {
			return fmt.Errorf("painter.palette %s: min_x must be below max_x", p.Name)
		}
	}
	for name, ranges := range c.Segment.Ranges {
		if len(ranges) == 0 {
			return fmt.Errorf("segment.ranges.%s is empty", name)
		}
	}
	return nil
}

// Path joins name onto the data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Color is a hex colour string such as "#ff00ff".
type Color string

// RGBA parses the hex string. gocv draws color.RGBA values in their
// natural channel order, so no BGR swap is needed here.
func (c Color) RGBA() (color.RGBA, error) {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse colour %q: %w", string(c), err)
	}
	r, g, b := parsed.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// MustRGBA is RGBA for values already checked by Validate.
func (c Color) MustRGBA() color.RGBA {
	rgba, err := c.RGBA()
	if err != nil {
		panic(err)
	}
	return rgba
}
