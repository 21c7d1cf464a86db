package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns the settings the demos were tuned with.
func Default() *Config {
	dataDir := ".drishti"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".drishti")
	}

	return &Config{
		DataDir: dataDir,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Camera: CameraConfig{
			Device: 0,
			Width:  640,
			Height: 480,
			FPS:    30,
			Mirror: true,
		},
		Detector: DetectorConfig{
			MaxHands:        2,
			MaxFaces:        2,
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
			ObjectronModel:  "Cup",
			CascadePath:     "data/haarcascade_frontalface_default.xml",
		},
		Swipe: SwipeConfig{
			Alpha:       0.6,
			ThresholdX:  0.05,
			ThresholdY:  0.05,
			Cooldown:    500 * time.Millisecond,
			TrailLength: 64,
			Plugin:      "keyboard",
		},
		Painter: PainterConfig{
			BrushThickness:  7,
			EraserThickness: 50,
			PinchThreshold:  40,
			SelectBandY:     120,
			ToolbarHeight:   100,
			CursorTrail:     512,
			Palette: []PaletteEntry{
				{Name: "magenta", Color: "#ff00ff", MinX: 250, MaxX: 450},
				{Name: "green", Color: "#00ff00", MinX: 550, MaxX: 750},
				{Name: "red", Color: "#ff0000", MinX: 800, MaxX: 950},
				{Name: "eraser", Color: "#000000", MinX: 1000, MaxX: 1200},
			},
		},
		Segment: SegmentConfig{
			Ranges: map[string][]HSVRange{
				"red": {
					{Lower: [3]uint8{0, 120, 70}, Upper: [3]uint8{10, 255, 255}},
					{Lower: [3]uint8{170, 120, 70}, Upper: [3]uint8{180, 255, 255}},
				},
				"green":     {{Lower: [3]uint8{36, 25, 25}, Upper: [3]uint8{86, 255, 255}}},
				"blue":      {{Lower: [3]uint8{94, 80, 2}, Upper: [3]uint8{126, 255, 255}}},
				"non_white": {{Lower: [3]uint8{0, 0, 0}, Upper: [3]uint8{180, 255, 200}}},
			},
		},
		OCR: OCRConfig{
			Language:     "eng",
			Mode:         "thresh",
			PSM:          6,
			MaxUploadMB:  10,
			MaxDimension: 2000,
		},
		Assistant: AssistantConfig{
			Hotword:        "alexa",
			ListenTimeout:  5 * time.Second,
			PhraseLimit:    7 * time.Second,
			VoiceRate:      150,
			WikipediaURL:   "https://en.wikipedia.org/api/rest_v1/page/summary/",
			WikiSentences:  2,
			RetryBackoff:   200 * time.Millisecond,
			RequestTimeout: 10 * time.Second,
		},
		Chatbot: ChatbotConfig{
			Threshold:  0.55,
			Fallback:   "I'm not sure I understand that. Try rephrasing!",
			Dimensions: 512,
			KnowledgeBase: []QA{
				{Question: "what is your name", Answer: "I am a BERT-powered chatbot!"},
				{Question: "how are you", Answer: "I'm just code... but feeling great!"},
				{Question: "what is bert", Answer: "BERT is a Transformer-based NLP model by Google."},
				{Question: "tell me a joke", Answer: "Why do programmers hate nature? Too many bugs!"},
				{Question: "what is data science", Answer: "Data Science is the field of extracting insights from data using statistics, ML, and programming."},
				{Question: "what is ai", Answer: "Artificial Intelligence enables machines to think, learn, and solve problems intelligently."},
				{Question: "what is microsoft azure", Answer: "Azure is Microsoft's cloud computing platform for virtual machines, AI services, databases, and more."},
			},
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			MotionThreshold: 1.0,
			PluginTimeoutMs: 5000,
		},
	}
}
