package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// DefaultWikipediaURL is the REST summary endpoint; the page title is appended.
const DefaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// ErrTopicNotFound means Wikipedia has no page for the topic.
var ErrTopicNotFound = errors.New("assistant: topic not found")

// Wiki fetches short page summaries.
type Wiki struct {
	BaseURL   string
	Sentences int
	Retries   int
	Backoff   time.Duration
	Client    *http.Client
}

// NewWiki creates a client for baseURL returning the first sentences of
// each summary.
func NewWiki(baseURL string, sentences int, timeout, backoff time.Duration) *Wiki {
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	if sentences <= 0 {
		sentences = 2
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Wiki{
		BaseURL:   baseURL,
		Sentences: sentences,
		Retries:   2,
		Backoff:   backoff,
		Client:    &http.Client{Timeout: timeout},
	}
}

type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

// Summary returns the opening sentences of the page for topic. Server
// errors are retried with a linear backoff.
func (w *Wiki) Summary(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrTopicNotFound
	}
	u := strings.TrimSuffix(w.BaseURL, "/") + "/" + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))

	var lastErr error
	for attempt := 0; attempt <= w.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * w.Backoff):
			}
		}

		text, retry, err := w.fetch(ctx, u)
		if err == nil {
			return FirstSentences(text, w.Sentences), nil
		}
		lastErr = err
		if !retry {
			break
		}
		zap.L().Debug("wikipedia retry", zap.String("topic", topic), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return "", lastErr
}

func (w *Wiki) fetch(ctx context.Context, u string) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "drishti-assistant/1.0")

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, ErrTopicNotFound
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("decode wikipedia summary: %w", err)
	}
	if body.Extract == "" {
		return "", false, ErrTopicNotFound
	}
	return body.Extract, false, nil
}

// FirstSentences returns the first n sentences of text. A sentence ends at
// '.', '!' or '?' followed by whitespace or the end of the text.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}
