// Package assistant is a small voice assistant: it listens for a phrase,
// matches it to an intent and runs the matching command, speaking the
// outcome back.
package assistant

import (
	"regexp"
	"strings"
)

// Intent is the kind of command recognised in an utterance.
type Intent string

const (
	IntentNone      Intent = ""
	IntentPlay      Intent = "play"
	IntentSearch    Intent = "search"
	IntentWikipedia Intent = "wikipedia"
	IntentTime      Intent = "time"
	IntentOpen      Intent = "open"
)

// String returns "none" for IntentNone so logs and history stay readable.
func (i Intent) String() string {
	if i == IntentNone {
		return "none"
	}
	return string(i)
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize lowercases text, removes the hotword as a whole word and
// strips punctuation.
func Normalize(text, hotword string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if hotword != "" {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(hotword)) + `\b`)
		t = re.ReplaceAllString(t, "")
	}
	t = punctuation.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// MatchCommand returns the intent of text and the normalised text as its
// payload. Prefix intents (play, search, open) win over keyword intents
// (wikipedia, time) in that order. An empty utterance yields IntentNone and
// an empty payload.
func MatchCommand(text, hotword string) (Intent, string) {
	t := Normalize(text, hotword)
	switch {
	case t == "":
		return IntentNone, ""
	case strings.HasPrefix(t, "play "):
		return IntentPlay, t
	case strings.HasPrefix(t, "search "):
		return IntentSearch, t
	case strings.Contains(t, "wikipedia"):
		return IntentWikipedia, t
	case strings.Contains(t, "time"):
		return IntentTime, t
	case strings.HasPrefix(t, "open "):
		return IntentOpen, t
	}
	return IntentNone, t
}
