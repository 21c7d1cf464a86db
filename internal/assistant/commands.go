package assistant

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// Result strings shared by every command.
const (
	ResultNoQuery  = "no_query"
	ResultNoAction = "no_action"
)

var knownSites = map[string]string{
	"youtube": "https://www.youtube.com",
	"google":  "https://www.google.com",
	"github":  "https://github.com",
}

// Commands carries out intents. Each command speaks its outcome and
// returns a short result string for the history.
type Commands struct {
	Speaker Speaker
	Opener  Opener
	Wiki    *Wiki
	Now     func() time.Time
}

func (c *Commands) say(ctx context.Context, text string) {
	if c.Speaker == nil {
		return
	}
	// Speech failures never fail a command.
	_ = c.Speaker.Speak(ctx, text)
}

func (c *Commands) open(ctx context.Context, u string) error {
	if c.Opener == nil {
		return errors.New("no opener configured")
	}
	return c.Opener.Open(ctx, u)
}

// Run dispatches intent to its command.
func (c *Commands) Run(ctx context.Context, intent Intent, text string) string {
	switch intent {
	case IntentPlay:
		return c.Play(ctx, text)
	case IntentSearch:
		return c.Search(ctx, text)
	case IntentWikipedia:
		return c.Wikipedia(ctx, text)
	case IntentTime:
		return c.Time(ctx, text)
	case IntentOpen:
		return c.Open(ctx, text)
	}
	c.say(ctx, "Sorry, I didn't understand. Try saying play, search, wikipedia, time, or open.")
	return ResultNoAction
}

// Play opens a YouTube search for the song named after "play".
func (c *Commands) Play(ctx context.Context, text string) string {
	query := strings.TrimSpace(strings.TrimPrefix(text, "play"))
	if query == "" {
		c.say(ctx, "Please tell me the song name to play.")
		return ResultNoQuery
	}
	c.say(ctx, "Playing "+query+" on YouTube")
	if err := c.open(ctx, "https://www.youtube.com/results?search_query="+url.QueryEscape(query)); err != nil {
		c.say(ctx, "Sorry, I couldn't play that.")
		return "error:" + err.Error()
	}
	return "playing:" + query
}

// Search opens a Google search for the words after "search".
func (c *Commands) Search(ctx context.Context, text string) string {
	query := strings.TrimSpace(strings.TrimPrefix(text, "search"))
	if query == "" {
		c.say(ctx, "Please provide a search query.")
		return ResultNoQuery
	}
	if err := c.open(ctx, "https://www.google.com/search?q="+strings.ReplaceAll(query, " ", "+")); err != nil {
		return "error:" + err.Error()
	}
	c.say(ctx, "Here are the search results for "+query)
	return "search:" + query
}

// Wikipedia speaks a short summary of the topic named around "wikipedia".
func (c *Commands) Wikipedia(ctx context.Context, text string) string {
	query := strings.Join(strings.Fields(strings.ReplaceAll(text, "wikipedia", "")), " ")
	if query == "" {
		c.say(ctx, "Please specify a topic for Wikipedia.")
		return ResultNoQuery
	}
	if c.Wiki == nil {
		return "error:wikipedia disabled"
	}
	summary, err := c.Wiki.Summary(ctx, query)
	if err != nil {
		c.say(ctx, "I couldn't find information on that topic.")
		return "error:" + err.Error()
	}
	c.say(ctx, summary)
	return summary
}

// Time speaks the local time as "03:04 PM".
func (c *Commands) Time(ctx context.Context, _ string) string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now().Format("03:04 PM")
	c.say(ctx, "The current time is "+t)
	return t
}

// Open opens the site named by the last word, mapping a few well known
// names and otherwise prefixing https://.
func (c *Commands) Open(ctx context.Context, text string) string {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		c.say(ctx, "Please say open followed by the website name.")
		return ResultNoQuery
	}
	site := parts[len(parts)-1]
	u, ok := knownSites[strings.ToLower(site)]
	if !ok {
		u = "https://" + site
	}
	if err := c.open(ctx, u); err != nil {
		return "error:" + err.Error()
	}
	c.say(ctx, "Opening "+site)
	return "open:" + site
}
