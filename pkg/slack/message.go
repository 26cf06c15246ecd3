package slack

import (
	"fmt"
	"net/url"
	"strings"

	goslack "github.com/slack-go/slack"
)

// Message is the body of an incoming webhook request
type Message = goslack.WebhookMessage

// LogMessage builds the notification for one log line: the log group and the
// message as a code block, then the timestamp and a link to the log viewer.
func LogMessage(logGroup, message, timestamp, link string) *Message {
	section := goslack.NewSectionBlock(&goslack.TextBlockObject{
		Type: goslack.MarkdownType,
		Text: fmt.Sprintf("%s\n```%s\n```", logGroup, message),
	}, nil, nil)
	footer := goslack.NewContextBlock("",
		&goslack.TextBlockObject{Type: goslack.PlainTextType, Text: timestamp},
		&goslack.TextBlockObject{Type: goslack.MarkdownType, Text: fmt.Sprintf("<%s|See in CloudWatch>", link)},
	)
	return &Message{
		Blocks: &goslack.Blocks{BlockSet: []goslack.Block{section, footer}},
	}
}

// ConsoleLink builds log viewer deep links for a region
type ConsoleLink struct {
	// ConsoleRegion selects the console host. Empty uses the global host.
	ConsoleRegion string
	// Region is the region of the log group
	Region string
}

// URL returns the deep link to a log stream
func (c ConsoleLink) URL(logGroup, logStream string) string {
	host := "console.aws.amazon.com"
	if c.ConsoleRegion != "" {
		host = c.ConsoleRegion + "." + host
	}
	return fmt.Sprintf("https://%s/cloudwatch/home?region=%s#logsV2:log-groups/log-group/%s/log-events/%s",
		host, c.Region, escapeComponent(logGroup), escapeComponent(logStream))
}

// componentUnescape turns query escaping into encodeURIComponent escaping
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes s so it can be embedded in any URL component:
// '/' becomes %2F and spaces become %20
func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
