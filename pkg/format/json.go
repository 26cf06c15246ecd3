// Package format renders log lines for chat messages.
package format

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// embeddedJSON matches the widest span from the first '{' to the last '}',
// across newlines. It is deliberately not nesting-aware.
var embeddedJSON = regexp.MustCompile(`(?s)\{.*\}`)

// PrettyEmbeddedJSON replaces the JSON object embedded in msg with an indented
// rendering of it. If msg has no brace span, or the span is not valid JSON,
// msg is returned unchanged. Number literals and duplicate keys are kept as
// written.
func PrettyEmbeddedJSON(msg string) string {
	loc := embeddedJSON.FindStringIndex(msg)
	if loc == nil {
		return msg
	}

	span := msg[loc[0]:loc[1]]
	if !json.Valid([]byte(span)) {
		return msg
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(span), "", "  "); err != nil {
		return msg
	}

	return msg[:loc[0]] + buf.String() + msg[loc[1]:]
}
