// Package logreader tails the game client's chat log and turns Delve chat
// messages into tracker events.
package logreader

import (
	"regexp"
	"strings"
)

// LogEntry is one line read from the chat log.
type LogEntry struct {
	// Raw is the line as written to the file.
	Raw string

	// Timestamp is the bracketed prefix of the line ("[12:04:55]"), without
	// brackets. Empty when the line carries none.
	Timestamp string

	// Message is the chat text with the timestamp and markup tags removed.
	Message string
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// NewLogEntry splits a raw chat log line into timestamp and message.
func NewLogEntry(line string) *LogEntry {
	entry := &LogEntry{Raw: line}

	rest := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if strings.HasPrefix(rest, "[") {
		if ts, msg, ok := strings.Cut(rest[1:], "]"); ok {
			entry.Timestamp = strings.TrimSpace(ts)
			rest = msg
		}
	}
	entry.Message = strings.TrimSpace(removeTags(rest))
	return entry
}

// removeTags strips colour and image markup such as <col=ef1020>.
func removeTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return tagPattern.ReplaceAllString(s, "")
}

// key identifies a line for duplicate suppression. Lines without a timestamp
// have no stable identity and return "".
func (e *LogEntry) key() string {
	if e.Timestamp == "" {
		return ""
	}
	return e.Timestamp + "|" + e.Message
}
