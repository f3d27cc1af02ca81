// Package display provides terminal output formatting for tweetmix.
package display

import (
	"fmt"
	"strings"

	"github.com/gauthierbraillon/tweetmix/internal/markup"
	"github.com/gauthierbraillon/tweetmix/internal/timeline"
)

const separator = " • "

// TerminalFormatter formats timeline items for terminal display.
type TerminalFormatter struct {
	// MaxTextLen truncates status text when positive.
	MaxTextLen int
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// FormatItem formats a single item for display.
func (f *TerminalFormatter) FormatItem(item timeline.Item) string {
	var lines []string

	// Header: Name @handle • 5 minutes ago • [hm]
	header := fmt.Sprintf("%s @%s%s%s", item.Name, item.ScreenName, separator, item.TimeAgo)
	if item.Membership != "" {
		header += fmt.Sprintf("%s[%s]", separator, item.Membership)
	}
	lines = append(lines, header)

	text := f.RenderSegments(item.Segments)
	if f.MaxTextLen > 0 {
		text = f.TruncateText(text, f.MaxTextLen)
	}
	lines = append(lines, "  "+text)

	if flags := f.formatFlags(item); flags != "" {
		lines = append(lines, "  "+flags)
	}

	for _, link := range item.MediaLinks {
		lines = append(lines, "  "+link)
	}

	lines = append(lines, "  "+Permalink(item.ScreenName, item.ID))

	return strings.Join(lines, "\n") + "\n"
}

// formatFlags formats favorite and retweet state into a single line.
func (f *TerminalFormatter) formatFlags(item timeline.Item) string {
	var parts []string

	if item.Favorited {
		parts = append(parts, "★ favorited")
	}
	if item.IsRetweet {
		parts = append(parts, "↻ retweeted")
	}
	if item.RetweetedBy != "" {
		parts = append(parts, "retweeted by "+item.RetweetedBy)
	}

	return strings.Join(parts, separator)
}

// RenderSegments rebuilds display text from annotated segments.
func (f *TerminalFormatter) RenderSegments(segments []markup.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		switch s.Kind {
		case markup.KindMention:
			b.WriteString("@" + s.Text)
		case markup.KindHashTag:
			b.WriteString("#" + s.Text)
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// FormatView formats a whole view for display.
func (f *TerminalFormatter) FormatView(name timeline.Name, items []timeline.Item) string {
	if len(items) == 0 {
		return fmt.Sprintf("No items in %s.\n", name)
	}

	var formatted []string
	for _, item := range items {
		formatted = append(formatted, f.FormatItem(item))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// TruncateText truncates text to maxLen characters, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

// Permalink is the web address of a status.
func Permalink(screenName, id string) string {
	return fmt.Sprintf("https://twitter.com/%s/status/%s", screenName, id)
}
