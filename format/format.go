// Package format holds the text formatting helpers shared by all tool
// handlers: dates, file sizes, HTML stripping and truncation. Output is
// consumed by an LLM, so everything favors short readable text.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Date renders a Canvas RFC3339 timestamp as "2006-01-02 15:04".
// Empty input renders as "N/A"; unparseable input passes through unchanged.
func Date(s string) string {
	if s == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02 15:04")
}

// FileSize renders a byte count in human-readable form.
func FileSize(size int64) string {
	if size == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB"}
	value := float64(size)
	unit := 0

	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d %s", int64(value), units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}

// StripHTML removes markup tags, decodes the entities Canvas commonly
// embeds in rich text, and collapses whitespace runs to single spaces.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	clean := htmlTagRe.ReplaceAllString(s, "")
	clean = strings.ReplaceAll(clean, "&nbsp;", " ")
	clean = strings.ReplaceAll(clean, "&amp;", "&")
	clean = strings.ReplaceAll(clean, "&lt;", "<")
	clean = strings.ReplaceAll(clean, "&gt;", ">")
	clean = strings.ReplaceAll(clean, "&quot;", `"`)
	clean = whitespaceRe.ReplaceAllString(clean, " ")

	return strings.TrimSpace(clean)
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// TimeSpent renders a duration in seconds as "13m 37s".
func TimeSpent(seconds int64) string {
	if seconds <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
