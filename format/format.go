// Package format renders domain objects into prompt-ready text blocks.
// Every function here is pure: inputs are never mutated and all of them
// are safe to call concurrently.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AddHeader prefixes content with a header line and a blank line. Empty
// content yields an empty string so optional sections vanish entirely.
func AddHeader(header, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return header + "\n\n" + content
}

// RelativeTimestamp renders an epoch-millisecond instant relative to now.
func RelativeTimestamp(ms int64, now time.Time) string {
	d := now.Sub(time.UnixMilli(ms))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		n := int(d.Minutes())
		if n == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", n)
	case d < 24*time.Hour:
		n := int(d.Hours())
		if n == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", n)
	default:
		n := int(d.Hours() / 24)
		if n == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", n)
	}
}

// nowFunc is replaced in tests that assert on relative timestamps.
var nowFunc = time.Now

var templateKey = regexp.MustCompile(`{{\s*(\w+)\s*}}`)

// ComposeContext substitutes {{key}} placeholders in template with values
// from the map. Unknown keys render as empty strings.
func ComposeContext(values map[string]string, template string) string {
	return templateKey.ReplaceAllStringFunc(template, func(match string) string {
		key := templateKey.FindStringSubmatch(match)[1]
		return values[key]
	})
}
