package model

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bareArray   = regexp.MustCompile(`(?s)\[.*\]`)
	bareObject  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseJSONArrayFromText extracts a JSON string array from a completion.
// A fenced ```json block wins; otherwise the first bracketed span is
// tried. Returns nil when nothing parses.
func ParseJSONArrayFromText(text string) []string {
	candidates := make([]string, 0, 2)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := bareArray.FindString(text); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var out []string
		if err := json.Unmarshal([]byte(c), &out); err == nil {
			return out
		}
		// Models frequently emit single-quoted arrays; retry with quotes
		// normalized before giving up on the candidate.
		if err := json.Unmarshal([]byte(strings.ReplaceAll(c, "'", `"`)), &out); err == nil {
			return out
		}
	}
	return nil
}

// ParseJSONObjectFromText extracts a flat JSON object from a completion,
// fenced block first, bare braces second. Returns nil when nothing parses.
func ParseJSONObjectFromText(text string) map[string]any {
	candidates := make([]string, 0, 2)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := bareObject.FindString(text); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var out map[string]any
		if err := json.Unmarshal([]byte(c), &out); err == nil {
			return out
		}
	}
	return nil
}

// ParseBooleanFromText maps affirmative/negative completions to a boolean.
// ok is false when the text is neither.
func ParseBooleanFromText(text string) (value, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "YES", "Y", "TRUE", "T", "1", "ON", "ENABLE":
		return true, true
	case "NO", "N", "FALSE", "F", "0", "OFF", "DISABLE":
		return false, true
	default:
		return false, false
	}
}
