package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
)

// Actors renders one block per actor, blocks separated by blank lines.
func Actors(actors []core.Actor) string {
	blocks := make([]string, 0, len(actors))
	for _, a := range actors {
		var b strings.Builder
		fmt.Fprintf(&b, "%s (@%s)", a.Name, a.Username)
		if a.Details.Tagline != "" {
			b.WriteString("\n" + a.Details.Tagline)
		}
		if a.Details.Summary != "" {
			b.WriteString("\n" + a.Details.Summary)
		}
		if a.Details.Quote != "" {
			b.WriteString("\n\"" + a.Details.Quote + "\"")
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// Messages renders messages chronologically, oldest first, one line per
// message with the actor name, the text, any declared action, and a
// relative-time annotation. Messages from unknown actors render with a
// placeholder name rather than failing.
func Messages(messages []core.Memory, actors []core.Actor) string {
	byID := make(map[uuid.UUID]core.Actor, len(actors))
	for _, a := range actors {
		byID[a.ID] = a
	}

	ordered := make([]core.Memory, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt < ordered[j].CreatedAt
	})

	now := nowFunc()
	lines := make([]string, 0, len(ordered))
	for _, m := range ordered {
		name := "Unknown User"
		if a, ok := byID[m.UserID]; ok {
			name = fmt.Sprintf("%s (@%s)", a.Name, a.Username)
		}

		line := fmt.Sprintf("%s: %s", name, m.Content.Text)
		if m.Content.Action != "" && m.Content.Action != "null" {
			line += fmt.Sprintf(" (%s)", m.Content.Action)
		}
		if n := len(m.Content.Attachments); n > 0 {
			titles := make([]string, 0, n)
			for _, att := range m.Content.Attachments {
				titles = append(titles, fmt.Sprintf("%s (%s)", att.Title, att.ID))
			}
			line += fmt.Sprintf(" (Attachments: %s)", strings.Join(titles, ", "))
		}
		line += fmt.Sprintf(" (%s)", RelativeTimestamp(m.CreatedAt, now))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Attachments renders the active attachment set as labeled blocks.
func Attachments(attachments []core.Media) string {
	blocks := make([]string, 0, len(attachments))
	for _, a := range attachments {
		blocks = append(blocks, fmt.Sprintf(
			"ID: %s\nName: %s\nURL: %s\nType: %s\nDescription: %s\nText: %s",
			a.ID, a.Title, a.URL, a.Source, a.Description, a.Text))
	}
	return strings.Join(blocks, "\n\n")
}
