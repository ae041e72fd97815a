package format

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/cipherwebllc/eliza/core"
)

// ActionNames joins action names with commas, in the order given.
func ActionNames(actions []core.Action) string {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Actions renders one "name: description" line per action.
func Actions(actions []core.Action) string {
	lines := make([]string, 0, len(actions))
	for _, a := range actions {
		lines = append(lines, fmt.Sprintf("%s: %s", a.Name, a.Description))
	}
	return strings.Join(lines, ",\n")
}

// ComposeActionExamples samples up to count example conversations across
// the given actions, random-without-replacement, substituting {{userN}}
// placeholders with names drawn from the shared pool.
func ComposeActionExamples(rng *rand.Rand, actions []core.Action, count int) string {
	var pool [][]core.MessageExample
	for _, a := range actions {
		pool = append(pool, a.Examples...)
	}

	chosen := Sample(rng, pool, count)
	blocks := make([]string, 0, len(chosen))
	for _, example := range chosen {
		names := PlaceholderNames(rng, 5)
		lines := make([]string, 0, len(example))
		for _, msg := range example {
			line := fmt.Sprintf("%s: %s", msg.User, msg.Content.Text)
			if msg.Content.Action != "" {
				line += fmt.Sprintf(" (%s)", msg.Content.Action)
			}
			for i, name := range names {
				line = strings.ReplaceAll(line, fmt.Sprintf("{{user%d}}", i+1), name)
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
