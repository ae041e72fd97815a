package format

import (
	"fmt"
	"strings"

	"github.com/cipherwebllc/eliza/core"
)

// Goals renders each goal with its status and an objective checklist.
func Goals(goals []core.Goal) string {
	blocks := make([]string, 0, len(goals))
	for _, g := range goals {
		var b strings.Builder
		fmt.Fprintf(&b, "Goal: %s\n", g.Name)
		fmt.Fprintf(&b, "id: %s\n", g.ID)
		fmt.Fprintf(&b, "Status: %s\n", g.Status)
		b.WriteString("Objectives:")
		for _, o := range g.Objectives {
			mark := " "
			if o.Completed {
				mark = "x"
			}
			fmt.Fprintf(&b, "\n- [%s] %s", mark, o.Description)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
