package format

import (
	"fmt"
	"strings"

	"github.com/cipherwebllc/eliza/core"
)

// EvaluatorNames joins evaluator names with commas, in the order given.
func EvaluatorNames(evaluators []core.Evaluator) string {
	names := make([]string, 0, len(evaluators))
	for _, e := range evaluators {
		names = append(names, e.Name)
	}
	return strings.Join(names, ", ")
}

// Evaluators renders one "name: description" line per evaluator.
func Evaluators(evaluators []core.Evaluator) string {
	lines := make([]string, 0, len(evaluators))
	for _, e := range evaluators {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Name, e.Description))
	}
	return strings.Join(lines, ",\n")
}

// EvaluatorExamples renders each evaluator's examples as context,
// transcript, and outcome blocks.
func EvaluatorExamples(evaluators []core.Evaluator) string {
	blocks := make([]string, 0, len(evaluators))
	for _, e := range evaluators {
		for _, ex := range e.Examples {
			var b strings.Builder
			fmt.Fprintf(&b, "Context:\n%s\n\n", ex.Context)
			b.WriteString("Messages:\n")
			for _, msg := range ex.Messages {
				fmt.Fprintf(&b, "%s: %s", msg.User, msg.Content.Text)
				if msg.Content.Action != "" {
					fmt.Fprintf(&b, " (%s)", msg.Content.Action)
				}
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "\nOutcome:\n%s", ex.Outcome)
			blocks = append(blocks, b.String())
		}
	}
	return strings.Join(blocks, "\n\n")
}
