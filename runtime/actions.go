package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/format"
	"github.com/cipherwebllc/eliza/model"
)

const defaultEvaluationTemplate = `TASK: Based on the conversation and conditions, determine which evaluation functions are appropriate to call.

Examples:
{{evaluatorExamples}}

INSTRUCTIONS: You are helping me to decide which appropriate functions to call based on the conversation below.

{{recentMessages}}

Evaluators:
{{evaluators}}

TASK: Based on the most recent conversation, determine which evaluators functions are appropriate to call.
Include the name of evaluators that are relevant and should be called in the array.
Available evaluator names to include are {{evaluatorNames}}.
Respond with a JSON array containing a field for "evaluatorName" in a JSON block formatted for markdown with each evaluator.

` + "```json\n[\n  'evaluator_name',\n  'evaluator_name'\n]\n```" + `

Your response must include the JSON block.`

// ProcessActions resolves and runs the action named by each response
// memory. Resolution is two-phase: a normalized exact lookup first, then
// fuzzy matching against names and similes. An unresolvable action is
// logged and skipped; a failing handler does not stop later responses.
func (rt *AgentRuntime) ProcessActions(ctx context.Context, message core.Memory, responses []core.Memory, state *core.State, callback core.HandlerCallback) error {
	for _, response := range responses {
		name := response.Content.Action
		if name == "" {
			rt.log.Debug().Msg("response carries no action, skipping")
			continue
		}

		action, ok := rt.resolveAction(name)
		if !ok {
			rt.log.Warn().Str("action", name).Msg("no action matched, skipping")
			continue
		}
		if action.Handler == nil {
			rt.log.Warn().Str("action", action.Name).Msg("action has no handler, skipping")
			continue
		}

		rt.log.Info().Str("action", action.Name).Msg("executing action")
		if err := action.Handler(ctx, rt, message, state, nil, callback); err != nil {
			rt.log.Error().Err(err).Str("action", action.Name).Msg("action handler failed")
		}
	}
	return nil
}

// resolveAction matches a generated action name against the registry.
// Phase one is an exact match on the normalized name. Phase two scans for
// substring overlap in either direction, then for simile matches, so minor
// model misspellings still land on the intended action.
func (rt *AgentRuntime) resolveAction(name string) (core.Action, bool) {
	rt.mu.RLock()
	actions := make([]core.Action, len(rt.actions))
	copy(actions, rt.actions)
	rt.mu.RUnlock()

	normalized := normalizeActionName(name)

	for _, action := range actions {
		if normalizeActionName(action.Name) == normalized {
			return action, true
		}
	}

	for _, action := range actions {
		candidate := normalizeActionName(action.Name)
		if strings.Contains(candidate, normalized) || strings.Contains(normalized, candidate) {
			return action, true
		}
	}

	for _, action := range actions {
		for _, simile := range action.Similes {
			candidate := normalizeActionName(simile)
			if strings.Contains(candidate, normalized) || strings.Contains(normalized, candidate) {
				return action, true
			}
		}
	}

	return core.Action{}, false
}

func normalizeActionName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

// Evaluate selects and runs the evaluators applicable to a finished turn.
// Structural gating comes first (didRespond and AlwaysRun, then each
// validator); the model then judges relevance among the survivors and
// returns the names to run. The executed names are returned.
func (rt *AgentRuntime) Evaluate(ctx context.Context, message core.Memory, state *core.State, didRespond bool, callback core.HandlerCallback) ([]string, error) {
	rt.mu.RLock()
	registered := make([]core.Evaluator, len(rt.evaluators))
	copy(registered, rt.evaluators)
	rt.mu.RUnlock()

	var eligible []core.Evaluator
	for _, evaluator := range registered {
		if evaluator.Handler == nil {
			continue
		}
		if !didRespond && !evaluator.AlwaysRun {
			continue
		}
		eligible = append(eligible, evaluator)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	candidates, err := rt.filterEvaluators(ctx, eligible, message, state)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	st := state
	if st == nil {
		st = &core.State{}
	}
	st = st.Clone()
	st.Evaluators = format.Evaluators(candidates)
	st.EvaluatorNames = format.EvaluatorNames(candidates)
	st.EvaluatorExamples = format.EvaluatorExamples(candidates)
	st.EvaluatorsData = candidates

	template := rt.character.Templates.EvaluationTemplate
	if template == "" {
		template = defaultEvaluationTemplate
	}
	prompt := format.ComposeContext(st.Map(), template)

	names, err := model.GenerateTextArray(ctx, rt.generator, rt.log, rt.retry, prompt)
	if err != nil {
		return nil, fmt.Errorf("select evaluators: %w", err)
	}

	byName := make(map[string]core.Evaluator, len(candidates))
	for _, evaluator := range candidates {
		byName[evaluator.Name] = evaluator
	}

	var executed []string
	for _, name := range names {
		evaluator, ok := byName[name]
		if !ok {
			rt.log.Warn().Str("evaluator", name).Msg("model selected unknown evaluator, skipping")
			continue
		}
		rt.log.Info().Str("evaluator", evaluator.Name).Msg("executing evaluator")
		if err := evaluator.Handler(ctx, rt, message, state, nil, callback); err != nil {
			rt.log.Error().Err(err).Str("evaluator", evaluator.Name).Msg("evaluator handler failed")
			continue
		}
		executed = append(executed, evaluator.Name)
	}
	return executed, nil
}

// filterEvaluators keeps the evaluators whose validators pass.
func (rt *AgentRuntime) filterEvaluators(ctx context.Context, evaluators []core.Evaluator, message core.Memory, state *core.State) ([]core.Evaluator, error) {
	var out []core.Evaluator
	for _, evaluator := range evaluators {
		if evaluator.Validate == nil {
			out = append(out, evaluator)
			continue
		}
		ok, err := evaluator.Validate(ctx, rt, message, state)
		if err != nil {
			return nil, fmt.Errorf("validate evaluator %s: %w", evaluator.Name, err)
		}
		if ok {
			out = append(out, evaluator)
		}
	}
	return out, nil
}
