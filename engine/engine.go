// Package engine runs complete conversation turns over an agent runtime:
// persist the incoming message, compose state, generate a reply, persist
// it, dispatch actions, and evaluate the finished turn.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/format"
	"github.com/cipherwebllc/eliza/model"
	"github.com/cipherwebllc/eliza/runtime"
)

const defaultMessageTemplate = `{{knowledge}}

# Task: Generate dialog and actions for the character {{agentName}}.

About {{agentName}}:
{{bio}}
{{lore}}

{{providers}}

{{attachments}}

{{actionExamples}}

{{messageDirections}}

{{recentMessages}}

{{actions}}

# Instructions: Write the next message for {{agentName}}.
Respond with a JSON markdown block containing only a "text" field and an optional "action" field chosen from the available actions.`

// Engine drives conversation turns. It is a thin orchestration layer; all
// state lives in the runtime and its stores.
type Engine struct {
	rt         *runtime.AgentRuntime
	log        zerolog.Logger
	modelClass core.ModelClass
	maxContext int
}

// Option configures the engine.
type Option func(*Engine)

// WithModelClass selects the model tier used for replies. The default is
// the large tier.
func WithModelClass(class core.ModelClass) Option {
	return func(e *Engine) {
		e.modelClass = class
	}
}

// WithMaxContext caps the rendered prompt length in runes. Zero leaves
// prompts untrimmed.
func WithMaxContext(runes int) Option {
	return func(e *Engine) {
		e.maxContext = runes
	}
}

// New creates an engine over the given runtime.
func New(rt *runtime.AgentRuntime, opts ...Option) *Engine {
	e := &Engine{
		rt:         rt,
		log:        rt.Logger().With().Str("component", "engine").Logger(),
		modelClass: core.ModelClassLarge,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input is one incoming message.
type Input struct {
	// UserID identifies the sender. Required.
	UserID uuid.UUID

	// RoomID identifies the conversation. Required.
	RoomID uuid.UUID

	// UserName and UserScreenName label the sender's account on first
	// contact. Optional.
	UserName       string
	UserScreenName string

	// Source names the originating platform.
	Source string

	// Text is the message body.
	Text string

	// Attachments carried by the message.
	Attachments []core.Media

	// Callback receives the generated reply and any content produced by
	// action or evaluator handlers. Nil uses a callback that only
	// persists handler output.
	Callback core.HandlerCallback
}

// Output is the result of a completed turn.
type Output struct {
	// Response is the generated reply content.
	Response *core.Content

	// ResponseID is the stored memory ID of the reply.
	ResponseID uuid.UUID

	// Evaluators lists the evaluator names that ran after the turn.
	Evaluators []string
}

// Run processes one message end to end.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	rt := e.rt

	if err := rt.EnsureConnection(ctx, input.UserID, input.RoomID, input.UserName, input.UserScreenName, input.Source); err != nil {
		return nil, fmt.Errorf("ensure connection: %w", err)
	}

	message := core.Memory{
		ID:      uuid.New(),
		UserID:  input.UserID,
		AgentID: rt.AgentID(),
		RoomID:  input.RoomID,
		Content: core.Content{
			Text:        input.Text,
			Source:      input.Source,
			Attachments: input.Attachments,
		},
	}
	if err := rt.MessageManager().CreateMemory(ctx, &message, false); err != nil {
		return nil, fmt.Errorf("store incoming message: %w", err)
	}

	state, err := rt.ComposeState(ctx, message, nil)
	if err != nil {
		return nil, err
	}

	template := rt.Character().Templates.MessageTemplate
	if template == "" {
		template = defaultMessageTemplate
	}
	prompt := format.ComposeContext(state.Map(), template)
	if e.maxContext > 0 {
		prompt = model.TrimContext(prompt, e.maxContext)
	}

	response, err := model.GenerateMessageResponse(ctx, rt.Generator(), e.log, rt.Retry(), prompt, e.modelClass)
	if err != nil {
		return nil, fmt.Errorf("generate response: %w", err)
	}

	responseMemory := core.Memory{
		ID:      uuid.New(),
		UserID:  rt.AgentID(),
		AgentID: rt.AgentID(),
		RoomID:  input.RoomID,
		Content: *response,
	}
	responseMemory.Content.InReplyTo = &message.ID
	if err := rt.MessageManager().CreateMemory(ctx, &responseMemory, false); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}

	state, err = rt.UpdateRecentMessageState(ctx, state)
	if err != nil {
		return nil, err
	}

	callback := input.Callback
	if callback == nil {
		callback = e.persistCallback(input.RoomID)
	}

	if err := rt.ProcessActions(ctx, message, []core.Memory{responseMemory}, state, callback); err != nil {
		return nil, err
	}

	evaluators, err := rt.Evaluate(ctx, message, state, true, callback)
	if err != nil {
		return nil, err
	}

	return &Output{
		Response:   response,
		ResponseID: responseMemory.ID,
		Evaluators: evaluators,
	}, nil
}

// persistCallback stores handler output as agent messages in the room and
// returns the stored memories.
func (e *Engine) persistCallback(roomID uuid.UUID) core.HandlerCallback {
	return func(ctx context.Context, response core.Content) ([]core.Memory, error) {
		rt := e.rt
		memory := core.Memory{
			ID:      uuid.New(),
			UserID:  rt.AgentID(),
			AgentID: rt.AgentID(),
			RoomID:  roomID,
			Content: response,
		}
		if err := rt.MessageManager().CreateMemory(ctx, &memory, false); err != nil {
			return nil, fmt.Errorf("store handler output: %w", err)
		}
		return []core.Memory{memory}, nil
	}
}
