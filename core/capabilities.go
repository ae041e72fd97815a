package core

import "context"

// HandlerCallback receives content produced by an action or evaluator
// handler, typically to deliver it back to the originating platform.
type HandlerCallback func(ctx context.Context, response Content) ([]Memory, error)

// Validator decides whether a capability applies to a message. It must be
// cheap and structural; semantic relevance is judged later by the model.
type Validator func(ctx context.Context, rt Runtime, message Memory, state *State) (bool, error)

// Handler performs the side effects of an action or evaluator.
type Handler func(ctx context.Context, rt Runtime, message Memory, state *State, options map[string]any, callback HandlerCallback) error

// MessageExample is one turn of an example conversation used in prompts.
// User may be a {{userN}} placeholder substituted at render time.
type MessageExample struct {
	User    string  `json:"user"`
	Content Content `json:"content"`
}

// Action is a named, invocable agent capability triggered by a generated
// response. Actions are stateless between invocations and registered once
// at startup.
type Action struct {
	Name        string
	Similes     []string
	Description string
	Examples    [][]MessageExample
	Validate    Validator
	Handler     Handler
}

// EvaluationExample documents an evaluator's expected judgment.
type EvaluationExample struct {
	Context  string
	Messages []MessageExample
	Outcome  string
}

// Evaluator is a post-response hook producing auxiliary judgments or side
// effects (fact extraction, memory consolidation). AlwaysRun evaluators are
// considered even when the agent chose not to respond.
type Evaluator struct {
	Name        string
	Similes     []string
	Description string
	Examples    []EvaluationExample
	AlwaysRun   bool
	Validate    Validator
	Handler     Handler
}

// Provider contributes free text to state composition. A nil or empty
// result is discarded; results are concatenated in registration order.
type Provider struct {
	Name    string
	Provide func(ctx context.Context, rt Runtime, message *Memory, state *State) (string, error)
}

// ServiceType identifies a registered service.
type ServiceType string

// Service is a long-lived collaborator initialized by the runtime during
// its own initialization. Initialization failures are fatal.
type Service interface {
	Type() ServiceType
	Initialize(ctx context.Context, rt Runtime) error
}

// Plugin bundles capabilities consumed once at runtime construction.
type Plugin struct {
	Name        string
	Description string
	Actions     []Action
	Evaluators  []Evaluator
	Providers   []Provider
	Services    []Service
}
