package core

import "github.com/google/uuid"

// State is the ephemeral per-turn aggregate used to build a model prompt.
// It is rebuilt for every message-processing cycle and never persisted.
// Later pipeline stages derive updated copies; nothing mutates a State
// another stage already holds.
type State struct {
	AgentID    uuid.UUID
	RoomID     uuid.UUID
	AgentName  string
	SenderName string

	Bio               string
	Lore              string
	Topic             string
	Topics            string
	Adjective         string
	MessageDirections string
	PostDirections    string

	Actors     string
	ActorsData []Actor

	Goals     string
	GoalsData []Goal

	RecentMessages     string
	RecentMessagesData []Memory
	Attachments        string

	RecentInteractions     string
	RecentPostInteractions string
	RecentInteractionsData []Memory

	CharacterPostExamples    string
	CharacterMessageExamples string

	Knowledge     string
	KnowledgeData []KnowledgeItem

	ActionNames    string
	Actions        string
	ActionExamples string
	ActionsData    []Action

	Evaluators        string
	EvaluatorNames    string
	EvaluatorExamples string
	EvaluatorsData    []Evaluator

	Providers string

	// Extra holds caller-supplied additional keys. They are merged last
	// during template rendering and therefore override computed fields of
	// the same name.
	Extra map[string]string
}

// Map flattens the state's text fields for template substitution. Keys use
// the lowerCamel names templates reference. Extra entries are overlaid
// last so callers can override any computed field.
func (s *State) Map() map[string]string {
	m := map[string]string{
		"agentId":                  s.AgentID.String(),
		"roomId":                   s.RoomID.String(),
		"agentName":                s.AgentName,
		"senderName":               s.SenderName,
		"bio":                      s.Bio,
		"lore":                     s.Lore,
		"topic":                    s.Topic,
		"topics":                   s.Topics,
		"adjective":                s.Adjective,
		"messageDirections":        s.MessageDirections,
		"postDirections":           s.PostDirections,
		"actors":                   s.Actors,
		"goals":                    s.Goals,
		"recentMessages":           s.RecentMessages,
		"attachments":              s.Attachments,
		"recentInteractions":       s.RecentInteractions,
		"recentPostInteractions":   s.RecentPostInteractions,
		"characterPostExamples":    s.CharacterPostExamples,
		"characterMessageExamples": s.CharacterMessageExamples,
		"knowledge":                s.Knowledge,
		"actionNames":              s.ActionNames,
		"actions":                  s.Actions,
		"actionExamples":           s.ActionExamples,
		"evaluators":               s.Evaluators,
		"evaluatorNames":           s.EvaluatorNames,
		"evaluatorExamples":        s.EvaluatorExamples,
		"providers":                s.Providers,
	}
	for k, v := range s.Extra {
		m[k] = v
	}
	return m
}

// Clone returns a shallow copy with an independent Extra map, suitable for
// derive-and-modify flows such as the recent-message refresh.
func (s *State) Clone() *State {
	out := *s
	out.Extra = make(map[string]string, len(s.Extra))
	for k, v := range s.Extra {
		out.Extra[k] = v
	}
	return &out
}
