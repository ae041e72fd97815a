// Package bootstrap bundles the baseline capabilities most agents want:
// the do-nothing response actions and a clock provider. Register it via
// the character's plugin list or runtime options.
package bootstrap

import (
	"context"
	"time"

	"github.com/cipherwebllc/eliza/core"
)

// Plugin returns the bootstrap capability bundle.
func Plugin() core.Plugin {
	return core.Plugin{
		Name:        "bootstrap",
		Description: "Baseline response actions and providers.",
		Actions: []core.Action{
			NoneAction(),
			IgnoreAction(),
			ContinueAction(),
		},
		Providers: []core.Provider{
			TimeProvider(),
		},
	}
}

// NoneAction is the default response action: reply with text and do
// nothing else.
func NoneAction() core.Action {
	return core.Action{
		Name:        "NONE",
		Similes:     []string{"NO_ACTION", "NO_RESPONSE", "NOTHING"},
		Description: "Respond with the message text and take no further action. This is the default.",
		Examples: [][]core.MessageExample{
			{
				{User: "{{user1}}", Content: core.Content{Text: "What's your favorite way to spend a weekend?"}},
				{User: "{{user2}}", Content: core.Content{Text: "Long walks and a good book.", Action: "NONE"}},
			},
		},
		Validate: alwaysValid,
		Handler:  noop,
	}
}

// IgnoreAction signals the agent deliberately stays silent on this turn.
func IgnoreAction() core.Action {
	return core.Action{
		Name:        "IGNORE",
		Similes:     []string{"STOP_TALKING", "STOP_CHATTING"},
		Description: "Ignore the message. Use when the conversation is over or the user is hostile.",
		Examples: [][]core.MessageExample{
			{
				{User: "{{user1}}", Content: core.Content{Text: "bye"}},
				{User: "{{user2}}", Content: core.Content{Text: "", Action: "IGNORE"}},
			},
		},
		Validate: alwaysValid,
		Handler:  noop,
	}
}

// ContinueAction marks the reply as an incomplete thought the agent wants
// to extend. The platform layer decides whether to run another turn.
func ContinueAction() core.Action {
	return core.Action{
		Name:        "CONTINUE",
		Similes:     []string{"ELABORATE", "KEEP_TALKING"},
		Description: "Continue the previous thought with another message. Use sparingly.",
		Examples: [][]core.MessageExample{
			{
				{User: "{{user1}}", Content: core.Content{Text: "Tell me about your trip."}},
				{User: "{{user2}}", Content: core.Content{Text: "It started in Lisbon.", Action: "CONTINUE"}},
				{User: "{{user2}}", Content: core.Content{Text: "Three countries later I finally found decent coffee.", Action: "NONE"}},
			},
		},
		Validate: alwaysValid,
		Handler:  noop,
	}
}

// TimeProvider injects the current UTC time into composed state.
func TimeProvider() core.Provider {
	return core.Provider{
		Name: "time",
		Provide: func(ctx context.Context, rt core.Runtime, message *core.Memory, state *core.State) (string, error) {
			return "The current date and time is " + time.Now().UTC().Format("Monday, January 2, 2006 at 15:04 UTC") + ".", nil
		},
	}
}

func alwaysValid(ctx context.Context, rt core.Runtime, message core.Memory, state *core.State) (bool, error) {
	return true, nil
}

func noop(ctx context.Context, rt core.Runtime, message core.Memory, state *core.State, options map[string]any, callback core.HandlerCallback) error {
	return nil
}
