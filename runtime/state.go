package runtime

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/format"
)

const (
	// goalsCount caps the goals rendered into state.
	goalsCount = 10
	// recentInteractionsCount caps cross-room interactions in state.
	recentInteractionsCount = 20
	// attachmentWindow is how long attachment details stay visible after
	// the most recent message that carried one.
	attachmentWindow = time.Hour

	bioSampleSize          = 3
	loreSampleSize         = 10
	topicsSampleSize       = 5
	postExampleSampleSize  = 50
	messageExampleSampleSize = 5
	actionExampleCount     = 10
)

// ComposeState assembles the per-turn state for a message. Independent
// fetches run concurrently; sampling and formatting happen afterwards on
// the composing goroutine.
func (rt *AgentRuntime) ComposeState(ctx context.Context, message core.Memory, additionalKeys map[string]string) (*core.State, error) {
	character := rt.character

	var (
		actorsData             []core.Actor
		recentMessagesData     []core.Memory
		goalsData              []core.Goal
		recentInteractionsData []core.Memory
		knowledgeData          []core.KnowledgeItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actorsData, err = rt.getActorDetails(gctx, message.RoomID)
		return err
	})
	g.Go(func() error {
		var err error
		recentMessagesData, err = rt.MessageManager().GetMemories(gctx, core.GetMemoriesOptions{
			RoomID: message.RoomID,
			Count:  rt.conversationLength,
		})
		return err
	})
	g.Go(func() error {
		var err error
		goalsData, err = rt.db.GetGoals(gctx, core.GetGoalsOptions{
			RoomID: message.RoomID,
			Count:  goalsCount,
		})
		return err
	})
	if message.UserID != rt.agentID {
		g.Go(func() error {
			var err error
			recentInteractionsData, err = rt.getRecentInteractions(gctx, message.UserID, message.RoomID)
			return err
		})
	}
	g.Go(func() error {
		var err error
		knowledgeData, err = rt.knowledge.Get(gctx, message)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compose state: %w", err)
	}

	agentName := character.Name
	senderName := "Unknown User"
	for _, actor := range actorsData {
		if actor.ID == rt.agentID {
			agentName = actor.Name
		}
		if actor.ID == message.UserID {
			senderName = actor.Name
		}
	}

	var (
		bio, lore, topic, topics, adjective          string
		postExamples, messageExamples, actionExamples string
	)
	rt.withRand(func(rng *rand.Rand) {
		bio = strings.Join(format.Sample(rng, character.Bio, bioSampleSize), " ")
		lore = strings.Join(format.Sample(rng, character.Lore, loreSampleSize), "\n")
		if picked := format.Sample(rng, character.Topics, 1); len(picked) > 0 {
			topic = picked[0]
		}
		topics = formatTopics(agentName, format.Sample(rng, character.Topics, topicsSampleSize))
		if picked := format.Sample(rng, character.Adjectives, 1); len(picked) > 0 {
			adjective = picked[0]
		}
		postExamples = strings.Join(format.Sample(rng, character.PostExamples, postExampleSampleSize), "\n")
		messageExamples = formatMessageExamples(rng, format.Sample(rng, character.MessageExamples, messageExampleSampleSize))
	})

	messageDirections := styleDirections(character.Style.All, character.Style.Chat)
	postDirections := styleDirections(character.Style.All, character.Style.Post)

	state := &core.State{
		AgentID:    rt.agentID,
		RoomID:     message.RoomID,
		AgentName:  agentName,
		SenderName: senderName,

		Bio:               bio,
		Lore:              lore,
		Topic:             topic,
		Topics:            topics,
		Adjective:         adjective,
		MessageDirections: format.AddHeader("# Message Directions for "+agentName, messageDirections),
		PostDirections:    format.AddHeader("# Post Directions for "+agentName, postDirections),

		Actors:     format.AddHeader("# Actors in the Scene", format.Actors(actorsData)),
		ActorsData: actorsData,

		Goals:     format.AddHeader("# Goals\n"+agentName+" should prioritize accomplishing the objectives that are in progress.", format.Goals(goalsData)),
		GoalsData: goalsData,

		RecentMessages:     format.AddHeader("# Conversation Messages", format.Messages(recentMessagesData, actorsData)),
		RecentMessagesData: recentMessagesData,
		Attachments:        format.AddHeader("# Attachments", attachmentsBlock(&message, recentMessagesData)),

		RecentInteractions:     format.Messages(recentInteractionsData, actorsData),
		RecentPostInteractions: format.Posts(recentInteractionsData, actorsData, true),
		RecentInteractionsData: recentInteractionsData,

		CharacterPostExamples:    format.AddHeader("# Example Posts for "+agentName, postExamples),
		CharacterMessageExamples: format.AddHeader("# Example Conversations for "+agentName, messageExamples),

		Knowledge:     formatKnowledge(knowledgeData),
		KnowledgeData: knowledgeData,

		Extra: copyMap(additionalKeys),
	}

	// Validators and providers see the state built so far; only the
	// capability advertisement fields are still empty at this point.
	validActions, err := rt.validActions(ctx, message, state)
	if err != nil {
		return nil, err
	}
	validEvaluators, err := rt.validEvaluators(ctx, message, state)
	if err != nil {
		return nil, err
	}
	rt.withRand(func(rng *rand.Rand) {
		actionExamples = format.ComposeActionExamples(rng, validActions, actionExampleCount)
	})

	state.ActionNames = addPrefix("Possible response actions: ", format.ActionNames(validActions))
	state.Actions = format.AddHeader("# Available Actions", format.Actions(validActions))
	state.ActionExamples = format.AddHeader("# Action Examples", actionExamples)
	state.ActionsData = validActions

	state.Evaluators = format.Evaluators(validEvaluators)
	state.EvaluatorNames = format.EvaluatorNames(validEvaluators)
	state.EvaluatorExamples = format.AddHeader("# Evaluation Examples", format.EvaluatorExamples(validEvaluators))
	state.EvaluatorsData = validEvaluators

	state.Providers = rt.runProviders(ctx, message, state)

	return state, nil
}

// UpdateRecentMessageState refetches the conversation window and derives a
// new state from the given one. Everything else is carried over untouched.
func (rt *AgentRuntime) UpdateRecentMessageState(ctx context.Context, state *core.State) (*core.State, error) {
	messages, err := rt.MessageManager().GetMemories(ctx, core.GetMemoriesOptions{
		RoomID: state.RoomID,
		Count:  rt.conversationLength,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh recent messages: %w", err)
	}

	out := state.Clone()
	out.RecentMessagesData = messages
	out.RecentMessages = format.AddHeader("# Conversation Messages", format.Messages(messages, state.ActorsData))
	out.Attachments = format.AddHeader("# Attachments", attachmentsBlock(nil, messages))
	return out, nil
}

// getActorDetails resolves the room's participants to renderable actors.
// Participants without a stored account are skipped.
func (rt *AgentRuntime) getActorDetails(ctx context.Context, roomID uuid.UUID) ([]core.Actor, error) {
	participants, err := rt.db.GetParticipantsForRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	actors := make([]core.Actor, 0, len(participants))
	for _, userID := range participants {
		account, err := rt.db.GetAccountByID(ctx, userID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("look up account: %w", err)
		}
		actors = append(actors, core.Actor{
			ID:       account.ID,
			Name:     account.Name,
			Username: account.Username,
			Details:  account.Details,
		})
	}
	return actors, nil
}

// getRecentInteractions fetches prior exchanges between the sender and the
// agent in other rooms they share.
func (rt *AgentRuntime) getRecentInteractions(ctx context.Context, senderID, currentRoomID uuid.UUID) ([]core.Memory, error) {
	rooms, err := rt.db.GetRoomsForParticipants(ctx, []uuid.UUID{senderID, rt.agentID})
	if err != nil {
		return nil, fmt.Errorf("list shared rooms: %w", err)
	}
	other := rooms[:0]
	for _, room := range rooms {
		if room != currentRoomID {
			other = append(other, room)
		}
	}
	if len(other) == 0 {
		return nil, nil
	}
	memories, err := rt.MessageManager().GetMemoriesByRoomIDs(ctx, other)
	if err != nil {
		return nil, fmt.Errorf("fetch cross-room messages: %w", err)
	}
	if len(memories) > recentInteractionsCount {
		memories = memories[:recentInteractionsCount]
	}
	return memories, nil
}

// validActions runs every registered action's validator concurrently and
// returns the passing ones in registration order.
func (rt *AgentRuntime) validActions(ctx context.Context, message core.Memory, state *core.State) ([]core.Action, error) {
	rt.mu.RLock()
	actions := make([]core.Action, len(rt.actions))
	copy(actions, rt.actions)
	rt.mu.RUnlock()

	keep := make([]bool, len(actions))
	g, gctx := errgroup.WithContext(ctx)
	for i, action := range actions {
		if action.Validate == nil {
			keep[i] = true
			continue
		}
		i, action := i, action
		g.Go(func() error {
			ok, err := action.Validate(gctx, rt, message, state)
			if err != nil {
				return fmt.Errorf("validate action %s: %w", action.Name, err)
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Action
	for i, action := range actions {
		if keep[i] {
			out = append(out, action)
		}
	}
	return out, nil
}

// validEvaluators mirrors validActions for evaluators.
func (rt *AgentRuntime) validEvaluators(ctx context.Context, message core.Memory, state *core.State) ([]core.Evaluator, error) {
	rt.mu.RLock()
	evaluators := make([]core.Evaluator, len(rt.evaluators))
	copy(evaluators, rt.evaluators)
	rt.mu.RUnlock()

	keep := make([]bool, len(evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, evaluator := range evaluators {
		if evaluator.Validate == nil {
			keep[i] = true
			continue
		}
		i, evaluator := i, evaluator
		g.Go(func() error {
			ok, err := evaluator.Validate(gctx, rt, message, state)
			if err != nil {
				return fmt.Errorf("validate evaluator %s: %w", evaluator.Name, err)
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Evaluator
	for i, evaluator := range evaluators {
		if keep[i] {
			out = append(out, evaluator)
		}
	}
	return out, nil
}

// runProviders collects provider text in registration order. A failing
// provider is logged and skipped so one bad integration cannot block state
// composition.
func (rt *AgentRuntime) runProviders(ctx context.Context, message core.Memory, state *core.State) string {
	rt.mu.RLock()
	providers := make([]core.Provider, len(rt.providers))
	copy(providers, rt.providers)
	rt.mu.RUnlock()

	var parts []string
	for _, provider := range providers {
		if provider.Provide == nil {
			continue
		}
		text, err := provider.Provide(ctx, rt, &message, state)
		if err != nil {
			rt.log.Warn().Err(err).Str("provider", provider.Name).Msg("provider failed, skipping")
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// attachmentsBlock renders the current message's attachments plus those
// carried by the conversation window. Details of window attachments older
// than an hour before the newest one are masked so stale content stops
// leaking into prompts. current is nil on window-only refreshes.
func attachmentsBlock(current *core.Memory, messages []core.Memory) string {
	var media []core.Media
	if current != nil {
		media = append(media, current.Content.Attachments...)
	}

	// Messages arrive newest first.
	var cutoff int64
	for _, m := range messages {
		if len(m.Content.Attachments) > 0 {
			cutoff = m.CreatedAt - attachmentWindow.Milliseconds()
			break
		}
	}

	for _, m := range messages {
		if current != nil && m.ID == current.ID {
			continue
		}
		for _, a := range m.Content.Attachments {
			if m.CreatedAt < cutoff {
				a.Text = "[Hidden]"
				a.Description = "[Hidden]"
			}
			media = append(media, a)
		}
	}
	return format.Attachments(media)
}

func formatTopics(agentName string, topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	if len(topics) == 1 {
		return agentName + " is interested in " + topics[0]
	}
	return agentName + " is interested in " + strings.Join(topics[:len(topics)-1], ", ") + " and " + topics[len(topics)-1]
}

func formatMessageExamples(rng *rand.Rand, examples [][]core.MessageExample) string {
	blocks := make([]string, 0, len(examples))
	for _, conversation := range examples {
		names := format.PlaceholderNames(rng, 5)
		lines := make([]string, 0, len(conversation))
		for _, turn := range conversation {
			line := turn.User + ": " + turn.Content.Text
			if turn.Content.Action != "" {
				line += " (" + turn.Content.Action + ")"
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

func formatKnowledge(items []core.KnowledgeItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item.Content.Text)
	}
	return strings.Join(lines, "\n")
}

func styleDirections(all, specific []string) string {
	return strings.Join(append(append([]string{}, all...), specific...), "\n")
}

func addPrefix(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
