package engine_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/engine"
	"github.com/cipherwebllc/eliza/memory/embedder/mock"
	"github.com/cipherwebllc/eliza/memory/store/local"
	"github.com/cipherwebllc/eliza/model"
	"github.com/cipherwebllc/eliza/plugins/bootstrap"
	"github.com/cipherwebllc/eliza/runtime"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(_ context.Context, _ model.Request) (string, error) {
	return s.response, nil
}

func TestRunFullTurn(t *testing.T) {
	ctx := context.Background()
	db := local.New()

	rt, err := runtime.New(ctx, runtime.Options{
		Database:  db,
		Embedder:  mock.New(32),
		Generator: &stubGenerator{response: "```json\n{\"text\": \"hello back\", \"action\": \"NONE\"}\n```"},
		Plugins:   []core.Plugin{bootstrap.Plugin()},
	})
	require.NoError(t, err)
	require.NoError(t, rt.Initialize(ctx))

	eng := engine.New(rt)
	userID := uuid.New()
	roomID := uuid.New()

	out, err := eng.Run(ctx, &engine.Input{
		UserID: userID,
		RoomID: roomID,
		Source: "test",
		Text:   "hi there",
	})
	require.NoError(t, err)
	require.Equal(t, "hello back", out.Response.Text)
	require.Equal(t, "NONE", out.Response.Action)

	// Both the incoming message and the reply are persisted.
	messages, err := rt.MessageManager().GetMemories(ctx, core.GetMemoriesOptions{RoomID: roomID, Count: 10})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	reply, err := rt.MessageManager().GetMemoryByID(ctx, out.ResponseID)
	require.NoError(t, err)
	require.Equal(t, rt.AgentID(), reply.UserID)
	require.NotNil(t, reply.Content.InReplyTo)
}

func TestRunInvokesResolvedAction(t *testing.T) {
	ctx := context.Background()
	var invoked atomic.Int64

	rt, err := runtime.New(ctx, runtime.Options{
		Database:  local.New(),
		Embedder:  mock.New(32),
		Generator: &stubGenerator{response: "```json\n{\"text\": \"on it\", \"action\": \"remind_me\"}\n```"},
		Actions: []core.Action{{
			Name: "REMIND_ME",
			Handler: func(ctx context.Context, rt core.Runtime, message core.Memory, state *core.State, options map[string]any, callback core.HandlerCallback) error {
				invoked.Add(1)
				return nil
			},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, rt.Initialize(ctx))

	_, err = engine.New(rt).Run(ctx, &engine.Input{
		UserID: uuid.New(),
		RoomID: uuid.New(),
		Text:   "remind me to stretch",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), invoked.Load())
}
