package format_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/format"
)

func TestAddHeader(t *testing.T) {
	if got := format.AddHeader("# Header", ""); got != "" {
		t.Errorf("empty content should produce empty output, got %q", got)
	}
	got := format.AddHeader("# Header", "body")
	if !strings.HasPrefix(got, "# Header\n") {
		t.Errorf("missing header prefix: %q", got)
	}
	if !strings.Contains(got, "body") {
		t.Errorf("missing body: %q", got)
	}
}

func TestComposeContext(t *testing.T) {
	values := map[string]string{
		"agentName": "Eliza",
		"topic":     "chess",
	}
	got := format.ComposeContext(values, "{{agentName}} likes {{topic}}. {{missing}} stays empty.")
	want := "Eliza likes chess.  stays empty."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRelativeTimestamp(t *testing.T) {
	now := time.Now()
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{2 * time.Hour, "2 hours ago"},
		{72 * time.Hour, "3 days ago"},
	}
	for _, tc := range cases {
		ms := now.Add(-tc.ago).UnixMilli()
		if got := format.RelativeTimestamp(ms, now); got != tc.want {
			t.Errorf("format.RelativeTimestamp(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}

	first := format.Sample(rand.New(rand.NewSource(7)), items, 3)
	second := format.Sample(rand.New(rand.NewSource(7)), items, 3)
	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("same seed should draw the same sample: %v vs %v", first, second)
	}
	if len(first) != 3 {
		t.Errorf("want 3 items, got %d", len(first))
	}

	all := format.Sample(rand.New(rand.NewSource(7)), items, 100)
	if len(all) != len(items) {
		t.Errorf("oversized n should return all items, got %d", len(all))
	}
}

func TestMessagesOrderingAndFormat(t *testing.T) {
	alice := core.Actor{ID: uuid.New(), Name: "Alice", Username: "alice"}
	bob := core.Actor{ID: uuid.New(), Name: "Bob", Username: "bob"}
	now := time.Now().UnixMilli()

	messages := []core.Memory{
		{ID: uuid.New(), UserID: bob.ID, CreatedAt: now, Content: core.Content{Text: "second", Action: "NONE"}},
		{ID: uuid.New(), UserID: alice.ID, CreatedAt: now - 60_000, Content: core.Content{Text: "first"}},
	}

	got := format.Messages(messages, []core.Actor{alice, bob})
	if strings.Index(got, "first") > strings.Index(got, "second") {
		t.Errorf("messages should render oldest first:\n%s", got)
	}
	if !strings.Contains(got, "Alice (@alice): first") {
		t.Errorf("missing actor attribution:\n%s", got)
	}
	if !strings.Contains(got, "(NONE)") {
		t.Errorf("missing action suffix:\n%s", got)
	}

	unknown := format.Messages([]core.Memory{{ID: uuid.New(), UserID: uuid.New(), CreatedAt: now, Content: core.Content{Text: "hi"}}}, nil)
	if !strings.Contains(unknown, "Unknown User") {
		t.Errorf("unresolved sender should render as Unknown User:\n%s", unknown)
	}
}

func TestPostsGroupsByRoomNewestRoomFirst(t *testing.T) {
	author := core.Actor{ID: uuid.New(), Name: "Alice", Username: "alice"}
	roomOld := uuid.New()
	roomNew := uuid.New()
	now := time.Now().UnixMilli()

	messages := []core.Memory{
		{ID: uuid.New(), UserID: author.ID, RoomID: roomOld, CreatedAt: now - 120_000, Content: core.Content{Text: "old room post"}},
		{ID: uuid.New(), UserID: author.ID, RoomID: roomNew, CreatedAt: now, Content: core.Content{Text: "new room post"}},
	}

	got := format.Posts(messages, []core.Actor{author}, true)
	if strings.Index(got, "new room post") > strings.Index(got, "old room post") {
		t.Errorf("room with newest activity should come first:\n%s", got)
	}
	if !strings.Contains(got, "Conversation: "+roomNew.String()[len(roomNew.String())-5:]) {
		t.Errorf("missing conversation header:\n%s", got)
	}
}

func TestGoalsChecklist(t *testing.T) {
	goals := []core.Goal{
		{
			ID:     uuid.New(),
			Name:   "Learn Go",
			Status: core.GoalStatusInProgress,
			Objectives: []core.Objective{
				{Description: "Read the design doc", Completed: true},
				{Description: "Write a server", Completed: false},
			},
		},
	}
	got := format.Goals(goals)
	if !strings.Contains(got, "Goal: Learn Go") {
		t.Errorf("missing goal name:\n%s", got)
	}
	if !strings.Contains(got, "- [x] Read the design doc") || !strings.Contains(got, "- [ ] Write a server") {
		t.Errorf("objective checklist wrong:\n%s", got)
	}
}

func TestComposeActionExamplesSubstitutesPlaceholders(t *testing.T) {
	action := core.Action{
		Name: "WAVE",
		Examples: [][]core.MessageExample{
			{
				{User: "{{user1}}", Content: core.Content{Text: "hello {{user2}}"}},
				{User: "{{user2}}", Content: core.Content{Text: "hi", Action: "WAVE"}},
			},
		},
	}
	got := format.ComposeActionExamples(rand.New(rand.NewSource(1)), []core.Action{action}, 5)
	if strings.Contains(got, "{{user") {
		t.Errorf("placeholders should be substituted:\n%s", got)
	}
	if !strings.Contains(got, "(WAVE)") {
		t.Errorf("missing action annotation:\n%s", got)
	}
}
