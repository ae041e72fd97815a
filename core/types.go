package core

import (
	"time"

	"github.com/google/uuid"
)

// Media describes an attachment carried by a message: an image, a video,
// a linked document, or any other piece of referenced content.
type Media struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// Content is the free-form payload of a memory. Text is always present for
// message-like memories; the remaining fields are optional structure layered
// on top of it.
type Content struct {
	Text string `json:"text"`

	// Action is the name of an agent capability the response wants invoked.
	Action string `json:"action,omitempty"`

	// Source references another memory. Knowledge fragments use it to point
	// back at their parent document; platform messages use it for the
	// originating service name.
	Source string `json:"source,omitempty"`

	// InReplyTo links a message to the memory it answers.
	InReplyTo *uuid.UUID `json:"inReplyTo,omitempty"`

	Attachments []Media `json:"attachments,omitempty"`
}

// Memory is a timestamped, room-scoped record. It is immutable once created
// except for embedding backfill. Similarity is transient: it is populated
// only on results of a similarity query and never persisted.
type Memory struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	AgentID   uuid.UUID `json:"agentId"`
	RoomID    uuid.UUID `json:"roomId"`
	Content   Content   `json:"content"`
	CreatedAt int64     `json:"createdAt"` // epoch milliseconds
	Embedding []float32 `json:"embedding,omitempty"`

	Similarity float64 `json:"-"`
}

// ActorDetails carries the free-text identity of a participant.
type ActorDetails struct {
	Tagline string `json:"tagline"`
	Summary string `json:"summary"`
	Quote   string `json:"quote"`
}

// Actor is the renderable identity of a participant within a room. It is
// derived from account and participant records per request and never
// persisted on its own.
type Actor struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Username string       `json:"username"`
	Details  ActorDetails `json:"details"`
}

// Account is a persisted user identity behind the DatabaseAdapter boundary.
type Account struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Username string       `json:"username"`
	Email    string       `json:"email,omitempty"`
	Details  ActorDetails `json:"details"`
}

// Room is a conversation scope containing participants and memories.
type Room struct {
	ID           uuid.UUID   `json:"id"`
	Participants []uuid.UUID `json:"participants,omitempty"`
}

// GoalStatus tracks the lifecycle of a goal.
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "NOT_STARTED"
	GoalStatusInProgress GoalStatus = "IN_PROGRESS"
	GoalStatusDone       GoalStatus = "DONE"
	GoalStatusFailed     GoalStatus = "FAILED"
)

// Objective is one step of a goal.
type Objective struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Goal is a named objective scoped to a room and a user. It is created by
// planning logic above this core, re-rendered on every state composition,
// and mutated by evaluators.
type Goal struct {
	ID         uuid.UUID   `json:"id"`
	RoomID     uuid.UUID   `json:"roomId"`
	UserID     uuid.UUID   `json:"userId"`
	Name       string      `json:"name"`
	Status     GoalStatus  `json:"status"`
	Objectives []Objective `json:"objectives"`
	CreatedAt  int64       `json:"createdAt"` // epoch milliseconds
}

// KnowledgeItem is a retrievable document: either one loaded from character
// configuration or one resolved from a matched fragment's parent.
type KnowledgeItem struct {
	ID      uuid.UUID `json:"id"`
	Content Content   `json:"content"`
}

// ModelClass selects a size/quality tier of the underlying model.
type ModelClass string

const (
	ModelClassSmall  ModelClass = "small"
	ModelClassMedium ModelClass = "medium"
	ModelClassLarge  ModelClass = "large"
)

// NowMillis returns the current time as epoch milliseconds, the unit used
// for Memory.CreatedAt throughout.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
