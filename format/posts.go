package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
)

// Posts renders messages grouped by room. Rooms are ordered by the
// recency of their latest message, newest room first; messages within a
// room run chronologically. When conversationHeader is set each group is
// prefixed with a truncated room-id header.
func Posts(messages []core.Memory, actors []core.Actor, conversationHeader bool) string {
	byID := make(map[uuid.UUID]core.Actor, len(actors))
	for _, a := range actors {
		byID[a.ID] = a
	}

	grouped := make(map[uuid.UUID][]core.Memory)
	for _, m := range messages {
		if m.RoomID == uuid.Nil {
			continue
		}
		grouped[m.RoomID] = append(grouped[m.RoomID], m)
	}

	type room struct {
		id     uuid.UUID
		latest int64
	}
	rooms := make([]room, 0, len(grouped))
	for id, msgs := range grouped {
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		})
		rooms = append(rooms, room{id: id, latest: msgs[len(msgs)-1].CreatedAt})
	}
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].latest > rooms[j].latest
	})

	blocks := make([]string, 0, len(rooms))
	for _, r := range rooms {
		posts := make([]string, 0, len(grouped[r.id]))
		for _, m := range grouped[r.id] {
			if m.UserID == uuid.Nil {
				continue
			}
			name, username := "Unknown User", "unknown"
			if a, ok := byID[m.UserID]; ok {
				name, username = a.Name, a.Username
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Name: %s (@%s)\n", name, username)
			fmt.Fprintf(&b, "ID: %s", m.ID)
			if m.Content.InReplyTo != nil {
				fmt.Fprintf(&b, "\nIn reply to: %s", m.Content.InReplyTo)
			}
			fmt.Fprintf(&b, "\nDate: %s", RelativeTimestamp(m.CreatedAt, nowFunc()))
			fmt.Fprintf(&b, "\nText:\n%s", m.Content.Text)
			posts = append(posts, b.String())
		}

		block := strings.Join(posts, "\n\n")
		if conversationHeader {
			id := r.id.String()
			block = fmt.Sprintf("Conversation: %s\n%s", id[len(id)-5:], block)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
