package domain

import "github.com/google/uuid"

// Room is one conversation in the chatbot's registry. Exactly one room in the
// registry is the default (the one the chat tab opens on); archived
// conversations keep their own rooms.
type Room struct {
	ID        RoomID
	Title     string
	IsDefault bool

	// SessionKey keys the remote answer service's session for this
	// conversation. It travels with the conversation when it is archived.
	SessionKey string

	UpdatedAt Timestamp
	Seq       int
}

// Message represents any message in a room's timeline (user or bot).
// Seq keeps ordering stable even when timestamps collide.
type Message struct {
	ID        MessageID
	RoomID    RoomID
	Author    Role
	Text      string
	CreatedAt Timestamp
	Seq       int
}

// Prediction is the fixed output shape of both external classifiers.
type Prediction struct {
	Label      string
	Confidence float64
}

// NewDefaultRoom synthesizes the room the registry must never be without.
func NewDefaultRoom(now Timestamp) *Room {
	return &Room{
		ID:         RoomID(uuid.NewString()),
		Title:      "Chat",
		IsDefault:  true,
		SessionKey: uuid.NewString(),
		UpdatedAt:  now,
	}
}

// NormalizeRooms enforces the registry invariant on a candidate room list:
// the first room flagged default wins and later duplicates are demoted; if
// none is flagged, the first room is promoted. Seq is reassigned from slice
// order. An empty input gets a synthesized default at the head.
func NormalizeRooms(rooms []*Room, now Timestamp) []*Room {
	if len(rooms) == 0 {
		return []*Room{NewDefaultRoom(now)}
	}

	seenDefault := false
	for _, r := range rooms {
		if r.IsDefault {
			if seenDefault {
				r.IsDefault = false
			}
			seenDefault = true
		}
	}
	if !seenDefault {
		rooms[0].IsDefault = true
	}

	for i, r := range rooms {
		r.Seq = i
	}
	return rooms
}
