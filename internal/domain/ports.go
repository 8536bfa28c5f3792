package domain

import "context"

// AnswerClient defines how the core talks to the remote answer service.
// The service is opaque text-in/text-out, keyed per session.
type AnswerClient interface {
	// ResetSession drops any remote conversation state held under sessionKey.
	ResetSession(ctx context.Context, sessionKey string) error

	// Ask sends one payload and returns the raw answer text.
	Ask(ctx context.Context, payload string, sessionKey string) (string, error)
}

// Classifier is the fixed interface to an external text classifier
// (domain or intent). Schema discovery, if any, happens at construction.
type Classifier interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// RoomStore defines the room registry's persistence.
type RoomStore interface {
	// LoadRooms returns the registry in seq order, guaranteeing a default
	// room is present (synthesizing and persisting one if needed).
	LoadRooms(ctx context.Context) ([]*Room, error)

	// SaveRooms replaces the whole registry with the given rooms, seq
	// matching slice order, normalized to exactly one default.
	SaveRooms(ctx context.Context, rooms []*Room) error

	// TouchRoomUpdatedAt bumps one room's timestamp. No-op if absent.
	TouchRoomUpdatedAt(ctx context.Context, id RoomID, at Timestamp) error
}

// MessageStore defines per-room message-log persistence. Bodies are
// encrypted at rest; a body that fails to decrypt loads as an empty string.
type MessageStore interface {
	LoadMessages(ctx context.Context, roomID RoomID) ([]*Message, error)

	// SaveMessages replaces roomID's whole log with msgs in slice order.
	SaveMessages(ctx context.Context, msgs []*Message, roomID RoomID) error
}

// KeyStore is the secure storage holding the one message-encryption key.
type KeyStore interface {
	// Read returns the base64 value stored under name, ok=false if absent.
	Read(name string) (value string, ok bool, err error)
	Save(name, value string) error
}
