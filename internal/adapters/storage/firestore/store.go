package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/playdex/playdex-chat/internal/crypto"
	"github.com/playdex/playdex-chat/internal/domain"
	"github.com/playdex/playdex-chat/internal/observability"
)

// Store is the Firestore backend. Bodies are sealed with the body cipher
// before write, same contract as the sqlite backend.
type Store struct {
	client *firestore.Client
	cipher *crypto.BodyCipher
	now    func() time.Time
}

// NewStore creates a Firestore store.
// Uses the project passed (PLAYDEX_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string, cipher *crypto.BodyCipher) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, cipher: cipher, now: time.Now}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) roomsCol() *firestore.CollectionRef {
	return s.client.Collection("rooms")
}

func (s *Store) roomDoc(id domain.RoomID) *firestore.DocumentRef {
	return s.roomsCol().Doc(string(id))
}

func (s *Store) messagesCol(roomID domain.RoomID) *firestore.CollectionRef {
	return s.roomDoc(roomID).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type roomDoc struct {
	Title      string    `firestore:"title"`
	IsDefault  bool      `firestore:"is_default"`
	SessionKey string    `firestore:"session_key"`
	UpdatedAt  time.Time `firestore:"updated_at"`
	Seq        int       `firestore:"seq"`
}

type messageDoc struct {
	RoomID    string    `firestore:"room_id"`
	Author    string    `firestore:"author"`
	Body      []byte    `firestore:"body"` // opaque encrypted blob
	CreatedAt time.Time `firestore:"created_at"`
	Seq       int       `firestore:"seq"`
}

// ─────────────────────────────────────────
// RoomStore implementation
// ─────────────────────────────────────────

func (s *Store) LoadRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.queryRooms(ctx)
	if err != nil {
		return nil, err
	}

	hasDefault := false
	for _, r := range rooms {
		if r.IsDefault {
			hasDefault = true
			break
		}
	}
	if len(rooms) > 0 && hasDefault {
		return rooms, nil
	}

	rooms = domain.NormalizeRooms(rooms, s.now())
	if err := s.SaveRooms(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Store) queryRooms(ctx context.Context) ([]*domain.Room, error) {
	iter := s.roomsCol().OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Room
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore LoadRooms: %w", err)
		}

		var doc roomDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode roomDoc: %w", err)
		}

		out = append(out, &domain.Room{
			ID:         domain.RoomID(snap.Ref.ID),
			Title:      doc.Title,
			IsDefault:  doc.IsDefault,
			SessionKey: doc.SessionKey,
			UpdatedAt:  doc.UpdatedAt,
			Seq:        doc.Seq,
		})
	}
	return out, nil
}

func (s *Store) SaveRooms(ctx context.Context, rooms []*domain.Room) error {
	rooms = domain.NormalizeRooms(rooms, s.now())

	// Full replace: drop registry docs that are not in the new list, then
	// write the new list. Message subcollections are owned by SaveMessages.
	keep := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		keep[string(r.ID)] = true
	}

	iter := s.roomsCol().Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("firestore SaveRooms list: %w", err)
		}
		if !keep[snap.Ref.ID] {
			if _, err := snap.Ref.Delete(ctx); err != nil {
				return fmt.Errorf("firestore SaveRooms delete: %w", err)
			}
		}
	}

	for _, r := range rooms {
		doc := roomDoc{
			Title:      r.Title,
			IsDefault:  r.IsDefault,
			SessionKey: r.SessionKey,
			UpdatedAt:  r.UpdatedAt,
			Seq:        r.Seq,
		}
		if _, err := s.roomDoc(r.ID).Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore SaveRooms set: %w", err)
		}
	}
	return nil
}

func (s *Store) TouchRoomUpdatedAt(ctx context.Context, id domain.RoomID, at domain.Timestamp) error {
	_, err := s.roomDoc(id).Update(ctx, []firestore.Update{
		{Path: "updated_at", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("firestore TouchRoomUpdatedAt: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) LoadMessages(ctx context.Context, roomID domain.RoomID) ([]*domain.Message, error) {
	iter := s.messagesCol(roomID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore LoadMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		text, err := s.cipher.Decrypt(doc.Body)
		if err != nil {
			observability.Logger().Warn("message body failed to decrypt, loading empty",
				"room_id", roomID, "message_id", snap.Ref.ID, "error", err)
			text = ""
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(snap.Ref.ID),
			RoomID:    roomID,
			Author:    domain.Role(doc.Author),
			Text:      text,
			CreatedAt: doc.CreatedAt,
			Seq:       doc.Seq,
		})
	}
	return out, nil
}

func (s *Store) SaveMessages(ctx context.Context, msgs []*domain.Message, roomID domain.RoomID) error {
	// Full replace per room.
	iter := s.messagesCol(roomID).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return fmt.Errorf("firestore SaveMessages list: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("firestore SaveMessages delete: %w", err)
		}
	}

	for i, m := range msgs {
		body, err := s.cipher.Encrypt(m.Text)
		if err != nil {
			return fmt.Errorf("encrypt message %s: %w", m.ID, err)
		}
		doc := messageDoc{
			RoomID:    string(roomID),
			Author:    string(m.Author),
			Body:      body,
			CreatedAt: m.CreatedAt,
			Seq:       i,
		}
		if _, err := s.messagesCol(roomID).Doc(string(m.ID)).Set(ctx, doc); err != nil {
			return fmt.Errorf("firestore SaveMessages set: %w", err)
		}
	}
	return nil
}
