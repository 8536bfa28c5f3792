// Package sqlite is the default durable backend for the room registry and
// the per-room message logs. Message bodies are sealed with the body cipher
// before they touch the database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playdex/playdex-chat/internal/crypto"
	"github.com/playdex/playdex-chat/internal/domain"
	"github.com/playdex/playdex-chat/internal/observability"
	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	cipher *crypto.BodyCipher
	now    func() time.Time
}

// New opens (creating if needed) the chat database at dbPath.
func New(dbPath string, cipher *crypto.BodyCipher) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps reads responsive while a save rewrites a whole room log.
	// modernc wants the _pragma=name(value) form; mattn-style params are
	// silently ignored.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db, cipher: cipher, now: time.Now}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		session_key TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		seq INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rooms_seq ON rooms(seq);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		author TEXT NOT NULL,
		body BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		seq INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_room_seq ON messages(room_id, seq);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadRooms returns the registry in seq order. An empty or default-less
// registry is repaired in place so callers always see exactly one default.
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
	return s.queryRooms(ctx)
}

func (s *Store) queryRooms(ctx context.Context) ([]*domain.Room, error) {
	query := `
		SELECT id, title, is_default, session_key, updated_at, seq
		FROM rooms ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var out []*domain.Room
	for rows.Next() {
		var r domain.Room
		var isDefault int
		var updatedAt int64
		if err := rows.Scan(&r.ID, &r.Title, &isDefault, &r.SessionKey, &updatedAt, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		r.IsDefault = isDefault == 1
		r.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// SaveRooms replaces the whole registry. Seq follows slice order and the
// default flag is normalized to exactly one room.
func (s *Store) SaveRooms(ctx context.Context, rooms []*domain.Room) error {
	rooms = domain.NormalizeRooms(rooms, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save rooms: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("clear rooms: %w", err)
	}

	insert := `
		INSERT INTO rooms (id, title, is_default, session_key, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, r := range rooms {
		isDefault := 0
		if r.IsDefault {
			isDefault = 1
		}
		_, err := tx.ExecContext(ctx, insert,
			string(r.ID), r.Title, isDefault, r.SessionKey, r.UpdatedAt.Unix(), r.Seq)
		if err != nil {
			return fmt.Errorf("insert room %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) TouchRoomUpdatedAt(ctx context.Context, id domain.RoomID, at domain.Timestamp) error {
	query := `UPDATE rooms SET updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, at.Unix(), string(id)); err != nil {
		return fmt.Errorf("touch room: %w", err)
	}
	return nil
}

// LoadMessages decrypts each body independently. A body the current key
// cannot open loads as an empty string so history stays renderable.
func (s *Store) LoadMessages(ctx context.Context, roomID domain.RoomID) ([]*domain.Message, error) {
	query := `
		SELECT id, author, body, created_at, seq
		FROM messages WHERE room_id = ? ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, string(roomID))
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		var body []byte
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Author, &body, &createdAt, &m.Seq); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.RoomID = roomID
		m.CreatedAt = time.Unix(createdAt, 0)

		text, err := s.cipher.Decrypt(body)
		if err != nil {
			observability.Logger().Warn("message body failed to decrypt, loading empty",
				"room_id", roomID, "message_id", m.ID, "error", err)
			text = ""
		}
		m.Text = text

		out = append(out, &m)
	}
	return out, rows.Err()
}

// SaveMessages replaces roomID's whole log, bodies encrypted one by one.
func (s *Store) SaveMessages(ctx context.Context, msgs []*domain.Message, roomID domain.RoomID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save messages: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id = ?`, string(roomID)); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	insert := `
		INSERT INTO messages (id, room_id, author, body, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i, m := range msgs {
		body, err := s.cipher.Encrypt(m.Text)
		if err != nil {
			return fmt.Errorf("encrypt message %s: %w", m.ID, err)
		}
		_, err = tx.ExecContext(ctx, insert,
			string(m.ID), string(roomID), string(m.Author), body, m.CreatedAt.Unix(), i)
		if err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}
