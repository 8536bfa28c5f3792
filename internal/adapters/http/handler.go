package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/playdex/playdex-chat/internal/apperr"
	"github.com/playdex/playdex-chat/internal/app/turn"
	"github.com/playdex/playdex-chat/internal/domain"
)

type Server struct {
	svc *turn.Service
}

func NewServer(svc *turn.Service) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /rooms           → GET: list, POST: new conversation (archive default)
	mux.HandleFunc("/rooms", s.handleRooms)

	// /rooms/{id}          →  GET: room + messages (marks the room viewed)
	// /rooms/{id}/messages → POST: run one turn
	mux.HandleFunc("/rooms/", s.handleRoomWithID)

	return chainMiddlewares(mux, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type roomResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IsDefault bool      `json:"is_default"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type listRoomsResponse struct {
	Rooms []roomResponse `json:"rooms"`
}

type newConversationResponse struct {
	DefaultRoom  roomResponse  `json:"default_room"`
	ArchivedRoom *roomResponse `json:"archived_room,omitempty"`
}

type getRoomResponse struct {
	Room     roomResponse      `json:"room"`
	Messages []messageResponse `json:"messages"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	UserMessage *messageResponse `json:"user_message,omitempty"`
	BotMessage  *messageResponse `json:"bot_message,omitempty"`
	Blocked     bool             `json:"blocked,omitempty"`
	BlockReason string           `json:"block_reason,omitempty"`
	Ignored     bool             `json:"ignored,omitempty"`
	ErrorText   string           `json:"error_text,omitempty"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRooms(w, r)
	case http.MethodPost:
		s.handleNewConversation(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRoomWithID(w http.ResponseWriter, r *http.Request) {
	// expected path:
	// /rooms/{id}
	// /rooms/{id}/messages
	path := strings.TrimPrefix(r.URL.Path, "/rooms/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetRoom(w, r, domain.RoomID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "messages" {
		switch r.Method {
		case http.MethodPost:
			s.handleSendMessage(w, r, domain.RoomID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.ListRooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := listRoomsResponse{Rooms: make([]roomResponse, 0, len(rooms))}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, toRoomResponse(room))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNewConversation(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.NewConversation(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := newConversationResponse{DefaultRoom: toRoomResponse(out.DefaultRoom)}
	if out.ArchivedRoom != nil {
		ar := toRoomResponse(out.ArchivedRoom)
		resp.ArchivedRoom = &ar
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, id domain.RoomID) {
	// Opening a room's timeline counts as viewing it.
	s.svc.ViewRoom(id)

	room, msgs, err := s.svc.RoomTimeline(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := getRoomResponse{
		Room:     toRoomResponse(room),
		Messages: make([]messageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, roomID domain.RoomID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.InvalidArg("invalid JSON body"))
		return
	}

	out, err := s.svc.SendMessage(r.Context(), turn.SendMessageInput{
		RoomID: roomID,
		Text:   req.Text,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := sendMessageResponse{
		Blocked:   out.Blocked,
		Ignored:   out.Ignored,
		ErrorText: out.ErrorText,
	}
	if out.Blocked {
		resp.BlockReason = string(out.BlockReason)
	}
	if out.UserMessage != nil {
		m := toMessageResponse(out.UserMessage)
		resp.UserMessage = &m
	}
	if out.BotMessage != nil {
		m := toMessageResponse(out.BotMessage)
		resp.BotMessage = &m
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func toRoomResponse(r *domain.Room) roomResponse {
	return roomResponse{
		ID:        string(r.ID),
		Title:     r.Title,
		IsDefault: r.IsDefault,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		RoomID:    string(m.RoomID),
		Author:    string(m.Author),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		writeJSON(w, statusFor(ae.Code), map[string]string{
			"code":  string(ae.Code),
			"error": ae.Message,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeFailedPrecondition:
		return http.StatusConflict
	case apperr.CodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
