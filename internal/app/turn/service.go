// Package turn sequences one user turn: validation, optimistic persistence,
// admission gating, session priming, intent classification, the remote call,
// answer cleanup, and the final write — with at most one turn in flight
// process-wide, blocked turns included.
package turn

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playdex/playdex-chat/internal/apperr"
	"github.com/playdex/playdex-chat/internal/app/gate"
	"github.com/playdex/playdex-chat/internal/app/session"
	"github.com/playdex/playdex-chat/internal/domain"
	"github.com/playdex/playdex-chat/internal/observability"
)

const remoteErrorText = "Sorry, I couldn't reach the game assistant just now. Please try again."

type Options struct {
	// AnswerEndpoint identifies the remote answer model/endpoint. Empty
	// means the answer service is not configured and allowed turns fail
	// with a configuration error before any network activity.
	AnswerEndpoint string

	// IntentMinConfidence is the floor below which the orchestrator falls
	// back to the default intent instead of trusting the classifier.
	IntentMinConfidence float64

	// ContextSummary gates prepending local history on the first turn
	// after a room switch.
	ContextSummary     bool
	ContextSummaryMsgs int
}

type Service struct {
	rooms  domain.RoomStore
	msgs   domain.MessageStore
	answer domain.AnswerClient
	intent domain.Classifier // nil = always default intent
	gate   *gate.Gate
	coord  *session.Coordinator
	opts   Options

	now        func() time.Time
	newID      func() string
	sleep      func(time.Duration)
	blockDelay func() time.Duration

	mu             sync.Mutex
	viewedRoom     domain.RoomID
	primedRoom     domain.RoomID
	firstAfterSwap bool

	redirects *redirectTable
}

func NewService(
	rooms domain.RoomStore,
	msgs domain.MessageStore,
	answer domain.AnswerClient,
	intent domain.Classifier,
	g *gate.Gate,
	coord *session.Coordinator,
	opts Options,
) *Service {
	if opts.IntentMinConfidence == 0 {
		opts.IntentMinConfidence = 0.55
	}
	if opts.ContextSummaryMsgs == 0 {
		opts.ContextSummaryMsgs = 6
	}

	return &Service{
		rooms:  rooms,
		msgs:   msgs,
		answer: answer,
		intent: intent,
		gate:   g,
		coord:  coord,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
		sleep:  time.Sleep,
		blockDelay: func() time.Duration {
			// UX pacing before a canned reply, no network involved.
			return time.Second + time.Duration(rand.Int63n(int64(time.Second)))
		},
		redirects: newRedirectTable(),
	}
}

// ViewRoom records the room the user is looking at. Room-scoped errors are
// dropped when the user has navigated away, and the first turn after a
// switch may carry a local-context summary.
func (s *Service) ViewRoom(roomID domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewedRoom != roomID {
		s.viewedRoom = roomID
		s.firstAfterSwap = true
	}
}

func (s *Service) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.LoadRooms(ctx)
}

// RoomTimeline returns one room and its ordered message log.
func (s *Service) RoomTimeline(ctx context.Context, roomID domain.RoomID) (*domain.Room, []*domain.Message, error) {
	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.msgs.LoadMessages(ctx, roomID)
	if err != nil {
		return nil, nil, apperr.ErrPersistence(err)
	}
	return room, msgs, nil
}

type NewConversationOutput struct {
	DefaultRoom  *domain.Room
	ArchivedRoom *domain.Room // nil when there was nothing to archive
}

// NewConversation archives the current default conversation into a fresh
// room and clears the default. An in-flight turn against the default is
// redirected so its artifact lands in the archive.
func (s *Service) NewConversation(ctx context.Context) (*NewConversationOutput, error) {
	log := observability.LoggerFromContext(ctx)

	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		return nil, apperr.ErrPersistence(err)
	}

	var def *domain.Room
	rest := make([]*domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.IsDefault && def == nil {
			def = r
		} else {
			rest = append(rest, r)
		}
	}

	history, err := s.msgs.LoadMessages(ctx, def.ID)
	if err != nil {
		return nil, apperr.ErrPersistence(err)
	}
	if len(history) == 0 {
		log.Info("new conversation requested with empty default room, nothing to archive")
		return &NewConversationOutput{DefaultRoom: def}, nil
	}

	now := s.now()
	archived := &domain.Room{
		ID:         domain.RoomID(s.newID()),
		Title:      archiveTitle(history, now),
		SessionKey: def.SessionKey, // the remote session follows the conversation
		UpdatedAt:  now,
	}
	def.SessionKey = s.newID()
	def.UpdatedAt = now

	if err := s.msgs.SaveMessages(ctx, history, archived.ID); err != nil {
		return nil, apperr.ErrPersistence(err)
	}
	if err := s.msgs.SaveMessages(ctx, nil, def.ID); err != nil {
		return nil, apperr.ErrPersistence(err)
	}

	ordered := append([]*domain.Room{def, archived}, rest...)
	if err := s.rooms.SaveRooms(ctx, ordered); err != nil {
		return nil, apperr.ErrPersistence(err)
	}

	// Retarget the in-flight turn, if the default room owns one.
	if active, ok := s.coord.ActiveRoomID(); ok && active == def.ID {
		s.redirects.Register(def.ID, archived.ID)
		s.coord.RedirectActiveRoom(def.ID, archived.ID)
		log.Info("registered mid-flight redirect", "from", def.ID, "to", archived.ID)
	}

	s.mu.Lock()
	s.primedRoom = "" // default room has a fresh session key, re-prime
	s.firstAfterSwap = true
	s.mu.Unlock()

	welcome := s.botMessage(def.ID, "New chat! Ask me anything about the games in the catalog.")
	if err := s.appendMessage(ctx, def.ID, welcome); err != nil {
		return nil, err
	}

	log.Info("conversation archived", "archived_room", archived.ID)
	return &NewConversationOutput{DefaultRoom: def, ArchivedRoom: archived}, nil
}

type SendMessageInput struct {
	RoomID domain.RoomID
	Text   string
}

type SendMessageOutput struct {
	UserMessage *domain.Message
	BotMessage  *domain.Message

	Blocked     bool
	BlockReason gate.Reason

	// Ignored is set for empty input: no side effects at all.
	Ignored bool

	// ErrorText carries a room-scoped configuration or remote error, set
	// only when the user is still viewing the originating room.
	ErrorText string
}

// SendMessage runs one full turn. While a turn is in flight, new turns are
// refused with ErrTurnInFlight rather than queued.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return &SendMessageOutput{Ignored: true}, nil
	}

	// The slot is held for the whole turn, blocked path included, and the
	// busy check is the acquisition itself: a second send is dropped no
	// matter where the first turn currently is.
	if !s.coord.TryAcquire(in.RoomID) {
		return nil, apperr.ErrTurnInFlight
	}

	source := in.RoomID

	// The redirect entry for this turn dies with the turn.
	defer func() {
		s.redirects.Clear(source)
		s.coord.Release()
	}()

	ctx = observability.WithTurnID(ctx, s.newID())
	log := observability.LoggerFromContext(ctx).With("room_id", source)
	log.Info("turn started")

	// Sending from a room means the user is looking at it.
	s.ViewRoom(source)

	room, err := s.findRoom(ctx, source)
	if err != nil {
		return nil, err
	}

	// The user's message is persisted before gating or any network
	// activity so history reflects exactly what was sent.
	userMsg := s.userMessage(source, text)
	if err := s.appendMessage(ctx, source, userMsg); err != nil {
		log.Error("optimistic persist failed", "error", err)
		return nil, err
	}

	out := &SendMessageOutput{UserMessage: userMsg}

	decision := s.gate.Evaluate(ctx, text)
	if !decision.Allowed {
		s.sleep(s.blockDelay())

		target := s.redirects.Resolve(source)
		botMsg := s.botMessage(target, decision.CannedReply)
		if err := s.appendMessage(ctx, target, botMsg); err != nil {
			log.Error("canned reply persist failed", "error", err)
			return nil, err
		}
		s.touchRoom(ctx, target)

		out.BotMessage = botMsg
		out.Blocked = true
		out.BlockReason = decision.Reason
		log.Info("turn blocked", "reason", string(decision.Reason))
		return out, nil
	}

	if s.opts.AnswerEndpoint == "" {
		return s.roomScopedFailure(ctx, out, source, apperr.ErrAnswerNotConfigured)
	}
	if room.SessionKey == "" {
		return s.roomScopedFailure(ctx, out, source, apperr.ErrSessionKeyMissing)
	}

	botMsg, runErr := s.remoteTurn(ctx, room, userMsg)
	if runErr != nil {
		if apperr.CodeOf(runErr) == apperr.CodeRemoteCall {
			return s.roomScopedFailure(ctx, out, source, runErr)
		}
		log.Error("turn failed", "error", runErr)
		return nil, runErr
	}

	out.BotMessage = botMsg
	log.Info("turn completed")
	return out, nil
}

// remoteTurn is the remote region of an allowed turn: priming, intent,
// payload, answer, final write. The write target is resolved through the
// redirect table so an archive mid-turn lands the reply in the right room.
func (s *Service) remoteTurn(ctx context.Context, room *domain.Room, userMsg *domain.Message) (*domain.Message, error) {
	if err := s.ensureSessionContext(ctx, room); err != nil {
		return nil, apperr.ErrRemoteCall(err)
	}

	intent := s.classifyIntent(ctx, userMsg.Text)
	summary := s.localContextSummary(ctx, room.ID, userMsg.ID)
	payload := BuildPayload(intent, summary, userMsg.Text)

	raw, err := s.answer.Ask(ctx, payload, room.SessionKey)
	if err != nil {
		return nil, apperr.ErrRemoteCall(err)
	}

	target := s.redirects.Resolve(room.ID)
	m := s.botMessage(target, CleanAnswer(raw))
	if err := s.appendMessage(ctx, target, m); err != nil {
		return nil, err
	}
	s.touchRoom(ctx, target)

	s.mu.Lock()
	s.firstAfterSwap = false
	s.mu.Unlock()

	return m, nil
}

// ─────────────────────────────────────────────
// Turn internals
// ─────────────────────────────────────────────

// ensureSessionContext primes the remote session (reset + system prompt)
// the first time a room's turn reaches the remote service.
func (s *Service) ensureSessionContext(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	primed := s.primedRoom == room.ID
	s.mu.Unlock()
	if primed {
		return nil
	}

	log := observability.LoggerFromContext(ctx)
	log.Info("priming remote session", "room_id", room.ID)

	if err := s.answer.ResetSession(ctx, room.SessionKey); err != nil {
		return err
	}
	if _, err := s.answer.Ask(ctx, SystemPrompt, room.SessionKey); err != nil {
		return err
	}

	s.mu.Lock()
	s.primedRoom = room.ID
	s.firstAfterSwap = true
	s.mu.Unlock()
	return nil
}

// classifyIntent never blocks the turn: failure, low confidence, and
// out-of-domain labels all fall back to the default intent.
func (s *Service) classifyIntent(ctx context.Context, text string) domain.IntentLabel {
	if s.intent == nil {
		return domain.IntentGeneral
	}

	pred, err := s.intent.Predict(ctx, text)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("intent classifier failed, using default", "error", err)
		return domain.IntentGeneral
	}
	if pred.Confidence < s.opts.IntentMinConfidence {
		return domain.IntentGeneral
	}

	switch label := domain.IntentLabel(pred.Label); label {
	case domain.IntentRecommendation, domain.IntentGameInfo, domain.IntentComparison, domain.IntentHowTo:
		return label
	case domain.IntentOutOfDomain:
		// The gate already admitted this text; record the disagreement.
		observability.LoggerFromContext(ctx).Warn("intent classifier voted out-of-domain on an admitted message",
			"confidence", pred.Confidence)
		return domain.IntentGeneral
	default:
		return domain.IntentGeneral
	}
}

// localContextSummary returns a bounded summary of the room's prior history
// for the first turn after a room switch, when the feature flag permits.
func (s *Service) localContextSummary(ctx context.Context, roomID domain.RoomID, currentMsgID domain.MessageID) string {
	if !s.opts.ContextSummary {
		return ""
	}
	s.mu.Lock()
	first := s.firstAfterSwap
	s.mu.Unlock()
	if !first {
		return ""
	}

	history, err := s.msgs.LoadMessages(ctx, roomID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("history load for summary failed", "error", err)
		return ""
	}
	// Drop this turn's own optimistic write.
	if n := len(history); n > 0 && history[n-1].ID == currentMsgID {
		history = history[:n-1]
	}
	return SummarizeHistory(history, s.opts.ContextSummaryMsgs)
}

// roomScopedFailure surfaces a turn error as room-scoped text, but only to
// the room the user is still viewing; otherwise the error is dropped.
func (s *Service) roomScopedFailure(ctx context.Context, out *SendMessageOutput, source domain.RoomID, err error) (*SendMessageOutput, error) {
	log := observability.LoggerFromContext(ctx).With("room_id", source)
	log.Error("turn aborted", "error", err)

	s.mu.Lock()
	viewing := s.viewedRoom == source
	s.mu.Unlock()
	if !viewing {
		log.Info("user navigated away, dropping room-scoped error")
		return out, nil
	}

	if apperr.CodeOf(err) == apperr.CodeRemoteCall {
		out.ErrorText = remoteErrorText
	} else {
		out.ErrorText = err.Error()
	}
	return out, nil
}

// touchRoom bumps a room's updated_at. The timestamp is presentation
// ordering, not turn state, so a failed bump is logged and the turn goes on.
func (s *Service) touchRoom(ctx context.Context, roomID domain.RoomID) {
	if err := s.rooms.TouchRoomUpdatedAt(ctx, roomID, s.now()); err != nil {
		observability.LoggerFromContext(ctx).Warn("room timestamp update failed",
			"room_id", roomID, "error", err)
	}
}

// appendMessage implements the write model: load the room's current list,
// append one entry, save the whole list. The coordinator's single-turn
// guarantee is the mitigation against lost concurrent writes.
func (s *Service) appendMessage(ctx context.Context, roomID domain.RoomID, m *domain.Message) error {
	msgs, err := s.msgs.LoadMessages(ctx, roomID)
	if err != nil {
		return apperr.ErrPersistence(err)
	}
	msgs = append(msgs, m)
	if err := s.msgs.SaveMessages(ctx, msgs, roomID); err != nil {
		return apperr.ErrPersistence(err)
	}
	return nil
}

func (s *Service) findRoom(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	rooms, err := s.rooms.LoadRooms(ctx)
	if err != nil {
		return nil, apperr.ErrPersistence(err)
	}
	for _, r := range rooms {
		if r.ID == roomID {
			return r, nil
		}
	}
	return nil, apperr.ErrRoomNotFound
}

func (s *Service) userMessage(roomID domain.RoomID, text string) *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(s.newID()),
		RoomID:    roomID,
		Author:    domain.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
	}
}

func (s *Service) botMessage(roomID domain.RoomID, text string) *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(s.newID()),
		RoomID:    roomID,
		Author:    domain.RoleBot,
		Text:      text,
		CreatedAt: s.now(),
	}
}

func archiveTitle(history []*domain.Message, now time.Time) string {
	for _, m := range history {
		if m.Author == domain.RoleUser && m.Text != "" {
			// Rune-wise cut, a byte offset could split a multi-byte rune.
			runes := []rune(m.Text)
			if len(runes) > 40 {
				return string(runes[:40]) + "…"
			}
			return m.Text
		}
	}
	return "Chat from " + now.Format("Jan 2")
}
