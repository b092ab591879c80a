package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
	"github.com/yanqian/kundali-web/internal/domain/session"
)

// Message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Fixed bot replies.
const (
	PendingText         = "Analyzing stars..."
	NoChartText         = "Please generate your birth chart first!"
	EmptyAnswerText     = "I am speechless."
	ConnectionErrorText = "Sorry, the stars are silent right now. (Connection Error)"
)

// Widget is the chat panel as the browser should show it. The toggle button
// appears once a chart exists and only while the panel is closed.
type Widget struct {
	Open          bool                  `json:"open"`
	ToggleVisible bool                  `json:"toggleVisible"`
	Messages      []session.ChatMessage `json:"messages"`
}

// Service exposes the chat widget use cases.
type Service interface {
	State(ctx context.Context, sessionID string) (Widget, error)
	Open(ctx context.Context, sessionID string) (Widget, error)
	Close(ctx context.Context, sessionID string) (Widget, error)
	Ask(ctx context.Context, sessionID, question string) (Widget, error)
	Resolve(ctx context.Context, sessionID string, messageID int64) (Widget, error)
	Send(ctx context.Context, sessionID, question string) (Widget, error)
}

// Backend answers chat questions.
type Backend interface {
	Chat(ctx context.Context, req kundali.ChatRequest) (kundali.ChatResponse, error)
}

// Sessions is the subset of the session manager chat needs.
type Sessions interface {
	Load(ctx context.Context, id string) (session.Session, error)
	Update(ctx context.Context, id string, fn func(*session.Session) error) (session.Session, error)
}

type service struct {
	backend  Backend
	sessions Sessions
	logger   *slog.Logger
}

// NewService wires up the chat domain.
func NewService(backend Backend, sessions Sessions, logger *slog.Logger) Service {
	return &service{
		backend:  backend,
		sessions: sessions,
		logger:   logger.With("component", "chat.service"),
	}
}

func (s *service) State(ctx context.Context, sessionID string) (Widget, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Widget{}, err
	}
	return widgetOf(sess), nil
}

func (s *service) Open(ctx context.Context, sessionID string) (Widget, error) {
	return s.setOpen(ctx, sessionID, true)
}

func (s *service) Close(ctx context.Context, sessionID string) (Widget, error) {
	return s.setOpen(ctx, sessionID, false)
}

func (s *service) setOpen(ctx context.Context, sessionID string, open bool) (Widget, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.Chat.Open = open
		return nil
	})
	if err != nil {
		return Widget{}, err
	}
	return widgetOf(sess), nil
}

// Ask appends the question and a pending reply and returns at once. The
// retained form is captured here, when the question is asked.
func (s *service) Ask(ctx context.Context, sessionID, question string) (Widget, error) {
	sess, _, err := s.ask(ctx, sessionID, question)
	if err != nil {
		return Widget{}, err
	}
	return widgetOf(sess), nil
}

// Resolve answers the pending reply messageID. A reply that is no longer
// pending leaves the widget as it is.
func (s *service) Resolve(ctx context.Context, sessionID string, messageID int64) (Widget, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Widget{}, err
	}
	ask, ok := findAsk(sess.Chat.Asks, messageID)
	if !ok {
		return widgetOf(sess), nil
	}
	if ask.Form == nil {
		return s.resolve(ctx, sessionID, messageID, NoChartText)
	}
	resp, err := s.backend.Chat(ctx, kundali.ChatRequest{Question: ask.Question, ChartParams: *ask.Form})
	return s.resolve(ctx, sessionID, messageID, s.replyHTML(sessionID, resp, err))
}

// Send is Ask followed by Resolve in one call.
func (s *service) Send(ctx context.Context, sessionID, question string) (Widget, error) {
	sess, pendingID, err := s.ask(ctx, sessionID, question)
	if err != nil {
		return Widget{}, err
	}
	if pendingID == 0 {
		return widgetOf(sess), nil
	}
	return s.Resolve(ctx, sessionID, pendingID)
}

func (s *service) ask(ctx context.Context, sessionID, question string) (session.Session, int64, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		sess, err := s.sessions.Load(ctx, sessionID)
		return sess, 0, err
	}

	var pendingID int64
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		appendMessage(sess, SenderUser, Plain(question), false)
		pendingID = appendMessage(sess, SenderBot, PendingText, true)
		ask := session.PendingAsk{MessageID: pendingID, Question: question}
		if form, ok := sess.FormSnapshot(); ok {
			ask.Form = &form
		}
		sess.Chat.Asks = append(sess.Chat.Asks, ask)
		return nil
	})
	if err != nil {
		return session.Session{}, 0, err
	}
	return sess, pendingID, nil
}

func (s *service) replyHTML(sessionID string, resp kundali.ChatResponse, err error) string {
	if err != nil {
		if be, ok := kundali.AsBackendError(err); ok {
			return "Error: " + Plain(be.Message)
		}
		s.logger.Warn("chat request failed", "session", sessionID, "error", err)
		return ConnectionErrorText
	}
	if resp.Answer == "" {
		return EmptyAnswerText
	}
	s.logger.Info("chat answered", "session", sessionID, "topic", resp.Topic)
	return Format(resp.Answer)
}

// resolve replaces the pending reply on a fresh read of the session, so
// writes made while the backend call ran are kept.
func (s *service) resolve(ctx context.Context, sessionID string, id int64, html string) (Widget, error) {
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.Chat.Asks = dropAsk(sess.Chat.Asks, id)
		for i := range sess.Chat.Messages {
			if sess.Chat.Messages[i].ID == id {
				if !sess.Chat.Messages[i].Pending {
					return nil
				}
				sess.Chat.Messages[i].HTML = html
				sess.Chat.Messages[i].Pending = false
				return nil
			}
		}
		return errMessageGone
	})
	if errors.Is(err, errMessageGone) {
		s.logger.Warn("pending chat message missing", "session", sessionID, "message", id)
		return s.State(ctx, sessionID)
	}
	if err != nil {
		return Widget{}, err
	}
	return widgetOf(sess), nil
}

var errMessageGone = errors.New("pending message not found")

func findAsk(asks []session.PendingAsk, id int64) (session.PendingAsk, bool) {
	for _, ask := range asks {
		if ask.MessageID == id {
			return ask, true
		}
	}
	return session.PendingAsk{}, false
}

func dropAsk(asks []session.PendingAsk, id int64) []session.PendingAsk {
	out := asks[:0]
	for _, ask := range asks {
		if ask.MessageID != id {
			out = append(out, ask)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendMessage(sess *session.Session, sender, html string, pending bool) int64 {
	sess.Chat.NextID++
	id := sess.Chat.NextID
	sess.Chat.Messages = append(sess.Chat.Messages, session.ChatMessage{
		ID:      id,
		Sender:  sender,
		HTML:    html,
		Pending: pending,
	})
	return id
}

func widgetOf(sess session.Session) Widget {
	messages := sess.Chat.Messages
	if messages == nil {
		messages = []session.ChatMessage{}
	}
	return Widget{
		Open:          sess.Chat.Open,
		ToggleVisible: !sess.Chat.Open && sess.LastForm != nil,
		Messages:      messages,
	}
}
