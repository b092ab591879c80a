package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is the per-browser state kept between requests.
type Session struct {
	ID          string                 `json:"id"`
	LastForm    *kundali.BirthFormData `json:"lastForm,omitempty"`
	SubmittedAt time.Time              `json:"submittedAt,omitempty"`
	Dasha       *DashaState            `json:"dasha,omitempty"`
	Chat        ChatState              `json:"chat"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// DashaState is the dasha table of the last chart and which rows are open.
type DashaState struct {
	Periods  []kundali.DashaPeriod `json:"periods"`
	Expanded []int                 `json:"expanded,omitempty"`
}

// ChatState is the chat widget as last rendered for this session.
type ChatState struct {
	Open     bool          `json:"open"`
	Messages []ChatMessage `json:"messages"`
	NextID   int64         `json:"nextId"`
	Asks     []PendingAsk  `json:"asks,omitempty"`
}

// PendingAsk is a question whose reply is still outstanding. Form is the
// retained form at the moment the question was asked, nil without a chart.
type PendingAsk struct {
	MessageID int64                  `json:"messageId"`
	Question  string                 `json:"question"`
	Form      *kundali.BirthFormData `json:"form,omitempty"`
}

// ChatMessage is one bubble in the chat widget. HTML is already escaped.
type ChatMessage struct {
	ID      int64  `json:"id"`
	Sender  string `json:"sender"`
	HTML    string `json:"html"`
	Pending bool   `json:"pending,omitempty"`
}

// Store persists sessions. Update applies fn to the freshest copy of the
// session and saves the result.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Update(ctx context.Context, id string, ttl time.Duration, fn func(*Session) error) (Session, error)
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// FormSnapshot returns a copy of the retained form so callers cannot observe
// later submissions through it.
func (s Session) FormSnapshot() (kundali.BirthFormData, bool) {
	if s.LastForm == nil {
		return kundali.BirthFormData{}, false
	}
	return *s.LastForm, true
}

// Clone deep-copies the mutable parts of the session.
func (s Session) Clone() Session {
	out := s
	if s.LastForm != nil {
		form := *s.LastForm
		out.LastForm = &form
	}
	if s.Dasha != nil {
		dasha := DashaState{
			Periods:  append([]kundali.DashaPeriod(nil), s.Dasha.Periods...),
			Expanded: append([]int(nil), s.Dasha.Expanded...),
		}
		out.Dasha = &dasha
	}
	if s.Chat.Messages != nil {
		out.Chat.Messages = append([]ChatMessage(nil), s.Chat.Messages...)
	}
	if s.Chat.Asks != nil {
		out.Chat.Asks = make([]PendingAsk, len(s.Chat.Asks))
		for i, ask := range s.Chat.Asks {
			if ask.Form != nil {
				form := *ask.Form
				ask.Form = &form
			}
			out.Chat.Asks[i] = ask
		}
	}
	return out
}
