package broadcast

import (
	"time"

	"github.com/ethanbaker/copilot/pkg/session"
	"github.com/google/uuid"
)

// Kind tags the event variants carried over a session stream
type Kind string

const (
	KindSessionStarted Kind = "session_started"
	KindCaptionAdded   Kind = "caption_added"
	KindAnswerReady    Kind = "answer_ready"
	KindSessionEnded   Kind = "session_ended"
	KindHeartbeat      Kind = "heartbeat"
)

// Event is a tagged variant published to stream subscribers. Exactly one of
// the payload fields is set, matching the Kind.
type Event struct {
	Kind      Kind      `json:"kind"`
	SessionID uuid.UUID `json:"session_id"`
	At        time.Time `json:"at"`

	Caption *session.CaptionFragment `json:"caption,omitempty"`
	Answer  *session.Answer          `json:"answer,omitempty"`
}

// NewSessionStarted creates a session_started event
func NewSessionStarted(sessionID uuid.UUID) Event {
	return Event{Kind: KindSessionStarted, SessionID: sessionID, At: time.Now().UTC()}
}

// NewCaptionAdded creates a caption_added event
func NewCaptionAdded(fragment *session.CaptionFragment) Event {
	return Event{
		Kind:      KindCaptionAdded,
		SessionID: fragment.SessionID,
		At:        time.Now().UTC(),
		Caption:   fragment,
	}
}

// NewAnswerReady creates an answer_ready event
func NewAnswerReady(answer *session.Answer) Event {
	return Event{
		Kind:      KindAnswerReady,
		SessionID: answer.SessionID,
		At:        time.Now().UTC(),
		Answer:    answer,
	}
}

// NewSessionEnded creates a session_ended event
func NewSessionEnded(sessionID uuid.UUID) Event {
	return Event{Kind: KindSessionEnded, SessionID: sessionID, At: time.Now().UTC()}
}

// NewHeartbeat creates a heartbeat event
func NewHeartbeat(sessionID uuid.UUID) Event {
	return Event{Kind: KindHeartbeat, SessionID: sessionID, At: time.Now().UTC()}
}
