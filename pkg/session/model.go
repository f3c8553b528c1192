package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Speaker identifies who produced a caption fragment
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
	SpeakerUnknown     Speaker = "unknown"
)

// ValidateSpeaker checks if the given speaker label is valid
func ValidateSpeaker(speaker Speaker) bool {
	switch speaker {
	case SpeakerInterviewer, SpeakerCandidate, SpeakerUnknown:
		return true
	default:
		return false
	}
}

// Metadata holds the participant details supplied when a session is created
type Metadata struct {
	ParticipantLabel string `json:"participant_label"`
	Level            string `json:"level"`
	Company          string `json:"company"`
}

// Session represents one interview or meeting instance
type Session struct {
	*gorm.Model
	ID uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`

	ParticipantLabel string     `json:"participant_label" gorm:"size:255"`
	Level            string     `json:"level" gorm:"size:64"`
	Company          string     `json:"company" gorm:"size:255"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	LastActivity     time.Time  `json:"last_activity"`

	Captions []*CaptionFragment `json:"captions,omitempty" gorm:"foreignKey:SessionID"`
}

// Active reports whether the session still accepts writes
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// CaptionFragment represents a short transcribed utterance. Fragments are
// immutable once appended and ordered by server-side arrival, not by any
// client-reported timestamp.
type CaptionFragment struct {
	*gorm.Model

	SessionID uuid.UUID `json:"session_id" gorm:"type:char(36);not null;index"`
	Speaker   Speaker   `json:"speaker" gorm:"size:20;not null"`
	Text      string    `json:"text" gorm:"type:text"`

	Session *Session `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// Answer represents a generated answer keyed to the question that triggered it
type Answer struct {
	*gorm.Model

	SessionID    uuid.UUID `json:"session_id" gorm:"type:char(36);not null;index"`
	QuestionText string    `json:"question_text" gorm:"type:text"`
	AnswerText   string    `json:"answer_text" gorm:"type:text"`
	UsedMemory   bool      `json:"used_memory"`
	Fallback     bool      `json:"fallback"`

	Session *Session `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// NewSession creates a new active session with a generated UUID
func NewSession(meta Metadata) *Session {
	return &Session{
		Model:            &gorm.Model{},
		ID:               uuid.New(),
		ParticipantLabel: meta.ParticipantLabel,
		Level:            meta.Level,
		Company:          meta.Company,
		LastActivity:     time.Now().UTC(),
	}
}

// NewCaptionFragment creates a new caption fragment for a session
func NewCaptionFragment(sessionID uuid.UUID, speaker Speaker, text string) *CaptionFragment {
	return &CaptionFragment{
		Model:     &gorm.Model{},
		SessionID: sessionID,
		Speaker:   speaker,
		Text:      text,
	}
}

// NewAnswer creates a new answer for a session
func NewAnswer(sessionID uuid.UUID, questionText, answerText string, usedMemory, fallback bool) *Answer {
	return &Answer{
		Model:        &gorm.Model{},
		SessionID:    sessionID,
		QuestionText: questionText,
		AnswerText:   answerText,
		UsedMemory:   usedMemory,
		Fallback:     fallback,
	}
}
